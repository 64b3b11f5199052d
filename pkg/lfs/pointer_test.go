package lfs

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

const testOid = "4bb65146f04b6ae3f00bf2bee2f57127bf4e9b3b8ce560248e9320f2b5fdf179"

func TestReadPointer(t *testing.T) {
	is := is.New(t)
	content := "version https://git-lfs.github.com/spec/v1\noid sha256:" + testOid + "\nsize 1575078\n"

	p, err := ReadPointer(strings.NewReader(content))
	is.NoErr(err)
	is.Equal(p.Oid, testOid)
	is.Equal(p.Size, int64(1575078))
	is.True(p.IsValid())
	is.Equal(p.String(), content)
}

func TestReadPointerErrors(t *testing.T) {
	is := is.New(t)

	_, err := ReadPointerFromBuffer([]byte("not a pointer"))
	is.Equal(err, ErrMissingPrefix)

	_, err = ReadPointerFromBuffer([]byte("version https://git-lfs.github.com/spec/v1\n"))
	is.Equal(err, ErrInvalidStructure)

	_, err = ReadPointerFromBuffer([]byte("version https://git-lfs.github.com/spec/v1\noid sha256:BAD\nsize 5\n"))
	is.Equal(err, ErrInvalidOIDFormat)
}

func TestPointerIsValid(t *testing.T) {
	is := is.New(t)
	is.True(Pointer{Oid: testOid, Size: 0}.IsValid())
	is.True(!Pointer{Oid: testOid, Size: -1}.IsValid())
	is.True(!Pointer{Oid: strings.ToUpper(testOid), Size: 1}.IsValid())
	is.True(!Pointer{Oid: testOid[:40], Size: 1}.IsValid())
}

func TestRelativePath(t *testing.T) {
	is := is.New(t)
	is.Equal(Pointer{Oid: testOid}.RelativePath(), "4b/b6/"+testOid)
	is.Equal(Pointer{Oid: "4bb6"}.RelativePath(), "4bb6")
}
