package lfs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const (
	// HashAlgorithmSHA256 is the only object hash Git LFS defines.
	HashAlgorithmSHA256 = "sha256"

	// MetaFileIdentifier is the first line of every LFS pointer file.
	// https://github.com/git-lfs/git-lfs/blob/master/docs/spec.md
	MetaFileIdentifier = "version https://git-lfs.github.com/spec/v1"

	// MetaFileOidPrefix precedes the object hash in a pointer file.
	MetaFileOidPrefix = "oid " + HashAlgorithmSHA256 + ":"

	// Pointer files are tiny; anything past this many bytes is content.
	blobSizeCutoff = 1024
)

var (
	// ErrMissingPrefix means the content does not start with the pointer
	// file identifier.
	ErrMissingPrefix = errors.New("content lacks the LFS prefix")

	// ErrInvalidStructure means the content is missing pointer file lines.
	ErrInvalidStructure = errors.New("content has an invalid structure")

	// ErrInvalidOIDFormat means the oid line does not carry a sha256 hash.
	ErrInvalidOIDFormat = errors.New("OID has an invalid format")
)

// validOid reports whether s is a lowercase sha256 hex digest.
func validOid(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range []byte(s) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ReadPointer parses LFS pointer data from the start of the reader.
func ReadPointer(reader io.Reader) (Pointer, error) {
	buf := make([]byte, blobSizeCutoff)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Pointer{}, err
	}
	return ReadPointerFromBuffer(buf[:n])
}

// ReadPointerFromBuffer parses buf as a pointer file.
func ReadPointerFromBuffer(buf []byte) (Pointer, error) {
	head := string(buf)
	if !strings.HasPrefix(head, MetaFileIdentifier) {
		return Pointer{}, ErrMissingPrefix
	}

	lines := strings.Split(head, "\n")
	if len(lines) < 3 {
		return Pointer{}, ErrInvalidStructure
	}

	oid := strings.TrimPrefix(lines[1], MetaFileOidPrefix)
	if !validOid(oid) {
		return Pointer{}, ErrInvalidOIDFormat
	}
	size, err := strconv.ParseInt(strings.TrimPrefix(lines[2], "size "), 10, 64)
	if err != nil {
		return Pointer{}, err
	}

	return Pointer{Oid: oid, Size: size}, nil
}

// IsValid reports whether the pointer is well formed. It says nothing about
// whether the object it names exists.
func (p Pointer) IsValid() bool {
	return validOid(p.Oid) && p.Size >= 0
}

// String renders the pointer file representation.
// https://github.com/git-lfs/git-lfs/blob/main/docs/spec.md#the-pointer
func (p Pointer) String() string {
	return fmt.Sprintf("%s\n%s%s\nsize %d\n", MetaFileIdentifier, MetaFileOidPrefix, p.Oid, p.Size)
}

// RelativePath returns the object's storage path, sharded on the first two
// oid byte pairs.
func (p Pointer) RelativePath() string {
	if len(p.Oid) < 5 {
		return p.Oid
	}
	return path.Join(p.Oid[0:2], p.Oid[2:4], p.Oid)
}

// GeneratePointer hashes content into a pointer.
func GeneratePointer(content io.Reader) (Pointer, error) {
	h := sha256.New()
	n, err := io.Copy(h, content)
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{Oid: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}
