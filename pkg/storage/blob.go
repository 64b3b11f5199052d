package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// BlobStorage is a storage implementation backed by a gocloud.dev blob
// bucket. The bucket is addressed by URL, for example "s3://lfs-objects" or
// "file:///var/lib/gitgate/lfs".
type BlobStorage struct {
	bucket *blob.Bucket
	urlstr string
}

var (
	_ Storage   = (*BlobStorage)(nil)
	_ URLSigner = (*BlobStorage)(nil)
)

// OpenBlobStorage opens the bucket at the given URL.
func OpenBlobStorage(ctx context.Context, urlstr string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", urlstr, err)
	}
	return &BlobStorage{bucket: bucket, urlstr: urlstr}, nil
}

// Close releases the underlying bucket.
func (s *BlobStorage) Close() error {
	return s.bucket.Close()
}

// Open implements Storage.
func (s *BlobStorage) Open(ctx context.Context, name string) (Object, error) {
	r, err := s.bucket.NewReader(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", name, wrapBlobError(err))
	}
	return &blobObject{Reader: r, name: name}, nil
}

// Stat implements Storage.
func (s *BlobStorage) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	attrs, err := s.bucket.Attributes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %s: %w", name, wrapBlobError(err))
	}
	return &blobFileInfo{
		name:    path.Base(name),
		size:    attrs.Size,
		modTime: attrs.ModTime,
	}, nil
}

// Put implements Storage.
func (s *BlobStorage) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	w, err := s.bucket.NewWriter(ctx, name, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create object %s: %w", name, err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("failed to finalize object %s: %w", name, err)
	}
	return n, nil
}

// Exists implements Storage.
func (s *BlobStorage) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check existence of object %s: %w", name, err)
	}
	return ok, nil
}

// Delete implements Storage.
func (s *BlobStorage) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", name, wrapBlobError(err))
	}
	return nil
}

// Rename implements Storage. Buckets have no rename primitive so this copies
// then deletes the source.
func (s *BlobStorage) Rename(ctx context.Context, oldName, newName string) error {
	if err := s.bucket.Copy(ctx, newName, oldName, nil); err != nil {
		return fmt.Errorf("failed to copy object %s to %s: %w", oldName, newName, wrapBlobError(err))
	}
	if err := s.bucket.Delete(ctx, oldName); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", oldName, wrapBlobError(err))
	}
	return nil
}

// SignedURL implements URLSigner.
func (s *BlobStorage) SignedURL(ctx context.Context, name string, method string, expiry time.Duration) (string, error) {
	url, err := s.bucket.SignedURL(ctx, name, &blob.SignedURLOptions{
		Method: method,
		Expiry: expiry,
	})
	if err != nil {
		if gcerrors.Code(err) == gcerrors.Unimplemented {
			return "", ErrSignedURLsUnsupported
		}
		return "", fmt.Errorf("failed to sign URL for object %s: %w", name, err)
	}
	return url, nil
}

// wrapBlobError maps bucket not-found errors onto fs.ErrNotExist so callers
// can treat both storage backends alike.
func wrapBlobError(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %s", fs.ErrNotExist, err)
	}
	return err
}

type blobObject struct {
	*blob.Reader
	name string
}

var _ Object = (*blobObject)(nil)

func (o *blobObject) Name() string {
	return path.Base(o.name)
}

func (o *blobObject) Stat() (fs.FileInfo, error) {
	return &blobFileInfo{
		name:    path.Base(o.name),
		size:    o.Reader.Size(),
		modTime: o.Reader.ModTime(),
	}, nil
}

type blobFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

var _ fs.FileInfo = (*blobFileInfo)(nil)

func (i *blobFileInfo) Name() string       { return i.name }
func (i *blobFileInfo) Size() int64        { return i.size }
func (i *blobFileInfo) Mode() fs.FileMode  { return 0o644 }
func (i *blobFileInfo) ModTime() time.Time { return i.modTime }
func (i *blobFileInfo) IsDir() bool        { return false }
func (i *blobFileInfo) Sys() any           { return nil }
