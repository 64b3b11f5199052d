package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrSignedURLsUnsupported is returned by SignedURL when the backend cannot
// mint pre-signed URLs.
var ErrSignedURLsUnsupported = errors.New("storage: signed URLs not supported")

// Object is an interface for objects that can be stored.
type Object interface {
	fs.File
	Name() string
}

// Storage is an interface for storing and retrieving objects.
type Storage interface {
	Open(ctx context.Context, name string) (Object, error)
	Stat(ctx context.Context, name string) (fs.FileInfo, error)
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName, newName string) error
}

// URLSigner is implemented by storage backends that can mint pre-signed URLs
// for direct client transfers. Method is an HTTP method, one of GET or PUT.
type URLSigner interface {
	SignedURL(ctx context.Context, name string, method string, expiry time.Duration) (string, error)
}
