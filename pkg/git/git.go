// Package git runs git services against bare repositories on disk.
package git

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing/format/pktline"
)

// ErrInvalidRepo is returned when the target directory is not a git
// repository.
var ErrInvalidRepo = errors.New("invalid repo")

// ErrInvalidService is returned when the requested service is not served
// over HTTP.
var ErrInvalidService = errors.New("invalid service")

// WritePktline encodes and writes a pkt-line message followed by a flush-pkt
// to the given writer.
func WritePktline(w io.Writer, v ...interface{}) error {
	msg := fmt.Sprintln(v...)
	pkt := pktline.NewEncoder(w)
	if err := pkt.EncodeString(msg); err != nil {
		return fmt.Errorf("git: error writing pkt-line message: %w", err)
	}
	if err := pkt.Flush(); err != nil {
		return fmt.Errorf("git: error flushing pkt-line message: %w", err)
	}
	return nil
}
