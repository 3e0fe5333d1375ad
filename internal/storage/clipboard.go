// Package storage provides the clipboard providers for graphclip.
//
// It defines the Clipboard interface the copy/paste commands use as an
// opaque snapshot transport, along with an in-memory implementation for
// tests and single-process sessions and a BadgerDB-backed implementation
// that persists the clipboard between CLI invocations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Benny93/graphclip/internal/copypaste"
)

// ErrClipboardEmpty is returned when the clipboard holds no content.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// HistoryEntry is one previously stored clipboard blob.
type HistoryEntry struct {
	// Seq increases with every stored blob.
	Seq uint64 `json:"seq"`

	// SavedAt is when the blob was stored.
	SavedAt time.Time `json:"saved_at"`

	// Blob is the serialized snapshot.
	Blob []byte `json:"blob"`
}

// Clipboard is the transport for snapshots between a copy and a paste.
//
// Implementations must be safe for concurrent use.
type Clipboard interface {
	// Serialize encodes the snapshot and stores the blob as the current
	// clipboard content. The encoded blob is returned.
	Serialize(ctx context.Context, s *copypaste.Snapshot) ([]byte, error)

	// Deserialize decodes a blob produced by Serialize.
	Deserialize(ctx context.Context, blob []byte) (*copypaste.Snapshot, error)

	// CanDeserialize reports whether the current content holds a snapshot.
	CanDeserialize(ctx context.Context) bool

	// Current returns the current clipboard blob, or ErrClipboardEmpty.
	Current(ctx context.Context) ([]byte, error)

	// Duplicate returns an in-memory copy of the snapshot for same-session
	// duplication, without a serialization round trip.
	Duplicate(s *copypaste.Snapshot) (*copypaste.Snapshot, error)

	// Close releases all resources held by the clipboard.
	Close() error
}

// Load decodes the current clipboard content.
func Load(ctx context.Context, c Clipboard) (*copypaste.Snapshot, error) {
	blob, err := c.Current(ctx)
	if err != nil {
		return nil, err
	}
	return c.Deserialize(ctx, blob)
}

func duplicate(s *copypaste.Snapshot) (*copypaste.Snapshot, error) {
	if s == nil {
		return nil, ErrClipboardEmpty
	}
	return copypaste.Clone(s), nil
}
