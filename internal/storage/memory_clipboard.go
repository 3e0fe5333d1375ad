package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Benny93/graphclip/internal/copypaste"
)

// MemoryClipboard is an in-memory implementation of Clipboard.
type MemoryClipboard struct {
	mu      sync.RWMutex
	history []HistoryEntry
	limit   int
	seq     uint64
}

// NewMemoryClipboard creates an empty clipboard that keeps up to
// historySize previous blobs besides the current one.
func NewMemoryClipboard(historySize int) *MemoryClipboard {
	return &MemoryClipboard{limit: historySize}
}

// Serialize implements Clipboard.
func (m *MemoryClipboard) Serialize(ctx context.Context, s *copypaste.Snapshot) ([]byte, error) {
	blob, err := copypaste.Encode(s)
	if err != nil {
		return nil, err
	}
	m.Store(blob)
	return blob, nil
}

// Store puts a raw blob on the clipboard.
func (m *MemoryClipboard) Store(blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.history = append(m.history, HistoryEntry{
		Seq:     m.seq,
		SavedAt: time.Now().UTC(),
		Blob:    append([]byte(nil), blob...),
	})
	if over := len(m.history) - (m.limit + 1); over > 0 {
		m.history = append([]HistoryEntry(nil), m.history[over:]...)
	}
}

// Deserialize implements Clipboard.
func (m *MemoryClipboard) Deserialize(ctx context.Context, blob []byte) (*copypaste.Snapshot, error) {
	return copypaste.Decode(blob)
}

// CanDeserialize implements Clipboard.
func (m *MemoryClipboard) CanDeserialize(ctx context.Context) bool {
	blob, err := m.Current(ctx)
	if err != nil {
		return false
	}
	_, err = copypaste.Decode(blob)
	return err == nil
}

// Current implements Clipboard.
func (m *MemoryClipboard) Current(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.history) == 0 {
		return nil, ErrClipboardEmpty
	}
	return append([]byte(nil), m.history[len(m.history)-1].Blob...), nil
}

// History returns up to limit stored blobs, newest first, the current one
// included. A non-positive limit returns everything.
func (m *MemoryClipboard) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []HistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.history[i])
	}
	return result, nil
}

// Duplicate implements Clipboard.
func (m *MemoryClipboard) Duplicate(s *copypaste.Snapshot) (*copypaste.Snapshot, error) {
	return duplicate(s)
}

// Close implements Clipboard.
func (m *MemoryClipboard) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	return nil
}
