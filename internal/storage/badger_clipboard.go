package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/copypaste"
)

// Key prefixes for different data types
const (
	prefixEntry = "h:" // clipboard entries by sequence
	keySeq      = "m:seq"
)

// BadgerClipboard is a BadgerDB-backed Clipboard. The newest stored entry
// is the current content; older entries form a bounded history.
type BadgerClipboard struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
	historySize int
	logger      *zap.Logger
}

// NewBadgerClipboard creates a clipboard that keeps up to historySize
// previous blobs besides the current one.
func NewBadgerClipboard(historySize int, logger *zap.Logger) *BadgerClipboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerClipboard{historySize: historySize, logger: logger}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerClipboard) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLogger(badgerLogger{b.logger.Sugar()}).
		WithLoggingLevel(badger.ERROR)

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening clipboard store: %w", err)
	}

	b.initialized = true
	return nil
}

// Close implements Clipboard.
func (b *BadgerClipboard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// Serialize implements Clipboard.
func (b *BadgerClipboard) Serialize(ctx context.Context, s *copypaste.Snapshot) ([]byte, error) {
	blob, err := copypaste.Encode(s)
	if err != nil {
		return nil, err
	}
	if err := b.Store(ctx, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// Store puts a raw blob on the clipboard and trims the history.
func (b *BadgerClipboard) Store(ctx context.Context, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return errors.New("clipboard store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		data, err := json.Marshal(HistoryEntry{Seq: seq, SavedAt: time.Now().UTC(), Blob: blob})
		if err != nil {
			return fmt.Errorf("marshaling clipboard entry: %w", err)
		}
		if err := txn.Set(entryKey(seq), data); err != nil {
			return fmt.Errorf("setting clipboard entry: %w", err)
		}
		return b.trim(txn)
	})
	if err != nil {
		return fmt.Errorf("storing clipboard: %w", err)
	}

	b.logger.Debug("clipboard stored", zap.Int("bytes", len(blob)))
	return nil
}

func nextSeq(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(keySeq))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, fmt.Errorf("reading clipboard sequence: %w", err)
	default:
		if err := item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}
	seq++
	if err := txn.Set([]byte(keySeq), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
		return 0, fmt.Errorf("writing clipboard sequence: %w", err)
	}
	return seq, nil
}

// trim deletes the oldest entries beyond the current one plus historySize.
func (b *BadgerClipboard) trim(txn *badger.Txn) error {
	keys := entryKeys(txn)
	over := len(keys) - (b.historySize + 1)
	for i := 0; i < over; i++ {
		if err := txn.Delete(keys[i]); err != nil {
			return fmt.Errorf("trimming clipboard history: %w", err)
		}
	}
	return nil
}

// entryKeys returns the entry keys oldest first.
func entryKeys(txn *badger.Txn) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixEntry)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// Deserialize implements Clipboard.
func (b *BadgerClipboard) Deserialize(ctx context.Context, blob []byte) (*copypaste.Snapshot, error) {
	return copypaste.Decode(blob)
}

// CanDeserialize implements Clipboard.
func (b *BadgerClipboard) CanDeserialize(ctx context.Context) bool {
	blob, err := b.Current(ctx)
	if err != nil {
		return false
	}
	_, err = copypaste.Decode(blob)
	return err == nil
}

// Current implements Clipboard.
func (b *BadgerClipboard) Current(ctx context.Context) ([]byte, error) {
	entries, err := b.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrClipboardEmpty
	}
	return entries[0].Blob, nil
}

// History returns up to limit stored entries, newest first, the current one
// included. A non-positive limit returns everything.
func (b *BadgerClipboard) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, errors.New("clipboard store not initialized")
	}

	var result []HistoryEntry
	err := b.db.View(func(txn *badger.Txn) error {
		keys := entryKeys(txn)
		for i := len(keys) - 1; i >= 0; i-- {
			if limit > 0 && len(result) == limit {
				break
			}
			item, err := txn.Get(keys[i])
			if err != nil {
				return fmt.Errorf("getting clipboard entry: %w", err)
			}
			var entry HistoryEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("unmarshaling clipboard entry: %w", err)
			}
			result = append(result, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Duplicate implements Clipboard.
func (b *BadgerClipboard) Duplicate(s *copypaste.Snapshot) (*copypaste.Snapshot, error) {
	return duplicate(s)
}

func entryKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", prefixEntry, seq)
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.s.Infof(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }
