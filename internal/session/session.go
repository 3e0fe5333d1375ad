// Package session runs copy, paste and duplicate against graph documents on
// disk, moving snapshots through a clipboard provider. The CLI and the MCP
// server are both thin front ends over a Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/copypaste"
	"github.com/Benny93/graphclip/internal/document"
	"github.com/Benny93/graphclip/internal/graph"
	"github.com/Benny93/graphclip/internal/storage"
)

// ErrEmptySelection is returned when a copy or duplicate names nothing.
var ErrEmptySelection = errors.New("empty selection")

// Session is the host side of the copy/paste engine. Mutating operations are
// serialized so that concurrent requests never interleave on one document.
type Session struct {
	clipboard      storage.Clipboard
	logger         *zap.Logger
	hooks          copypaste.Hooks
	placematPrefix bool

	mu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks sets the element lifecycle hooks passed to the engine.
func WithHooks(h copypaste.Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithPlacematPrefix controls whether duplicated placemats are titled
// "Copy of <title>". It is on by default.
func WithPlacematPrefix(on bool) Option {
	return func(s *Session) { s.placematPrefix = on }
}

// New creates a session around a clipboard.
func New(c storage.Clipboard, opts ...Option) *Session {
	s := &Session{
		clipboard:      c,
		logger:         zap.NewNop(),
		placematPrefix: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clipboard returns the clipboard the session uses.
func (s *Session) Clipboard() storage.Clipboard {
	return s.clipboard
}

// Selection names the elements an operation starts from.
type Selection struct {
	// IDs are element identities.
	IDs []graph.ID
	// All selects every top-level node, wire, sticky note and placemat.
	All bool
}

// Resolve returns the elements of g the selection names.
func (sel Selection) Resolve(g *graph.Graph) ([]graph.Element, error) {
	var out []graph.Element
	if sel.All {
		for _, n := range g.Nodes() {
			out = append(out, n)
		}
		for _, w := range g.Wires() {
			out = append(out, w)
		}
		for _, n := range g.StickyNotes() {
			out = append(out, n)
		}
		for _, p := range g.Placemats() {
			out = append(out, p)
		}
	}
	for _, id := range sel.IDs {
		e, ok := g.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("selecting %s: %w", id, graph.ErrNotFound)
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

// ParseIDs parses element identities given as strings.
func ParseIDs(values []string) ([]graph.ID, error) {
	ids := make([]graph.ID, 0, len(values))
	for _, v := range values {
		id, err := graph.ParseID(v)
		if err != nil {
			return nil, fmt.Errorf("parsing id %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CopyReport describes a copy.
type CopyReport struct {
	Selected int            `json:"selected"`
	Closure  int            `json:"closure"`
	Snapshot map[string]int `json:"snapshot"`
	Bytes    int            `json:"bytes"`
}

// PasteOptions places pasted content.
type PasteOptions struct {
	// At moves the snapshot anchor to this point. It wins over Offset.
	At *graph.Vec2
	// Offset is added to every original position when At is nil.
	Offset graph.Vec2
	// Into pastes groups and declarations into this group.
	Into graph.ID
}

// PasteReport describes a paste or duplicate.
type PasteReport struct {
	Mode    string         `json:"mode"`
	Created []graph.ID     `json:"created"`
	Stats   map[string]int `json:"stats"`
}

func (s *Session) engineOptions() []copypaste.Option {
	opts := []copypaste.Option{copypaste.WithLogger(s.logger)}
	if s.hooks != nil {
		opts = append(opts, copypaste.WithHooks(s.hooks))
	}
	return opts
}

func (s *Session) snapshot(g *graph.Graph, sel Selection) (*copypaste.Snapshot, int, int, error) {
	selected, err := sel.Resolve(g)
	if err != nil {
		return nil, 0, 0, err
	}
	closure := copypaste.Collect(g, selected, copypaste.WithGroupDeclarations())
	return copypaste.Build(g, closure, s.engineOptions()...), len(selected), len(closure), nil
}

// Copy captures the selection of the document at path into the clipboard.
func (s *Session) Copy(ctx context.Context, path string, sel Selection) (*CopyReport, error) {
	g, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	snap, selected, closure, err := s.snapshot(g, sel)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	blob, err := s.clipboard.Serialize(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("writing clipboard: %w", err)
	}

	s.logger.Debug("copied",
		zap.String("document", path),
		zap.Int("selected", selected),
		zap.Int("closure", closure),
		zap.Int("bytes", len(blob)),
	)
	return &CopyReport{
		Selected: selected,
		Closure:  closure,
		Snapshot: snap.Stats(),
		Bytes:    len(blob),
	}, nil
}

// Paste reconstructs the current clipboard content in the document at path
// and saves it.
func (s *Session) Paste(ctx context.Context, path string, opts PasteOptions) (*PasteReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := storage.Load(ctx, s.clipboard)
	if err != nil {
		return nil, fmt.Errorf("reading clipboard: %w", err)
	}
	g, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	delta := opts.Offset
	if opts.At != nil {
		delta = snap.DeltaTo(*opts.At)
	}
	engineOpts := s.engineOptions()
	if opts.Into != graph.NilID {
		if g.Group(opts.Into) == nil {
			return nil, fmt.Errorf("pasting into group %s: %w", opts.Into, graph.ErrNotFound)
		}
		engineOpts = append(engineOpts, copypaste.WithDestinationGroup(opts.Into))
	}

	return s.reconstruct(path, g, snap, copypaste.Paste, delta, engineOpts)
}

// Duplicate copies the selection of the document at path and pastes it into
// the same document, offset by delta, without touching the clipboard.
func (s *Session) Duplicate(ctx context.Context, path string, sel Selection, delta graph.Vec2) (*PasteReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	snap, _, _, err := s.snapshot(g, sel)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	dup, err := s.clipboard.Duplicate(snap)
	if err != nil {
		return nil, fmt.Errorf("duplicating snapshot: %w", err)
	}

	engineOpts := s.engineOptions()
	if s.placematPrefix {
		engineOpts = append(engineOpts, copypaste.WithPlacematPrefix())
	}
	return s.reconstruct(path, g, dup, copypaste.Duplicate, delta, engineOpts)
}

func (s *Session) reconstruct(path string, g *graph.Graph, snap *copypaste.Snapshot, mode copypaste.Mode, delta graph.Vec2, opts []copypaste.Option) (*PasteReport, error) {
	res, err := copypaste.Reconstruct(snap, mode, delta, g, opts...)
	if err != nil {
		return nil, err
	}
	if err := document.Save(path, g); err != nil {
		return nil, err
	}

	s.logger.Debug("reconstructed",
		zap.String("document", path),
		zap.Stringer("mode", mode),
		zap.Int("created", len(res.Created)),
		zap.Int("nodes", len(res.Nodes)),
		zap.Int("snapshot_nodes", len(snap.Nodes())),
	)
	return &PasteReport{
		Mode:    mode.String(),
		Created: res.Created,
		Stats:   g.Stats(),
	}, nil
}
