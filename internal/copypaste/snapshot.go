package copypaste

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/graph"
)

// SnapshotFormat tags serialized snapshots so foreign clipboard content can
// be told apart.
const SnapshotFormat = "graphclip/snapshot"

// ErrNotSnapshot is returned when a blob does not hold a serialized snapshot.
var ErrNotSnapshot = errors.New("not a graphclip snapshot")

// GroupEntry records a copied group by its title path.
type GroupEntry struct {
	// ID is the identity the group had in the source graph.
	ID graph.ID `json:"id"`

	// Path lists titles from the owning section down to the group itself.
	Path []string `json:"path"`

	// Expanded is the group's UI expansion state.
	Expanded bool `json:"expanded"`
}

// Title returns the group's own title.
func (e GroupEntry) Title() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// DeclarationEntry records a copied variable declaration and where it lived.
type DeclarationEntry struct {
	Declaration *graph.Declaration `json:"declaration"`

	// GroupIndex indexes the snapshot's groups when the declaration's parent
	// group was copied too, and is -1 otherwise.
	GroupIndex int `json:"group_index"`

	// Parent is the original parent identity when GroupIndex is -1.
	Parent graph.ID `json:"parent"`

	// Index is the original position inside the parent.
	Index int `json:"index"`

	// Section is the name of the section the declaration lived under.
	Section string `json:"section"`
}

type snapshotData struct {
	Format               string                     `json:"format"`
	Anchor               graph.Vec2                 `json:"anchor"`
	Nodes                []*graph.Node              `json:"nodes"`
	Wires                []*graph.Wire              `json:"wires"`
	Declarations         []DeclarationEntry         `json:"declarations"`
	ImplicitDeclarations []DeclarationEntry         `json:"implicit_declarations"`
	PortalDeclarations   []*graph.PortalDeclaration `json:"portal_declarations"`
	Groups               []GroupEntry               `json:"groups"`
	StickyNotes          []*graph.StickyNote        `json:"sticky_notes"`
	Placemats            []*graph.Placemat          `json:"placemats"`
}

// Snapshot is an immutable capture of a copied closure.
//
// A Snapshot built by Build owes a post-copy hook to every element it
// captured; Close settles that debt exactly once. Snapshots obtained from
// Decode or Clone owe nothing, but closing them is harmless.
type Snapshot struct {
	data snapshotData

	owed   []graph.Element
	hooks  Hooks
	logger *zap.Logger
	once   sync.Once
}

// Anchor returns the top-left corner of the copied positionable elements.
func (s *Snapshot) Anchor() graph.Vec2 { return s.data.Anchor }

// DeltaTo returns the placement delta that moves the anchor to target.
func (s *Snapshot) DeltaTo(target graph.Vec2) graph.Vec2 {
	return target.Sub(s.data.Anchor)
}

// IsEmpty reports whether nothing was captured.
func (s *Snapshot) IsEmpty() bool {
	d := &s.data
	return len(d.Nodes) == 0 && len(d.Wires) == 0 && len(d.Declarations) == 0 &&
		len(d.ImplicitDeclarations) == 0 && len(d.Groups) == 0 &&
		len(d.StickyNotes) == 0 && len(d.Placemats) == 0
}

// Stats returns the number of captured elements per partition.
func (s *Snapshot) Stats() map[string]int {
	return map[string]int{
		"nodes":                 len(s.data.Nodes),
		"wires":                 len(s.data.Wires),
		"declarations":          len(s.data.Declarations),
		"implicit_declarations": len(s.data.ImplicitDeclarations),
		"portal_declarations":   len(s.data.PortalDeclarations),
		"groups":                len(s.data.Groups),
		"sticky_notes":          len(s.data.StickyNotes),
		"placemats":             len(s.data.Placemats),
	}
}

// Nodes returns copies of the captured nodes in capture order.
func (s *Snapshot) Nodes() []*graph.Node {
	out := make([]*graph.Node, len(s.data.Nodes))
	for i, n := range s.data.Nodes {
		out[i] = n.Clone()
	}
	return out
}

// Groups returns the captured group entries in reconstruction order.
func (s *Snapshot) Groups() []GroupEntry {
	out := make([]GroupEntry, len(s.data.Groups))
	for i, e := range s.data.Groups {
		e.Path = append([]string(nil), e.Path...)
		out[i] = e
	}
	return out
}

// Declarations returns the explicitly copied declarations in
// reconstruction order.
func (s *Snapshot) Declarations() []DeclarationEntry {
	return cloneEntries(s.data.Declarations)
}

// ImplicitDeclarations returns declarations referenced by copied variable
// nodes without being copied themselves.
func (s *Snapshot) ImplicitDeclarations() []DeclarationEntry {
	return cloneEntries(s.data.ImplicitDeclarations)
}

// declaration finds a captured declaration, explicit or implicit.
func (s *Snapshot) declaration(id graph.ID) *graph.Declaration {
	for _, e := range s.data.Declarations {
		if e.Declaration != nil && e.Declaration.ID == id {
			return e.Declaration
		}
	}
	for _, e := range s.data.ImplicitDeclarations {
		if e.Declaration != nil && e.Declaration.ID == id {
			return e.Declaration
		}
	}
	return nil
}

// portalDeclaration finds a captured portal declaration.
func (s *Snapshot) portalDeclaration(id graph.ID) *graph.PortalDeclaration {
	for _, p := range s.data.PortalDeclarations {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// Close runs the post-copy hook once on every element that received a
// pre-copy hook, in capture order. Hook failures are logged. Close is
// idempotent and always returns nil.
func (s *Snapshot) Close() error {
	s.once.Do(func() {
		for _, e := range s.owed {
			invokeHook(s.logger, "after_copy", e, s.hooks.AfterCopy)
		}
		s.owed = nil
	})
	return nil
}

// Clone returns an in-memory deep copy of the snapshot that owes no hooks.
func Clone(s *Snapshot) *Snapshot {
	d := s.data
	c := &Snapshot{data: snapshotData{
		Format:               d.Format,
		Anchor:               d.Anchor,
		Declarations:         cloneEntries(d.Declarations),
		ImplicitDeclarations: cloneEntries(d.ImplicitDeclarations),
	}}
	for _, n := range d.Nodes {
		c.data.Nodes = append(c.data.Nodes, n.Clone())
	}
	for _, w := range d.Wires {
		c.data.Wires = append(c.data.Wires, w.Clone())
	}
	for _, p := range d.PortalDeclarations {
		cp := *p
		c.data.PortalDeclarations = append(c.data.PortalDeclarations, &cp)
	}
	for _, e := range d.Groups {
		e.Path = append([]string(nil), e.Path...)
		c.data.Groups = append(c.data.Groups, e)
	}
	for _, n := range d.StickyNotes {
		c.data.StickyNotes = append(c.data.StickyNotes, n.Clone())
	}
	for _, p := range d.Placemats {
		c.data.Placemats = append(c.data.Placemats, p.Clone())
	}
	return c
}

// Encode serializes a snapshot.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(&s.data)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a blob produced by Encode.
func Decode(blob []byte) (*Snapshot, error) {
	var d snapshotData
	if err := json.Unmarshal(blob, &d); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w: %v", ErrNotSnapshot, err)
	}
	if d.Format != SnapshotFormat {
		return nil, fmt.Errorf("decoding snapshot: %w: format %q", ErrNotSnapshot, d.Format)
	}
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w: %v", ErrNotSnapshot, err)
	}
	return &Snapshot{data: d}, nil
}

// check rejects null entries, which Build never produces.
func (d *snapshotData) check() error {
	for _, entries := range [][]DeclarationEntry{d.Declarations, d.ImplicitDeclarations} {
		for _, e := range entries {
			if e.Declaration == nil {
				return errors.New("empty declaration entry")
			}
		}
	}
	for _, n := range d.Nodes {
		if err := checkNode(n); err != nil {
			return err
		}
	}
	if slices.Contains(d.Wires, nil) {
		return errors.New("empty wire entry")
	}
	if slices.Contains(d.PortalDeclarations, nil) {
		return errors.New("empty portal declaration entry")
	}
	if slices.Contains(d.StickyNotes, nil) {
		return errors.New("empty sticky note entry")
	}
	if slices.Contains(d.Placemats, nil) {
		return errors.New("empty placemat entry")
	}
	return nil
}

func checkNode(n *graph.Node) error {
	if n == nil {
		return errors.New("empty node entry")
	}
	for _, child := range n.Children {
		if err := checkNode(child); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	return nil
}

func cloneEntries(in []DeclarationEntry) []DeclarationEntry {
	if in == nil {
		return nil
	}
	out := make([]DeclarationEntry, len(in))
	for i, e := range in {
		e.Declaration = e.Declaration.Clone()
		out[i] = e
	}
	return out
}
