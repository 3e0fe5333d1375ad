package graph

import "fmt"

// DuplicateDeclaration inserts a copy of src into parent at index. The copy
// gets a fresh identity unless keepID is set, and a name that is unique in
// the graph.
func (g *Graph) DuplicateDeclaration(src *Declaration, parent ID, index int, keepID bool) (*Declaration, error) {
	d := src.Clone()
	if !keepID {
		d.ID = NewID()
	}
	d.Parent = parent
	d.Name = g.UniqueDeclarationName(src.Name)

	if err := g.InsertDeclaration(d, index); err != nil {
		return nil, fmt.Errorf("duplicating declaration %q: %w", src.Name, err)
	}
	return d, nil
}

// DuplicatePortalDeclaration registers a copy of src under a fresh identity.
func (g *Graph) DuplicatePortalDeclaration(src *PortalDeclaration) (*PortalDeclaration, error) {
	p := &PortalDeclaration{ID: NewID(), Title: src.Title}
	if err := g.AddPortalDeclaration(p); err != nil {
		return nil, fmt.Errorf("duplicating portal declaration %q: %w", src.Title, err)
	}
	return p, nil
}

// DuplicateNode adds a deep copy of src, and of every nested sub-node, under
// fresh identities. The copy is placed at src.Position + delta; sub-node
// positions are relative to their container and stay as they are.
func (g *Graph) DuplicateNode(src *Node, delta Vec2) (*Node, error) {
	n := src.Clone()
	Walk(n, func(sub *Node) { sub.ID = NewID() })
	n.Position = src.Position.Add(delta)

	if err := g.AddNode(n); err != nil {
		return nil, fmt.Errorf("duplicating node %s: %w", src.ID, err)
	}
	return n, nil
}

// DuplicateWire connects from and to with a new wire.
func (g *Graph) DuplicateWire(from, to PortRef) (*Wire, error) {
	w := &Wire{ID: NewID(), From: from, To: to}
	if err := g.AddWire(w); err != nil {
		return nil, err
	}
	return w, nil
}

// InsertGroupAfter creates a group right after sibling, in sibling's parent.
func (g *Graph) InsertGroupAfter(title string, sibling ID) (*Group, error) {
	parent, ok := g.ParentOf(sibling)
	if !ok {
		return nil, fmt.Errorf("group sibling %s: %w", sibling, ErrNotFound)
	}
	return g.InsertGroup(title, parent, g.IndexInParent(sibling)+1)
}
