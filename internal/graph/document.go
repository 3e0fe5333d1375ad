package graph

import "fmt"

// Document is the serializable form of a Graph.
type Document struct {
	Name               string               `json:"name" yaml:"name"`
	Policy             Policy               `json:"policy" yaml:"policy"`
	Sections           []*Section           `json:"sections" yaml:"sections"`
	Groups             []*Group             `json:"groups,omitempty" yaml:"groups,omitempty"`
	Declarations       []*Declaration       `json:"declarations,omitempty" yaml:"declarations,omitempty"`
	PortalDeclarations []*PortalDeclaration `json:"portal_declarations,omitempty" yaml:"portal_declarations,omitempty"`
	Nodes              []*Node              `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Wires              []*Wire              `json:"wires,omitempty" yaml:"wires,omitempty"`
	StickyNotes        []*StickyNote        `json:"sticky_notes,omitempty" yaml:"sticky_notes,omitempty"`
	Placemats          []*Placemat          `json:"placemats,omitempty" yaml:"placemats,omitempty"`
}

// Export returns a detached Document describing the graph. Sections and
// groups carry their ordered items; everything else is in sequence order.
func (g *Graph) Export() *Document {
	doc := &Document{Name: g.Name, Policy: g.Policy}

	for _, s := range g.Sections() {
		c := *s
		c.Items = append([]ID(nil), s.Items...)
		doc.Sections = append(doc.Sections, &c)
	}
	for _, gr := range g.Groups() {
		c := *gr
		c.Items = append([]ID(nil), gr.Items...)
		doc.Groups = append(doc.Groups, &c)
	}
	for _, d := range g.Declarations() {
		doc.Declarations = append(doc.Declarations, d.Clone())
	}
	for _, p := range g.PortalDeclarations() {
		c := *p
		doc.PortalDeclarations = append(doc.PortalDeclarations, &c)
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, n.Clone())
	}
	for _, w := range g.Wires() {
		doc.Wires = append(doc.Wires, w.Clone())
	}
	for _, s := range g.StickyNotes() {
		doc.StickyNotes = append(doc.StickyNotes, s.Clone())
	}
	for _, p := range g.Placemats() {
		doc.Placemats = append(doc.Placemats, p.Clone())
	}
	return doc
}

// FromDocument builds a graph from a Document. Identities are preserved.
// Declarations and groups are placed following the item order of their
// section or group; items that no container lists are appended to the
// container named by their Parent field.
func FromDocument(doc *Document) (*Graph, error) {
	g := New(doc.Name)
	g.Policy = doc.Policy

	groups := make(map[ID]*Group, len(doc.Groups))
	for _, gr := range doc.Groups {
		groups[gr.ID] = gr
	}
	decls := make(map[ID]*Declaration, len(doc.Declarations))
	for _, d := range doc.Declarations {
		decls[d.ID] = d
	}

	var place func(parent ID, items []ID) error
	place = func(parent ID, items []ID) error {
		for _, id := range items {
			if gr, ok := groups[id]; ok {
				delete(groups, id)
				c := &Group{ID: gr.ID, Title: gr.Title, Expanded: gr.Expanded, Parent: parent}
				if err := g.putGroupLocked(c); err != nil {
					return err
				}
				if err := place(c.ID, gr.Items); err != nil {
					return err
				}
				continue
			}
			if d, ok := decls[id]; ok {
				delete(decls, id)
				c := d.Clone()
				c.Parent = parent
				if err := g.AddDeclaration(c); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("item %s of %s: %w", id, parent, ErrNotFound)
		}
		return nil
	}

	for _, s := range doc.Sections {
		g.mu.Lock()
		g.putSection(&Section{ID: s.ID, Name: s.Name})
		g.mu.Unlock()
	}
	for _, s := range doc.Sections {
		if err := place(s.ID, s.Items); err != nil {
			return nil, fmt.Errorf("loading section %q: %w", s.Name, err)
		}
	}
	for _, gr := range doc.Groups {
		if _, pending := groups[gr.ID]; !pending {
			continue
		}
		delete(groups, gr.ID)
		c := &Group{ID: gr.ID, Title: gr.Title, Expanded: gr.Expanded, Parent: gr.Parent}
		if err := g.putGroupLocked(c); err != nil {
			return nil, fmt.Errorf("loading group %q: %w", gr.Title, err)
		}
		if err := place(c.ID, gr.Items); err != nil {
			return nil, fmt.Errorf("loading group %q: %w", gr.Title, err)
		}
	}
	for _, d := range doc.Declarations {
		if _, pending := decls[d.ID]; !pending {
			continue
		}
		if err := g.AddDeclaration(d.Clone()); err != nil {
			return nil, fmt.Errorf("loading declaration %q: %w", d.Name, err)
		}
	}

	for _, p := range doc.PortalDeclarations {
		c := *p
		if err := g.AddPortalDeclaration(&c); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Nodes {
		if err := g.AddNode(n.Clone()); err != nil {
			return nil, err
		}
	}
	for _, w := range doc.Wires {
		// Loaded as-is so that Validate can report broken endpoints.
		if err := g.putWireLocked(w.Clone()); err != nil {
			return nil, fmt.Errorf("loading wire %s: %w", w.ID, err)
		}
	}
	for _, s := range doc.StickyNotes {
		if err := g.AddStickyNote(s.Clone()); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.Placemats {
		if err := g.AddPlacemat(p.Clone()); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) putGroupLocked(gr *Group) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.putGroup(gr, -1)
}

func (g *Graph) putWireLocked(w *Wire) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[w.ID]; ok {
		return ErrDuplicateID
	}
	g.wires[w.ID] = w
	g.stamp(w.ID)
	return nil
}
