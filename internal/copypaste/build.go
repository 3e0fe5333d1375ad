package copypaste

import (
	"math"
	"sort"

	"github.com/Benny93/graphclip/internal/graph"
)

// Build captures a closure of g into a Snapshot.
//
// Elements are ordered by their insertion sequence in g, groups by depth
// first so that a group never precedes its parent, and declarations that
// live in a copied group by their position in that group. Every captured
// element receives the pre-copy hook before it is frozen; the matching
// post-copy hook runs when the Snapshot is closed.
func Build(g *graph.Graph, closure []graph.Element, opts ...Option) *Snapshot {
	o := newOptions(opts)
	b := &builder{g: g, explicit: make(map[graph.ID]bool)}
	b.partition(closure)

	implicit := b.implicitDeclarations()
	portalDecls := b.portalDeclarations()
	anchor := b.anchor()
	groups := b.groupEntries()
	decls := b.declarationEntries()

	var owed []graph.Element
	for _, n := range b.nodes {
		owed = append(owed, n)
	}
	for _, w := range b.wires {
		owed = append(owed, w)
	}
	for _, d := range b.decls {
		owed = append(owed, d)
	}
	for _, d := range implicit {
		owed = append(owed, d)
	}
	for _, gr := range b.groups {
		owed = append(owed, gr)
	}
	for _, s := range b.notes {
		owed = append(owed, s)
	}
	for _, p := range b.placemats {
		owed = append(owed, p)
	}
	for _, e := range owed {
		invokeHook(o.logger, "before_copy", e, o.hooks.BeforeCopy)
	}

	s := &Snapshot{
		owed:   owed,
		hooks:  o.hooks,
		logger: o.logger,
		data: snapshotData{
			Format:             SnapshotFormat,
			Anchor:             anchor,
			Groups:             groups,
			PortalDeclarations: portalDecls,
		},
	}
	for _, n := range b.nodes {
		s.data.Nodes = append(s.data.Nodes, n.Clone())
	}
	for _, w := range b.wires {
		s.data.Wires = append(s.data.Wires, w.Clone())
	}
	for _, e := range decls {
		e.Declaration = e.Declaration.Clone()
		s.data.Declarations = append(s.data.Declarations, e)
	}
	for _, d := range implicit {
		s.data.ImplicitDeclarations = append(s.data.ImplicitDeclarations, DeclarationEntry{
			Declaration: d.Clone(),
			GroupIndex:  -1,
			Parent:      d.Parent,
			Index:       g.IndexInParent(d.ID),
			Section:     sectionName(g, d.ID),
		})
	}
	for _, n := range b.notes {
		s.data.StickyNotes = append(s.data.StickyNotes, n.Clone())
	}
	for _, p := range b.placemats {
		s.data.Placemats = append(s.data.Placemats, p.Clone())
	}
	return s
}

type builder struct {
	g *graph.Graph

	nodes     []*graph.Node
	wires     []*graph.Wire
	decls     []*graph.Declaration
	groups    []*graph.Group
	notes     []*graph.StickyNote
	placemats []*graph.Placemat

	explicit map[graph.ID]bool
}

func (b *builder) partition(closure []graph.Element) {
	inClosure := make(map[graph.ID]bool, len(closure))
	for _, e := range closure {
		inClosure[e.ElementID()] = true
	}

	// Sub-nodes travel with their container.
	nestedInClosure := make(map[graph.ID]bool)
	for _, e := range closure {
		if n, ok := e.(*graph.Node); ok {
			if c, ok := graph.AsContainer(n); ok {
				for _, sub := range c.SubElements() {
					graph.Walk(sub, func(x *graph.Node) { nestedInClosure[x.ID] = true })
				}
			}
		}
	}

	for _, e := range closure {
		switch el := e.(type) {
		case *graph.Node:
			if !nestedInClosure[el.ID] {
				b.nodes = append(b.nodes, el)
			}
		case *graph.Wire:
			b.wires = append(b.wires, el)
		case *graph.Declaration:
			b.decls = append(b.decls, el)
			b.explicit[el.ID] = true
		case *graph.Group:
			b.groups = append(b.groups, el)
		case *graph.StickyNote:
			b.notes = append(b.notes, el)
		case *graph.Placemat:
			b.placemats = append(b.placemats, el)
		}
	}

	bySeq := func(id func(i int) graph.ID) func(i, j int) bool {
		return func(i, j int) bool { return b.g.Seq(id(i)) < b.g.Seq(id(j)) }
	}
	sort.SliceStable(b.nodes, bySeq(func(i int) graph.ID { return b.nodes[i].ID }))
	sort.SliceStable(b.wires, bySeq(func(i int) graph.ID { return b.wires[i].ID }))
	sort.SliceStable(b.decls, bySeq(func(i int) graph.ID { return b.decls[i].ID }))
	sort.SliceStable(b.notes, bySeq(func(i int) graph.ID { return b.notes[i].ID }))

	stack := make(map[graph.ID]int)
	for i, p := range b.g.Placemats() {
		stack[p.ID] = i
	}
	sort.SliceStable(b.placemats, func(i, j int) bool {
		return stack[b.placemats[i].ID] < stack[b.placemats[j].ID]
	})

	depth := make(map[graph.ID]int, len(b.groups))
	for _, gr := range b.groups {
		depth[gr.ID] = b.g.Depth(gr.ID)
	}
	sort.SliceStable(b.groups, func(i, j int) bool {
		di, dj := depth[b.groups[i].ID], depth[b.groups[j].ID]
		if di != dj {
			return di < dj
		}
		return b.g.Seq(b.groups[i].ID) < b.g.Seq(b.groups[j].ID)
	})
}

// implicitDeclarations returns the declarations referenced by copied
// variable nodes, nested ones included, that were not copied explicitly.
func (b *builder) implicitDeclarations() []*graph.Declaration {
	seen := make(map[graph.ID]bool)
	var out []*graph.Declaration
	for _, n := range b.nodes {
		graph.Walk(n, func(x *graph.Node) {
			if !x.IsVariable() || b.explicit[x.Declaration] || seen[x.Declaration] {
				return
			}
			seen[x.Declaration] = true
			if d := b.g.Declaration(x.Declaration); d != nil {
				out = append(out, d)
			}
		})
	}
	return out
}

func (b *builder) portalDeclarations() []*graph.PortalDeclaration {
	seen := make(map[graph.ID]bool)
	var out []*graph.PortalDeclaration
	for _, n := range b.nodes {
		graph.Walk(n, func(x *graph.Node) {
			if !x.IsPortal() || seen[x.Portal.Declaration] {
				return
			}
			seen[x.Portal.Declaration] = true
			if p := b.g.PortalDeclaration(x.Portal.Declaration); p != nil {
				c := *p
				out = append(out, &c)
			}
		})
	}
	return out
}

func (b *builder) anchor() graph.Vec2 {
	minX, minY := math.Inf(1), math.Inf(1)
	visit := func(p graph.Vec2) {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
	}
	for _, n := range b.nodes {
		if n.Movable {
			visit(n.Position)
		}
	}
	for _, s := range b.notes {
		visit(s.Rect.Origin())
	}
	for _, p := range b.placemats {
		visit(p.Rect.Origin())
	}
	if math.IsInf(minX, 1) {
		return graph.Vec2{}
	}
	return graph.Vec2{X: minX, Y: minY}
}

func (b *builder) groupEntries() []GroupEntry {
	out := make([]GroupEntry, 0, len(b.groups))
	for _, gr := range b.groups {
		out = append(out, GroupEntry{
			ID:       gr.ID,
			Path:     b.g.GroupPath(gr.ID),
			Expanded: gr.Expanded,
		})
	}
	return out
}

// declarationEntries classifies explicit declarations by whether their
// parent group is part of the copy. Declarations outside copied groups come
// first, in sequence order; the others follow grouped by copied group and
// ordered by their original index inside it.
func (b *builder) declarationEntries() []DeclarationEntry {
	groupIndex := make(map[graph.ID]int, len(b.groups))
	for i, gr := range b.groups {
		groupIndex[gr.ID] = i
	}

	out := make([]DeclarationEntry, 0, len(b.decls))
	for _, d := range b.decls {
		e := DeclarationEntry{
			Declaration: d,
			GroupIndex:  -1,
			Index:       b.g.IndexInParent(d.ID),
			Section:     sectionName(b.g, d.ID),
		}
		if i, ok := groupIndex[d.Parent]; ok {
			e.GroupIndex = i
		} else {
			e.Parent = d.Parent
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := out[i].GroupIndex, out[j].GroupIndex
		if gi != gj {
			return gi < gj
		}
		if gi < 0 {
			return false
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func sectionName(g *graph.Graph, id graph.ID) string {
	if s := g.SectionOf(id); s != nil {
		return s.Name
	}
	return ""
}
