// Package graph provides the in-memory node-graph arena for graphclip.
//
// A Graph owns every element of one document in ID-keyed maps. Each element
// also receives a monotonically increasing sequence number when it is added;
// the sequence is the stable secondary ordering key used wherever a
// deterministic order over a set of elements is needed. Secondary indexes on
// portal declarations and nested container sub-nodes keep the lookups the
// copy/paste engine performs proportional to the result size.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when a referenced element does not exist.
	ErrNotFound = errors.New("element not found")

	// ErrPortNotFound is returned when a wire endpoint names a missing port.
	ErrPortNotFound = errors.New("port not found")

	// ErrDuplicateID is returned when an element is added twice.
	ErrDuplicateID = errors.New("duplicate element id")
)

// Policy holds the destination-side paste eligibility rules of a graph.
type Policy struct {
	// AllowPortals permits portal nodes.
	AllowPortals bool `json:"allow_portals" yaml:"allow_portals"`

	// AllowSubgraphs permits subgraph reference nodes.
	AllowSubgraphs bool `json:"allow_subgraphs" yaml:"allow_subgraphs"`

	// DeclarationScopes lists the declaration scopes the graph accepts.
	// An empty list accepts every scope.
	DeclarationScopes []DeclarationScope `json:"declaration_scopes,omitempty" yaml:"declaration_scopes,omitempty"`
}

// DefaultPolicy accepts every kind of element.
func DefaultPolicy() Policy {
	return Policy{AllowPortals: true, AllowSubgraphs: true}
}

// Graph is a node-graph document.
//
// Mutations are expected to be serialized by the host; the read lock only
// protects readers that run while no mutation is in progress.
type Graph struct {
	mu sync.RWMutex

	// Name is the document name.
	Name string

	// Policy is the paste eligibility policy.
	Policy Policy

	seq   uint64
	seqOf map[ID]uint64

	sections     map[ID]*Section
	sectionOrder []ID
	groups       map[ID]*Group
	declarations map[ID]*Declaration
	portalDecls  map[ID]*PortalDeclaration
	nodes        map[ID]*Node
	nodeOrder    []ID
	wires        map[ID]*Wire
	notes        map[ID]*StickyNote
	placemats    []*Placemat

	// Secondary indexes kept in sync by the add/remove helpers.
	nested   map[ID]*Node
	portals  map[ID]map[ID]*Node
	parentOf map[ID]ID
}

// New creates an empty graph with the default policy.
func New(name string) *Graph {
	return &Graph{
		Name:         name,
		Policy:       DefaultPolicy(),
		seqOf:        make(map[ID]uint64),
		sections:     make(map[ID]*Section),
		groups:       make(map[ID]*Group),
		declarations: make(map[ID]*Declaration),
		portalDecls:  make(map[ID]*PortalDeclaration),
		nodes:        make(map[ID]*Node),
		wires:        make(map[ID]*Wire),
		notes:        make(map[ID]*StickyNote),
		nested:       make(map[ID]*Node),
		portals:      make(map[ID]map[ID]*Node),
		parentOf:     make(map[ID]ID),
	}
}

func (g *Graph) stamp(id ID) {
	g.seq++
	g.seqOf[id] = g.seq
}

// Seq returns the insertion sequence of an element, or 0 if unknown.
func (g *Graph) Seq(id ID) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seqOf[id]
}

// Contains reports whether any element with the given ID exists.
func (g *Graph) Contains(id ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.seqOf[id]
	return ok
}

// Lookup returns the element with the given ID.
func (g *Graph) Lookup(id ID) (Element, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if n, ok := g.nested[id]; ok {
		return n, true
	}
	if w, ok := g.wires[id]; ok {
		return w, true
	}
	if d, ok := g.declarations[id]; ok {
		return d, true
	}
	if p, ok := g.portalDecls[id]; ok {
		return p, true
	}
	if gr, ok := g.groups[id]; ok {
		return gr, true
	}
	if s, ok := g.sections[id]; ok {
		return s, true
	}
	if n, ok := g.notes[id]; ok {
		return n, true
	}
	for _, p := range g.placemats {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Stats returns a summary of graph size.
func (g *Graph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return map[string]int{
		"sections":            len(g.sections),
		"groups":              len(g.groups),
		"declarations":        len(g.declarations),
		"portal_declarations": len(g.portalDecls),
		"nodes":               len(g.nested),
		"wires":               len(g.wires),
		"sticky_notes":        len(g.notes),
		"placemats":           len(g.placemats),
	}
}

// Sections

// AddSection appends a new, empty section.
func (g *Graph) AddSection(name string) *Section {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := &Section{ID: NewID(), Name: name}
	g.putSection(s)
	return s
}

func (g *Graph) putSection(s *Section) {
	g.sections[s.ID] = s
	g.sectionOrder = append(g.sectionOrder, s.ID)
	g.stamp(s.ID)
}

// Sections returns all sections in order.
func (g *Graph) Sections() []*Section {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Section, 0, len(g.sectionOrder))
	for _, id := range g.sectionOrder {
		result = append(result, g.sections[id])
	}
	return result
}

// Section returns the section with the given ID, or nil.
func (g *Graph) Section(id ID) *Section {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sections[id]
}

// SectionByName returns the first section with the given name, or nil.
func (g *Graph) SectionByName(name string) *Section {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range g.sectionOrder {
		if g.sections[id].Name == name {
			return g.sections[id]
		}
	}
	return nil
}

// FirstSection returns the first section, or nil if the graph has none.
func (g *Graph) FirstSection() *Section {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.sectionOrder) == 0 {
		return nil
	}
	return g.sections[g.sectionOrder[0]]
}

// Groups

// AddGroup creates a group and appends it to the given section or group.
func (g *Graph) AddGroup(title string, parent ID) (*Group, error) {
	return g.InsertGroup(title, parent, -1)
}

// InsertGroup creates a group at index within parent. A negative or
// out-of-range index appends.
func (g *Graph) InsertGroup(title string, parent ID, index int) (*Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gr := &Group{ID: NewID(), Title: title, Parent: parent}
	if err := g.putGroup(gr, index); err != nil {
		return nil, err
	}
	return gr, nil
}

func (g *Graph) putGroup(gr *Group, index int) error {
	if _, ok := g.seqOf[gr.ID]; ok {
		return fmt.Errorf("adding group %s: %w", gr.ID, ErrDuplicateID)
	}
	items, err := g.itemsOf(gr.Parent)
	if err != nil {
		return fmt.Errorf("adding group %q: %w", gr.Title, err)
	}
	g.groups[gr.ID] = gr
	*items = insertAt(*items, gr.ID, index)
	g.parentOf[gr.ID] = gr.Parent
	g.stamp(gr.ID)
	return nil
}

// Group returns the group with the given ID, or nil.
func (g *Graph) Group(id ID) *Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.groups[id]
}

// Groups returns all groups ordered by insertion sequence.
func (g *Graph) Groups() []*Group {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Group, 0, len(g.groups))
	for _, gr := range g.groups {
		result = append(result, gr)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// Items returns the ordered item IDs of a section or group.
func (g *Graph) Items(container ID) []ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	items, err := g.itemsOf(container)
	if err != nil {
		return nil
	}
	return append([]ID(nil), (*items)...)
}

// IndexInParent returns the position of an item inside its section or group,
// or -1.
func (g *Graph) IndexInParent(id ID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	parent, ok := g.parentOf[id]
	if !ok {
		return -1
	}
	items, err := g.itemsOf(parent)
	if err != nil {
		return -1
	}
	for i, item := range *items {
		if item == id {
			return i
		}
	}
	return -1
}

// ParentOf returns the section or group owning a declaration or group.
func (g *Graph) ParentOf(id ID) (ID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.parentOf[id]
	return p, ok
}

// SectionOf walks up the parent chain and returns the owning section.
func (g *Graph) SectionOf(id ID) *Section {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sectionOf(id)
}

func (g *Graph) sectionOf(id ID) *Section {
	for hops := 0; hops <= len(g.groups)+1; hops++ {
		if s, ok := g.sections[id]; ok {
			return s
		}
		parent, ok := g.parentOf[id]
		if !ok {
			return nil
		}
		id = parent
	}
	return nil
}

// GroupPath returns the titles from the owning section down to the group.
func (g *Graph) GroupPath(id ID) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var path []string
	for hops := 0; hops <= len(g.groups)+1; hops++ {
		if s, ok := g.sections[id]; ok {
			path = append(path, s.Name)
			break
		}
		gr, ok := g.groups[id]
		if !ok {
			return nil
		}
		path = append(path, gr.Title)
		id = gr.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Depth returns the number of groups above the given group (0 for a group
// directly under a section), or -1 if the group is unknown.
func (g *Graph) Depth(id ID) int {
	path := g.GroupPath(id)
	if path == nil {
		return -1
	}
	return len(path) - 2
}

// IsAncestor reports whether ancestor is a (transitive) parent of id.
func (g *Graph) IsAncestor(ancestor, id ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for hops := 0; hops <= len(g.groups)+1; hops++ {
		parent, ok := g.parentOf[id]
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		id = parent
	}
	return false
}

// SubGroups returns the direct sub-groups of a section or group in order.
func (g *Graph) SubGroups(container ID) []*Group {
	g.mu.RLock()
	defer g.mu.RUnlock()

	items, err := g.itemsOf(container)
	if err != nil {
		return nil
	}
	var result []*Group
	for _, id := range *items {
		if gr, ok := g.groups[id]; ok {
			result = append(result, gr)
		}
	}
	return result
}

// ExpandAncestors marks every group above the given item as expanded.
func (g *Graph) ExpandAncestors(id ID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for hops := 0; hops <= len(g.groups)+1; hops++ {
		parent, ok := g.parentOf[id]
		if !ok {
			return
		}
		gr, ok := g.groups[parent]
		if !ok {
			return
		}
		gr.Expanded = true
		id = parent
	}
}

// MoveItem detaches a declaration or group from its parent and inserts it
// into container at index.
func (g *Graph) MoveItem(id, container ID, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.parentOf[id]; !ok {
		return fmt.Errorf("moving %s: %w", id, ErrNotFound)
	}
	dst, err := g.itemsOf(container)
	if err != nil {
		return fmt.Errorf("moving %s: %w", id, err)
	}
	if src, err := g.itemsOf(g.parentOf[id]); err == nil {
		*src = removeID(*src, id)
	}
	*dst = insertAt(*dst, id, index)
	g.parentOf[id] = container
	if d, ok := g.declarations[id]; ok {
		d.Parent = container
	}
	if gr, ok := g.groups[id]; ok {
		gr.Parent = container
	}
	return nil
}

func (g *Graph) itemsOf(container ID) (*[]ID, error) {
	if s, ok := g.sections[container]; ok {
		return &s.Items, nil
	}
	if gr, ok := g.groups[container]; ok {
		return &gr.Items, nil
	}
	return nil, fmt.Errorf("container %s: %w", container, ErrNotFound)
}

// Declarations

// AddDeclaration adds a declaration, appending it to its Parent container.
func (g *Graph) AddDeclaration(d *Declaration) error {
	return g.InsertDeclaration(d, -1)
}

// InsertDeclaration adds a declaration at index within its Parent container.
func (g *Graph) InsertDeclaration(d *Declaration, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[d.ID]; ok {
		return fmt.Errorf("adding declaration %s: %w", d.ID, ErrDuplicateID)
	}
	items, err := g.itemsOf(d.Parent)
	if err != nil {
		return fmt.Errorf("adding declaration %q: %w", d.Name, err)
	}
	g.declarations[d.ID] = d
	*items = insertAt(*items, d.ID, index)
	g.parentOf[d.ID] = d.Parent
	g.stamp(d.ID)
	return nil
}

// Declaration returns the declaration with the given ID, or nil.
func (g *Graph) Declaration(id ID) *Declaration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.declarations[id]
}

// Declarations returns all declarations ordered by insertion sequence.
func (g *Graph) Declarations() []*Declaration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Declaration, 0, len(g.declarations))
	for _, d := range g.declarations {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// DeclarationByExternalRef returns the first declaration that refers to the
// given external resource, or nil.
func (g *Graph) DeclarationByExternalRef(ref string) *Declaration {
	if ref == "" {
		return nil
	}
	for _, d := range g.Declarations() {
		if d.ExternalRef == ref {
			return d
		}
	}
	return nil
}

// UniqueDeclarationName returns name, or name suffixed with the lowest
// counter that no declaration of the graph uses yet.
func (g *Graph) UniqueDeclarationName(name string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.uniqueDeclarationName(name)
}

func (g *Graph) uniqueDeclarationName(name string) string {
	taken := make(map[string]bool, len(g.declarations))
	for _, d := range g.declarations {
		taken[d.Name] = true
	}
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Portal declarations

// AddPortalDeclaration registers a portal declaration.
func (g *Graph) AddPortalDeclaration(p *PortalDeclaration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[p.ID]; ok {
		return fmt.Errorf("adding portal declaration %s: %w", p.ID, ErrDuplicateID)
	}
	g.portalDecls[p.ID] = p
	g.stamp(p.ID)
	return nil
}

// PortalDeclaration returns the portal declaration with the given ID, or nil.
func (g *Graph) PortalDeclaration(id ID) *PortalDeclaration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.portalDecls[id]
}

// PortalDeclarations returns all portal declarations ordered by sequence.
func (g *Graph) PortalDeclarations() []*PortalDeclaration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*PortalDeclaration, 0, len(g.portalDecls))
	for _, p := range g.portalDecls {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// PortalsOf returns the portal nodes bound to a portal declaration.
func (g *Graph) PortalsOf(decl ID) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	bound := g.portals[decl]
	result := make([]*Node, 0, len(bound))
	for _, n := range bound {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// PortalNodes returns every portal node of the graph ordered by sequence.
func (g *Graph) PortalNodes() []*Node {
	var result []*Node
	for _, n := range g.AllNodes() {
		if n.IsPortal() {
			result = append(result, n)
		}
	}
	return result
}

// BindPortal attaches a portal node to a portal declaration. Nodes that are
// not portals are left untouched.
func (g *Graph) BindPortal(n *Node, decl ID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n.Portal == nil {
		return
	}
	if _, ok := g.nested[n.ID]; ok {
		delete(g.portals[n.Portal.Declaration], n.ID)
	}
	n.Portal.Declaration = decl
	if _, ok := g.nested[n.ID]; ok {
		g.indexPortal(n)
	}
}

func (g *Graph) indexPortal(n *Node) {
	if n.Portal == nil {
		return
	}
	if g.portals[n.Portal.Declaration] == nil {
		g.portals[n.Portal.Declaration] = make(map[ID]*Node)
	}
	g.portals[n.Portal.Declaration][n.ID] = n
}

// Nodes

// AddNode adds a top-level node together with its nested sub-nodes.
func (g *Graph) AddNode(n *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var dup error
	Walk(n, func(sub *Node) {
		if _, ok := g.seqOf[sub.ID]; ok && dup == nil {
			dup = fmt.Errorf("adding node %s: %w", sub.ID, ErrDuplicateID)
		}
	})
	if dup != nil {
		return dup
	}

	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	Walk(n, func(sub *Node) {
		g.nested[sub.ID] = sub
		g.indexPortal(sub)
		g.stamp(sub.ID)
	})
	return nil
}

// Node returns the node (top-level or nested) with the given ID, or nil.
func (g *Graph) Node(id ID) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nested[id]
}

// Nodes returns the top-level nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		result = append(result, g.nodes[id])
	}
	return result
}

// AllNodes returns top-level and nested nodes, depth-first in insertion order.
func (g *Graph) AllNodes() []*Node {
	var result []*Node
	for _, n := range g.Nodes() {
		Walk(n, func(sub *Node) { result = append(result, sub) })
	}
	return result
}

// IsTopLevel reports whether the node is not nested in a container.
func (g *Graph) IsTopLevel(id ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// RemoveNode removes a top-level node, its sub-nodes and every wire touching
// any of them. Returns true if the node existed.
func (g *Graph) RemoveNode(id ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	delete(g.nodes, id)
	g.nodeOrder = removeID(g.nodeOrder, id)

	gone := make(map[ID]bool)
	Walk(n, func(sub *Node) {
		gone[sub.ID] = true
		delete(g.nested, sub.ID)
		delete(g.seqOf, sub.ID)
		if sub.Portal != nil {
			delete(g.portals[sub.Portal.Declaration], sub.ID)
		}
	})
	for wid, w := range g.wires {
		if gone[w.From.Node] || gone[w.To.Node] {
			delete(g.wires, wid)
			delete(g.seqOf, wid)
		}
	}
	return true
}

// Wires

// AddWire connects two ports. Both endpoints must resolve to existing ports.
func (g *Graph) AddWire(w *Wire) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[w.ID]; ok {
		return fmt.Errorf("adding wire %s: %w", w.ID, ErrDuplicateID)
	}
	for _, end := range []PortRef{w.From, w.To} {
		n, ok := g.nested[end.Node]
		if !ok {
			return fmt.Errorf("wire endpoint node %s: %w", end.Node, ErrNotFound)
		}
		if !n.HasPort(end.Port) {
			return fmt.Errorf("wire endpoint %s.%s: %w", end.Node, end.Port, ErrPortNotFound)
		}
	}
	g.wires[w.ID] = w
	g.stamp(w.ID)
	return nil
}

// Wire returns the wire with the given ID, or nil.
func (g *Graph) Wire(id ID) *Wire {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.wires[id]
}

// Wires returns all wires ordered by insertion sequence.
func (g *Graph) Wires() []*Wire {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Wire, 0, len(g.wires))
	for _, w := range g.wires {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// WiresOf returns the wires touching the given node.
func (g *Graph) WiresOf(node ID) []*Wire {
	var result []*Wire
	for _, w := range g.Wires() {
		if w.From.Node == node || w.To.Node == node {
			result = append(result, w)
		}
	}
	return result
}

// Sticky notes and placemats

// AddStickyNote adds a sticky note.
func (g *Graph) AddStickyNote(s *StickyNote) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[s.ID]; ok {
		return fmt.Errorf("adding sticky note %s: %w", s.ID, ErrDuplicateID)
	}
	g.notes[s.ID] = s
	g.stamp(s.ID)
	return nil
}

// StickyNotes returns all sticky notes ordered by insertion sequence.
func (g *Graph) StickyNotes() []*StickyNote {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*StickyNote, 0, len(g.notes))
	for _, s := range g.notes {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return g.seqOf[result[i].ID] < g.seqOf[result[j].ID]
	})
	return result
}

// AddPlacemat appends a placemat on top of the existing stacking order.
func (g *Graph) AddPlacemat(p *Placemat) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seqOf[p.ID]; ok {
		return fmt.Errorf("adding placemat %s: %w", p.ID, ErrDuplicateID)
	}
	g.placemats = append(g.placemats, p)
	g.stamp(p.ID)
	return nil
}

// Placemats returns the placemats in stacking order, bottom first.
func (g *Graph) Placemats() []*Placemat {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Placemat(nil), g.placemats...)
}

// Eligibility

// CanPasteNode reports whether the graph policy accepts the node.
func (g *Graph) CanPasteNode(n *Node) bool {
	if n.IsPortal() && !g.Policy.AllowPortals {
		return false
	}
	if n.IsSubgraph() && !g.Policy.AllowSubgraphs {
		return false
	}
	return true
}

// CanPasteDeclaration reports whether the graph policy accepts the declaration.
func (g *Graph) CanPasteDeclaration(d *Declaration) bool {
	if len(g.Policy.DeclarationScopes) == 0 {
		return true
	}
	for _, s := range g.Policy.DeclarationScopes {
		if s == d.Scope {
			return true
		}
	}
	return false
}

func insertAt(items []ID, id ID, index int) []ID {
	if index < 0 || index >= len(items) {
		return append(items, id)
	}
	items = append(items, NilID)
	copy(items[index+1:], items[index:])
	items[index] = id
	return items
}

func removeID(items []ID, id ID) []ID {
	for i, item := range items {
		if item == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
