// Package graph provides the element model for graphclip.
//
// It defines the entity types a node-graph document is made of (nodes,
// wires, variable declarations, portal declarations, sections, groups,
// sticky notes and placemats) and the identity scheme they use to refer to
// each other. Elements never hold pointers to other elements; every cross
// reference is an ID resolved through the owning Graph.
package graph

import (
	"github.com/google/uuid"
)

// ID is the stable 128-bit identity of a graph element.
type ID = uuid.UUID

// NilID is the zero identity. It never names an element.
var NilID = uuid.Nil

// NewID mints a fresh random identity.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the canonical textual form of an identity.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// ElementKind identifies the concrete type of a graph element.
type ElementKind string

const (
	KindNode              ElementKind = "node"
	KindWire              ElementKind = "wire"
	KindDeclaration       ElementKind = "declaration"
	KindPortalDeclaration ElementKind = "portal_declaration"
	KindSection           ElementKind = "section"
	KindGroup             ElementKind = "group"
	KindStickyNote        ElementKind = "sticky_note"
	KindPlacemat          ElementKind = "placemat"
)

// Element is implemented by every addressable graph element.
type Element interface {
	// ElementID returns the element's identity.
	ElementID() ID

	// Kind returns the element's concrete kind.
	Kind() ElementKind

	// IsCopiable reports whether the element may take part in a copy.
	IsCopiable() bool
}

// Vec2 is a 2D position in graph space.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v translated by d.
func (v Vec2) Add(d Vec2) Vec2 {
	return Vec2{X: v.X + d.X, Y: v.Y + d.Y}
}

// Sub returns the vector from o to v.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Rect is a positioned, sized rectangle.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Origin returns the top-left corner of the rectangle.
func (r Rect) Origin() Vec2 {
	return Vec2{X: r.X, Y: r.Y}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec2) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// NodeType is the label of a node model.
type NodeType string

const (
	NodeOperation NodeType = "operation"
	NodeConstant  NodeType = "constant"
	NodeVariable  NodeType = "variable"
	NodePortal    NodeType = "portal"
	NodeContext   NodeType = "context"
	NodeBlock     NodeType = "block"
	NodeSubgraph  NodeType = "subgraph"
)

// PortDirection is the data-flow direction of a port.
type PortDirection string

const (
	PortInput  PortDirection = "input"
	PortOutput PortDirection = "output"
)

// Port is a connection point on a node. Name is unique within its node.
type Port struct {
	Name      string        `json:"name" yaml:"name"`
	Direction PortDirection `json:"direction" yaml:"direction"`
	DataType  string        `json:"data_type,omitempty" yaml:"data_type,omitempty"`
}

// PortalDirection tells whether a portal receives (entry) or emits (exit) a value.
type PortalDirection string

const (
	PortalEntry PortalDirection = "entry"
	PortalExit  PortalDirection = "exit"
)

// PortalBinding links a portal node to its shared portal declaration.
type PortalBinding struct {
	Declaration ID              `json:"declaration" yaml:"declaration"`
	Direction   PortalDirection `json:"direction" yaml:"direction"`
}

// Node is a positioned graph vertex.
type Node struct {
	// ID is the unique identity of the node.
	ID ID `json:"id" yaml:"id"`

	// Type is the node model label.
	Type NodeType `json:"type" yaml:"type"`

	// Title is the display title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Position is the node's location in graph space.
	Position Vec2 `json:"position" yaml:"position"`

	// Movable is false for nodes that are laid out by their container.
	Movable bool `json:"movable" yaml:"movable"`

	// Protected nodes can be neither copied nor deleted.
	Protected bool `json:"protected,omitempty" yaml:"protected,omitempty"`

	// Ports lists the node's ports, addressed by unique name.
	Ports []Port `json:"ports,omitempty" yaml:"ports,omitempty"`

	// Declaration is the variable declaration referenced by variable nodes.
	Declaration ID `json:"declaration,omitempty" yaml:"declaration,omitempty"`

	// Portal is set on portal nodes.
	Portal *PortalBinding `json:"portal,omitempty" yaml:"portal,omitempty"`

	// Subgraph is the referenced subgraph asset for subgraph nodes.
	Subgraph string `json:"subgraph,omitempty" yaml:"subgraph,omitempty"`

	// RequiresContainer marks nodes that only exist inside a container node.
	RequiresContainer bool `json:"requires_container,omitempty" yaml:"requires_container,omitempty"`

	// Children holds the sub-nodes of a container node, in order.
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`

	// Properties holds additional node settings.
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ElementID implements Element.
func (n *Node) ElementID() ID { return n.ID }

// Kind implements Element.
func (n *Node) Kind() ElementKind { return KindNode }

// IsCopiable implements Element.
func (n *Node) IsCopiable() bool { return !n.Protected }

// IsVariable reports whether the node references a variable declaration.
func (n *Node) IsVariable() bool {
	return n.Type == NodeVariable && n.Declaration != NilID
}

// IsPortal reports whether the node is bound to a portal declaration.
func (n *Node) IsPortal() bool {
	return n.Portal != nil
}

// IsSubgraph reports whether the node references a subgraph.
func (n *Node) IsSubgraph() bool {
	return n.Type == NodeSubgraph
}

// HasPort reports whether the node exposes a port with the given name.
func (n *Node) HasPort(name string) bool {
	for _, p := range n.Ports {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HasSingleOutputPort reports whether the node's only port is an output.
func (n *Node) HasSingleOutputPort() bool {
	return len(n.Ports) == 1 && n.Ports[0].Direction == PortOutput
}

// AllowsDeclarationSharing reports whether another portal with the same
// direction may be bound to this portal's declaration. Only single-output
// portals (exits) may share; every other portal is unique per direction.
func (n *Node) AllowsDeclarationSharing() bool {
	return n.IsPortal() && n.HasSingleOutputPort()
}

// Clone returns a deep copy of the node and its sub-nodes with identities kept.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Ports != nil {
		c.Ports = append([]Port(nil), n.Ports...)
	}
	if n.Portal != nil {
		p := *n.Portal
		c.Portal = &p
	}
	if n.Properties != nil {
		c.Properties = make(map[string]any, len(n.Properties))
		for k, v := range n.Properties {
			c.Properties[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// HasSubElements is implemented by nodes that own nested sub-nodes.
type HasSubElements interface {
	SubElements() []*Node
}

type container struct{ n *Node }

func (c container) SubElements() []*Node { return c.n.Children }

// AsContainer returns the node's sub-element capability, if it has one.
func AsContainer(n *Node) (HasSubElements, bool) {
	if n == nil || n.Type != NodeContext {
		return nil, false
	}
	return container{n: n}, true
}

// Walk visits n and all of its nested sub-nodes depth-first. Nil nodes are
// skipped.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	if c, ok := AsContainer(n); ok {
		for _, child := range c.SubElements() {
			Walk(child, visit)
		}
	}
}

// PortRef addresses a port on a node by node identity and port name.
type PortRef struct {
	Node ID     `json:"node" yaml:"node"`
	Port string `json:"port" yaml:"port"`
}

// Wire is a directed edge between two node ports.
type Wire struct {
	ID   ID      `json:"id" yaml:"id"`
	From PortRef `json:"from" yaml:"from"`
	To   PortRef `json:"to" yaml:"to"`
}

// ElementID implements Element.
func (w *Wire) ElementID() ID { return w.ID }

// Kind implements Element.
func (w *Wire) Kind() ElementKind { return KindWire }

// IsCopiable implements Element.
func (w *Wire) IsCopiable() bool { return true }

// Clone returns a copy of the wire.
func (w *Wire) Clone() *Wire {
	c := *w
	return &c
}

// DeclarationScope is the visibility of a variable declaration.
type DeclarationScope string

const (
	ScopeLocal  DeclarationScope = "local"
	ScopeInput  DeclarationScope = "input"
	ScopeOutput DeclarationScope = "output"
)

// Declaration is a named, typed variable binder owned by a section or group.
type Declaration struct {
	ID       ID               `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	DataType string           `json:"data_type" yaml:"data_type"`
	Scope    DeclarationScope `json:"scope" yaml:"scope"`
	Exposed  bool             `json:"exposed,omitempty" yaml:"exposed,omitempty"`
	Default  string           `json:"default,omitempty" yaml:"default,omitempty"`

	// ExternalRef names an external resource the declaration stands for.
	ExternalRef string `json:"external_ref,omitempty" yaml:"external_ref,omitempty"`

	// Parent is the owning section or group.
	Parent ID `json:"parent" yaml:"parent"`
}

// ElementID implements Element.
func (d *Declaration) ElementID() ID { return d.ID }

// Kind implements Element.
func (d *Declaration) Kind() ElementKind { return KindDeclaration }

// IsCopiable implements Element. Declarations bound to an external
// resource are resolved against the destination instead of being copied.
func (d *Declaration) IsCopiable() bool { return d.ExternalRef == "" }

// IsExternal reports whether the declaration refers to an external resource.
func (d *Declaration) IsExternal() bool { return d.ExternalRef != "" }

// Clone returns a copy of the declaration.
func (d *Declaration) Clone() *Declaration {
	c := *d
	return &c
}

// PortalDeclaration is the shared declaration portal nodes pair through.
type PortalDeclaration struct {
	ID    ID     `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// ElementID implements Element.
func (p *PortalDeclaration) ElementID() ID { return p.ID }

// Kind implements Element.
func (p *PortalDeclaration) Kind() ElementKind { return KindPortalDeclaration }

// IsCopiable implements Element.
func (p *PortalDeclaration) IsCopiable() bool { return true }

// Section is a top-level namespace for declarations and groups.
type Section struct {
	ID    ID     `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Items []ID   `json:"items,omitempty" yaml:"items,omitempty"`
}

// ElementID implements Element.
func (s *Section) ElementID() ID { return s.ID }

// Kind implements Element.
func (s *Section) Kind() ElementKind { return KindSection }

// IsCopiable implements Element. Sections are fixed by the graph.
func (s *Section) IsCopiable() bool { return false }

// Group is an ordered folder of declarations and sub-groups.
type Group struct {
	ID       ID     `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Expanded bool   `json:"expanded" yaml:"expanded"`
	Parent   ID     `json:"parent" yaml:"parent"`
	Items    []ID   `json:"items,omitempty" yaml:"items,omitempty"`
}

// ElementID implements Element.
func (g *Group) ElementID() ID { return g.ID }

// Kind implements Element.
func (g *Group) Kind() ElementKind { return KindGroup }

// IsCopiable implements Element.
func (g *Group) IsCopiable() bool { return true }

// StickyNote is a free-floating annotation.
type StickyNote struct {
	ID       ID     `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Contents string `json:"contents,omitempty" yaml:"contents,omitempty"`
	Theme    string `json:"theme,omitempty" yaml:"theme,omitempty"`
	TextSize string `json:"text_size,omitempty" yaml:"text_size,omitempty"`
	Rect     Rect   `json:"rect" yaml:"rect"`
}

// ElementID implements Element.
func (s *StickyNote) ElementID() ID { return s.ID }

// Kind implements Element.
func (s *StickyNote) Kind() ElementKind { return KindStickyNote }

// IsCopiable implements Element.
func (s *StickyNote) IsCopiable() bool { return true }

// Clone returns a copy of the sticky note.
func (s *StickyNote) Clone() *StickyNote {
	c := *s
	return &c
}

// Placemat is a titled background rectangle used to frame nodes.
type Placemat struct {
	ID        ID     `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Color     string `json:"color,omitempty" yaml:"color,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Rect      Rect   `json:"rect" yaml:"rect"`
}

// ElementID implements Element.
func (p *Placemat) ElementID() ID { return p.ID }

// Kind implements Element.
func (p *Placemat) Kind() ElementKind { return KindPlacemat }

// IsCopiable implements Element.
func (p *Placemat) IsCopiable() bool { return true }

// Clone returns a copy of the placemat.
func (p *Placemat) Clone() *Placemat {
	c := *p
	return &c
}
