package graph

import "fmt"

// ViolationKind classifies a broken graph invariant.
type ViolationKind string

const (
	ViolationDanglingWire       ViolationKind = "dangling_wire"
	ViolationMissingPort        ViolationKind = "missing_port"
	ViolationPortalShared       ViolationKind = "portal_shared"
	ViolationPortalUndeclared   ViolationKind = "portal_undeclared"
	ViolationUnresolvedVariable ViolationKind = "unresolved_variable"
	ViolationBrokenParent       ViolationKind = "broken_parent"
	ViolationContainerlessBlock ViolationKind = "containerless_block"
)

// Violation describes one broken invariant.
type Violation struct {
	Kind    ViolationKind `json:"kind" yaml:"kind"`
	Element ID            `json:"element" yaml:"element"`
	Message string        `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.Element, v.Message)
}

// Validate checks the structural invariants of the graph and returns every
// violation found, ordered by element sequence within each check.
func (g *Graph) Validate() []Violation {
	var out []Violation

	for _, w := range g.Wires() {
		for _, end := range []PortRef{w.From, w.To} {
			n := g.Node(end.Node)
			switch {
			case n == nil:
				out = append(out, Violation{ViolationDanglingWire, w.ID, fmt.Sprintf("endpoint node %s does not exist", end.Node)})
			case !n.HasPort(end.Port):
				out = append(out, Violation{ViolationMissingPort, w.ID, fmt.Sprintf("node %s has no port %q", end.Node, end.Port)})
			}
		}
	}

	for _, n := range g.AllNodes() {
		if n.IsVariable() && g.Declaration(n.Declaration) == nil {
			out = append(out, Violation{ViolationUnresolvedVariable, n.ID, fmt.Sprintf("declaration %s does not exist", n.Declaration)})
		}
		if n.RequiresContainer && g.IsTopLevel(n.ID) {
			out = append(out, Violation{ViolationContainerlessBlock, n.ID, "block node outside of a container"})
		}
	}

	for _, p := range g.PortalNodes() {
		if g.PortalDeclaration(p.Portal.Declaration) == nil {
			out = append(out, Violation{ViolationPortalUndeclared, p.ID, fmt.Sprintf("portal declaration %s does not exist", p.Portal.Declaration)})
		}
	}
	for _, decl := range g.PortalDeclarations() {
		seen := make(map[PortalDirection]bool)
		for _, p := range g.PortalsOf(decl.ID) {
			if p.AllowsDeclarationSharing() {
				continue
			}
			if seen[p.Portal.Direction] {
				out = append(out, Violation{ViolationPortalShared, p.ID, fmt.Sprintf("another %s portal already uses declaration %q", p.Portal.Direction, decl.Title)})
			}
			seen[p.Portal.Direction] = true
		}
	}

	for _, gr := range g.Groups() {
		if g.SectionOf(gr.ID) == nil {
			out = append(out, Violation{ViolationBrokenParent, gr.ID, fmt.Sprintf("group %q has no section ancestor", gr.Title)})
		}
	}
	for _, d := range g.Declarations() {
		if g.SectionOf(d.ID) == nil {
			out = append(out, Violation{ViolationBrokenParent, d.ID, fmt.Sprintf("declaration %q has no section ancestor", d.Name)})
		}
	}

	return out
}
