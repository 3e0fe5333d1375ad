package session

import (
	"github.com/Benny93/graphclip/internal/document"
	"github.com/Benny93/graphclip/internal/graph"
)

// OutlineEntry is one line of a document's section tree.
type OutlineEntry struct {
	Depth int               `json:"depth"`
	ID    graph.ID          `json:"id"`
	Kind  graph.ElementKind `json:"kind"`
	Label string            `json:"label"`
}

// NodeEntry summarizes a top-level node.
type NodeEntry struct {
	ID       graph.ID       `json:"id"`
	Type     graph.NodeType `json:"type"`
	Title    string         `json:"title,omitempty"`
	Position graph.Vec2     `json:"position"`
}

// Summary describes a graph document.
type Summary struct {
	Name       string         `json:"name"`
	Stats      map[string]int `json:"stats"`
	Outline    []OutlineEntry `json:"outline"`
	Nodes      []NodeEntry    `json:"nodes"`
	Violations int            `json:"violations"`
}

// Show loads the document at path and summarizes it.
func Show(path string) (*Summary, error) {
	g, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return Summarize(g), nil
}

// Summarize describes g.
func Summarize(g *graph.Graph) *Summary {
	sum := &Summary{
		Name:       g.Name,
		Stats:      g.Stats(),
		Violations: len(g.Validate()),
	}

	var walk func(container graph.ID, depth int)
	walk = func(container graph.ID, depth int) {
		for _, id := range g.Items(container) {
			e, ok := g.Lookup(id)
			if !ok {
				continue
			}
			entry := OutlineEntry{Depth: depth, ID: id, Kind: e.Kind()}
			switch x := e.(type) {
			case *graph.Group:
				entry.Label = x.Title
				sum.Outline = append(sum.Outline, entry)
				walk(x.ID, depth+1)
				continue
			case *graph.Declaration:
				entry.Label = x.Name + ": " + x.DataType + " (" + string(x.Scope) + ")"
			}
			sum.Outline = append(sum.Outline, entry)
		}
	}
	for _, s := range g.Sections() {
		sum.Outline = append(sum.Outline, OutlineEntry{ID: s.ID, Kind: s.Kind(), Label: s.Name})
		walk(s.ID, 1)
	}

	for _, n := range g.Nodes() {
		sum.Nodes = append(sum.Nodes, NodeEntry{ID: n.ID, Type: n.Type, Title: n.Title, Position: n.Position})
	}
	return sum
}

// Check loads the document at path and returns its invariant violations.
func Check(path string) ([]graph.Violation, error) {
	g, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return g.Validate(), nil
}
