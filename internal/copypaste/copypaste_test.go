package copypaste

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Benny93/graphclip/internal/graph"
)

func opNode(title string, x, y float64) *graph.Node {
	return &graph.Node{
		ID:       graph.NewID(),
		Type:     graph.NodeOperation,
		Title:    title,
		Position: graph.Vec2{X: x, Y: y},
		Movable:  true,
		Ports: []graph.Port{
			{Name: "in", Direction: graph.PortInput},
			{Name: "out", Direction: graph.PortOutput},
		},
	}
}

func variableNode(decl graph.ID, x, y float64) *graph.Node {
	return &graph.Node{
		ID:          graph.NewID(),
		Type:        graph.NodeVariable,
		Position:    graph.Vec2{X: x, Y: y},
		Movable:     true,
		Declaration: decl,
		Ports:       []graph.Port{{Name: "out", Direction: graph.PortOutput}},
	}
}

func entryPortal(decl graph.ID, x, y float64) *graph.Node {
	return &graph.Node{
		ID:       graph.NewID(),
		Type:     graph.NodePortal,
		Position: graph.Vec2{X: x, Y: y},
		Movable:  true,
		Ports:    []graph.Port{{Name: "in", Direction: graph.PortInput}},
		Portal:   &graph.PortalBinding{Declaration: decl, Direction: graph.PortalEntry},
	}
}

func exitPortal(decl graph.ID, x, y float64) *graph.Node {
	return &graph.Node{
		ID:       graph.NewID(),
		Type:     graph.NodePortal,
		Position: graph.Vec2{X: x, Y: y},
		Movable:  true,
		Ports:    []graph.Port{{Name: "out", Direction: graph.PortOutput}},
		Portal:   &graph.PortalBinding{Declaration: decl, Direction: graph.PortalExit},
	}
}

func wire(from, to *graph.Node) *graph.Wire {
	return &graph.Wire{
		ID:   graph.NewID(),
		From: graph.PortRef{Node: from.ID, Port: "out"},
		To:   graph.PortRef{Node: to.ID, Port: "in"},
	}
}

// newGraph returns a graph with a single "Properties" section.
func newGraph(t *testing.T) (*graph.Graph, *graph.Section) {
	t.Helper()
	g := graph.New(t.Name())
	return g, g.AddSection("Properties")
}

// copyPaste runs the full collect, build, reconstruct pipeline.
func copyPaste(t *testing.T, src *graph.Graph, selection []graph.Element, mode Mode, delta graph.Vec2, dest *graph.Graph, opts ...Option) *Result {
	t.Helper()
	s := Build(src, Collect(src, selection, WithGroupDeclarations()), opts...)
	defer s.Close()

	res, err := Reconstruct(s, mode, delta, dest, opts...)
	require.NoError(t, err)
	return res
}

func portalDeclarationsOf(g *graph.Graph, nodes ...*graph.Node) map[graph.ID]bool {
	out := make(map[graph.ID]bool)
	for _, n := range nodes {
		out[g.Node(n.ID).Portal.Declaration] = true
	}
	return out
}
