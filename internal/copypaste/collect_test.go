package copypaste

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/graphclip/internal/graph"
)

func ids(elements []graph.Element) []graph.ID {
	out := make([]graph.ID, 0, len(elements))
	for _, e := range elements {
		out = append(out, e.ElementID())
	}
	return out
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("Deduplicates", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		n := opNode("a", 0, 0)
		require.NoError(t, g.AddNode(n))

		got := Collect(g, []graph.Element{n, n})

		assert.Equal(t, []graph.ID{n.ID}, ids(got))
	})

	t.Run("DropsIneligible", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		protected := opNode("p", 0, 0)
		protected.Protected = true
		external := &graph.Declaration{ID: graph.NewID(), Name: "tex", ExternalRef: "tex", Parent: s.ID}
		require.NoError(t, g.AddNode(protected))
		require.NoError(t, g.AddDeclaration(external))

		assert.Empty(t, Collect(g, []graph.Element{protected, external, s}))
	})

	t.Run("CustomEligibility", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		b := opNode("b", 0, 0)
		require.NoError(t, g.AddNode(a))
		require.NoError(t, g.AddNode(b))

		got := Collect(g, []graph.Element{a, b}, WithEligibility(func(e graph.Element) bool {
			return e.ElementID() == b.ID
		}))

		assert.Equal(t, []graph.ID{b.ID}, ids(got))
	})

	t.Run("NestedGroups", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		a, _ := g.AddGroup("A", s.ID)
		b, _ := g.AddGroup("B", a.ID)
		c, _ := g.AddGroup("C", b.ID)
		d := &graph.Declaration{ID: graph.NewID(), Name: "x", Parent: b.ID}
		require.NoError(t, g.AddDeclaration(d))

		got := Collect(g, []graph.Element{a})

		assert.ElementsMatch(t, []graph.ID{a.ID, b.ID, c.ID}, ids(got))

		got = Collect(g, []graph.Element{a}, WithGroupDeclarations())

		assert.ElementsMatch(t, []graph.ID{a.ID, b.ID, c.ID, d.ID}, ids(got))
	})

	t.Run("SubsumedGroup", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		a, _ := g.AddGroup("A", s.ID)
		b, _ := g.AddGroup("B", a.ID)
		c, _ := g.AddGroup("C", b.ID)

		got := Collect(g, []graph.Element{b, a})

		assert.Len(t, got, 3)
		assert.ElementsMatch(t, []graph.ID{a.ID, b.ID, c.ID}, ids(got))
	})

	t.Run("NilGraph", func(t *testing.T) {
		t.Parallel()
		gr := &graph.Group{ID: graph.NewID(), Title: "A"}

		assert.Equal(t, []graph.ID{gr.ID}, ids(Collect(nil, []graph.Element{gr})))
	})
}
