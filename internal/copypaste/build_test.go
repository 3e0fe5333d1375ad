package copypaste

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Benny93/graphclip/internal/graph"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("Anchor", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 10, 40)
		b := opNode("b", 50, 10)
		fixed := opNode("fixed", -100, -100)
		fixed.Movable = false
		require.NoError(t, g.AddNode(a))
		require.NoError(t, g.AddNode(b))
		require.NoError(t, g.AddNode(fixed))
		note := &graph.StickyNote{ID: graph.NewID(), Rect: graph.Rect{X: 30, Y: 5}}
		require.NoError(t, g.AddStickyNote(note))

		s := Build(g, []graph.Element{note, fixed, b, a})

		assert.Equal(t, graph.Vec2{X: 10, Y: 5}, s.Anchor())
		assert.Equal(t, graph.Vec2{X: 90, Y: 95}, s.DeltaTo(graph.Vec2{X: 100, Y: 100}))
	})

	t.Run("EmptyAnchorIsOrigin", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)

		s := Build(g, nil)

		assert.True(t, s.IsEmpty())
		assert.Equal(t, graph.Vec2{}, s.Anchor())
	})

	t.Run("OrdersBySequence", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		b := opNode("b", 0, 0)
		c := opNode("c", 0, 0)
		for _, n := range []*graph.Node{a, b, c} {
			require.NoError(t, g.AddNode(n))
		}

		s := Build(g, []graph.Element{c, a, b})

		var titles []string
		for _, n := range s.Nodes() {
			titles = append(titles, n.Title)
		}
		assert.Equal(t, []string{"a", "b", "c"}, titles)
	})

	t.Run("SubNodesTravelWithContainer", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		inner := &graph.Node{ID: graph.NewID(), Type: graph.NodeBlock, RequiresContainer: true}
		ctx := &graph.Node{ID: graph.NewID(), Type: graph.NodeContext, Movable: true, Children: []*graph.Node{inner}}
		require.NoError(t, g.AddNode(ctx))

		s := Build(g, []graph.Element{inner, ctx})

		require.Len(t, s.Nodes(), 1)
		assert.Equal(t, ctx.ID, s.Nodes()[0].ID)
	})

	t.Run("GroupsParentFirst", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		a, _ := g.AddGroup("A", s.ID)
		b, _ := g.AddGroup("B", a.ID)
		c, _ := g.AddGroup("C", s.ID)

		snap := Build(g, []graph.Element{b, c, a})

		var paths [][]string
		for _, e := range snap.Groups() {
			paths = append(paths, e.Path)
		}
		assert.Equal(t, [][]string{
			{"Properties", "A"},
			{"Properties", "C"},
			{"Properties", "A", "B"},
		}, paths)
	})

	t.Run("DeclarationEntries", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		gr, _ := g.AddGroup("A", s.ID)
		x := &graph.Declaration{ID: graph.NewID(), Name: "x", Parent: gr.ID}
		y := &graph.Declaration{ID: graph.NewID(), Name: "y", Parent: gr.ID}
		loose := &graph.Declaration{ID: graph.NewID(), Name: "loose", Parent: s.ID}
		require.NoError(t, g.AddDeclaration(y))
		require.NoError(t, g.InsertDeclaration(x, 0))
		require.NoError(t, g.AddDeclaration(loose))

		snap := Build(g, []graph.Element{y, loose, x, gr})

		entries := snap.Declarations()
		require.Len(t, entries, 3)
		assert.Equal(t, "loose", entries[0].Declaration.Name)
		assert.Equal(t, -1, entries[0].GroupIndex)
		assert.Equal(t, s.ID, entries[0].Parent)
		assert.Equal(t, "Properties", entries[0].Section)
		assert.Equal(t, "x", entries[1].Declaration.Name)
		assert.Equal(t, 0, entries[1].GroupIndex)
		assert.Equal(t, "y", entries[2].Declaration.Name)
	})

	t.Run("ImplicitDeclarations", func(t *testing.T) {
		t.Parallel()
		g, s := newGraph(t)
		d := &graph.Declaration{ID: graph.NewID(), Name: "speed", Parent: s.ID}
		require.NoError(t, g.AddDeclaration(d))
		v1 := variableNode(d.ID, 0, 0)
		v2 := variableNode(d.ID, 10, 0)
		require.NoError(t, g.AddNode(v1))
		require.NoError(t, g.AddNode(v2))

		snap := Build(g, []graph.Element{v1, v2})

		implicit := snap.ImplicitDeclarations()
		require.Len(t, implicit, 1)
		assert.Equal(t, d.ID, implicit[0].Declaration.ID)
		assert.Empty(t, snap.Declarations())
	})

	t.Run("FrozenCopy", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		require.NoError(t, g.AddNode(a))

		snap := Build(g, []graph.Element{a})
		a.Title = "changed"

		assert.Equal(t, "a", snap.Nodes()[0].Title)
	})
}

func TestSnapshot_Hooks(t *testing.T) {
	t.Parallel()

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		b := opNode("b", 10, 0)
		require.NoError(t, g.AddNode(a))
		require.NoError(t, g.AddNode(b))

		before, after := 0, 0
		hooks := HookFuncs{
			BeforeCopyFunc: func(graph.Element) error { before++; return nil },
			AfterCopyFunc:  func(graph.Element) error { after++; return nil },
		}
		s := Build(g, []graph.Element{a, b}, WithHooks(hooks))

		assert.Equal(t, 2, before)
		assert.Equal(t, 0, after)
		assert.NoError(t, s.Close())
		assert.NoError(t, s.Close())
		assert.Equal(t, 2, after)
	})

	t.Run("BeforeCopyStashIsCaptured", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		require.NoError(t, g.AddNode(a))

		hooks := HookFuncs{
			BeforeCopyFunc: func(e graph.Element) error {
				e.(*graph.Node).Properties = map[string]any{"stash": true}
				return nil
			},
			AfterCopyFunc: func(e graph.Element) error {
				e.(*graph.Node).Properties = nil
				return nil
			},
		}
		s := Build(g, []graph.Element{a}, WithHooks(hooks))
		require.NoError(t, s.Close())

		assert.Equal(t, true, s.Nodes()[0].Properties["stash"])
		assert.Nil(t, a.Properties)
	})

	t.Run("FailuresAreLogged", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		b := opNode("b", 10, 0)
		require.NoError(t, g.AddNode(a))
		require.NoError(t, g.AddNode(b))

		core, logs := observer.New(zapcore.WarnLevel)
		after := 0
		hooks := HookFuncs{
			BeforeCopyFunc: func(e graph.Element) error {
				if e.ElementID() == a.ID {
					panic("boom")
				}
				return errors.New("refused")
			},
			AfterCopyFunc: func(graph.Element) error { after++; return nil },
		}

		s := Build(g, []graph.Element{a, b}, WithHooks(hooks), WithLogger(zap.New(core)))
		require.NoError(t, s.Close())

		assert.Equal(t, 2, after)
		entries := logs.FilterMessage("element hook failed").All()
		require.Len(t, entries, 2)
		assert.Equal(t, "before_copy", entries[0].ContextMap()["hook"])
		assert.Contains(t, entries[0].ContextMap()["error"], "boom")
		assert.Contains(t, entries[1].ContextMap()["error"], "refused")
	})

	t.Run("ClonedSnapshotOwesNothing", func(t *testing.T) {
		t.Parallel()
		g, _ := newGraph(t)
		a := opNode("a", 0, 0)
		require.NoError(t, g.AddNode(a))

		after := 0
		s := Build(g, []graph.Element{a}, WithHooks(HookFuncs{
			AfterCopyFunc: func(graph.Element) error { after++; return nil },
		}))
		c := Clone(s)
		require.NoError(t, c.Close())
		assert.Equal(t, 0, after)

		require.NoError(t, s.Close())
		assert.Equal(t, 1, after)
		assert.Equal(t, s.Stats(), c.Stats())
	})
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	g, s := newGraph(t)
	d := &graph.Declaration{ID: graph.NewID(), Name: "speed", Parent: s.ID}
	require.NoError(t, g.AddDeclaration(d))
	a := opNode("a", 10, 10)
	v := variableNode(d.ID, 0, 0)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(v))
	w := &graph.Wire{ID: graph.NewID(), From: graph.PortRef{Node: v.ID, Port: "out"}, To: graph.PortRef{Node: a.ID, Port: "in"}}
	require.NoError(t, g.AddWire(w))

	snap := Build(g, []graph.Element{a, v, w})
	defer snap.Close()

	blob, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, snap.Stats(), decoded.Stats())
	assert.Equal(t, snap.Anchor(), decoded.Anchor())
	assert.Equal(t, snap.Nodes(), decoded.Nodes())

	t.Run("RejectsForeignBlobs", func(t *testing.T) {
		_, err := Decode([]byte(`{"format":"something-else"}`))
		assert.ErrorIs(t, err, ErrNotSnapshot)

		_, err = Decode([]byte(`not json`))
		assert.ErrorIs(t, err, ErrNotSnapshot)

		_, err = Decode([]byte(`{"format":"graphclip/snapshot","declarations":[{"group_index":-1}]}`))
		assert.ErrorIs(t, err, ErrNotSnapshot)

		for _, blob := range []string{
			`{"format":"graphclip/snapshot","nodes":[null]}`,
			`{"format":"graphclip/snapshot","nodes":[{"type":"context","children":[null]}]}`,
			`{"format":"graphclip/snapshot","wires":[null]}`,
			`{"format":"graphclip/snapshot","portal_declarations":[null]}`,
			`{"format":"graphclip/snapshot","sticky_notes":[null]}`,
			`{"format":"graphclip/snapshot","placemats":[null]}`,
		} {
			_, err := Decode([]byte(blob))
			assert.ErrorIs(t, err, ErrNotSnapshot, blob)
		}
	})
}
