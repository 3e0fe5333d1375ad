package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Benny93/graphclip/internal/copypaste"
	"github.com/Benny93/graphclip/internal/document"
	"github.com/Benny93/graphclip/internal/graph"
	"github.com/Benny93/graphclip/internal/storage"
)

type fixture struct {
	path string
	decl *graph.Declaration
	vari *graph.Node
	op   *graph.Node
	mat  *graph.Placemat
}

// writeFixture saves a document holding a variable feeding an operation,
// under a placemat.
func writeFixture(t *testing.T, dir, name string) fixture {
	t.Helper()

	g := graph.New(name)
	s := g.AddSection("Properties")
	grp, err := g.AddGroup("Inputs", s.ID)
	require.NoError(t, err)

	f := fixture{path: filepath.Join(dir, name+".graph.json")}
	f.decl = &graph.Declaration{ID: graph.NewID(), Name: "speed", DataType: "float", Scope: graph.ScopeLocal, Parent: grp.ID}
	require.NoError(t, g.AddDeclaration(f.decl))

	f.vari = &graph.Node{
		ID: graph.NewID(), Type: graph.NodeVariable, Title: "speed", Movable: true,
		Position:    graph.Vec2{X: 10, Y: 10},
		Declaration: f.decl.ID,
		Ports:       []graph.Port{{Name: "out", Direction: graph.PortOutput}},
	}
	f.op = &graph.Node{
		ID: graph.NewID(), Type: graph.NodeOperation, Title: "scale", Movable: true,
		Position: graph.Vec2{X: 50, Y: 10},
		Ports:    []graph.Port{{Name: "in", Direction: graph.PortInput}},
	}
	require.NoError(t, g.AddNode(f.vari))
	require.NoError(t, g.AddNode(f.op))
	require.NoError(t, g.AddWire(&graph.Wire{
		ID:   graph.NewID(),
		From: graph.PortRef{Node: f.vari.ID, Port: "out"},
		To:   graph.PortRef{Node: f.op.ID, Port: "in"},
	}))
	f.mat = &graph.Placemat{ID: graph.NewID(), Title: "mat", Rect: graph.Rect{X: 0, Y: 0, Width: 100, Height: 40}}
	require.NoError(t, g.AddPlacemat(f.mat))

	require.NoError(t, document.Save(f.path, g))
	return f
}

func writeEmpty(t *testing.T, dir, name string) string {
	t.Helper()

	g := graph.New(name)
	g.AddSection("Properties")
	path := filepath.Join(dir, name+".graph.yaml")
	require.NoError(t, document.Save(path, g))
	return path
}

func load(t *testing.T, path string) *graph.Graph {
	t.Helper()
	g, err := document.Load(path)
	require.NoError(t, err)
	return g
}

func TestSelection_Resolve(t *testing.T) {
	t.Parallel()

	f := writeFixture(t, t.TempDir(), "main")
	g := load(t, f.path)

	t.Run("All", func(t *testing.T) {
		elems, err := Selection{All: true}.Resolve(g)
		require.NoError(t, err)
		assert.Len(t, elems, 4)
	})

	t.Run("ByID", func(t *testing.T) {
		elems, err := Selection{IDs: []graph.ID{f.op.ID}}.Resolve(g)
		require.NoError(t, err)
		require.Len(t, elems, 1)
		assert.Equal(t, f.op.ID, elems[0].ElementID())
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Selection{IDs: []graph.ID{graph.NewID()}}.Resolve(g)
		assert.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Selection{}.Resolve(g)
		assert.ErrorIs(t, err, ErrEmptySelection)
	})
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	id := graph.NewID()
	ids, err := ParseIDs([]string{id.String()})
	require.NoError(t, err)
	assert.Equal(t, []graph.ID{id}, ids)

	_, err = ParseIDs([]string{"not-an-id"})
	assert.ErrorContains(t, err, `parsing id "not-an-id"`)
}

func TestSession_CopyPaste(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	src := writeFixture(t, dir, "src")
	dst := writeEmpty(t, dir, "dst")

	core, logs := observer.New(zapcore.DebugLevel)
	s := New(storage.NewMemoryClipboard(1), WithLogger(zap.New(core)))

	report, err := s.Copy(ctx, src.path, Selection{All: true})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Selected)
	assert.Equal(t, 4, report.Closure)
	assert.Positive(t, report.Bytes)
	assert.True(t, s.Clipboard().CanDeserialize(ctx))

	pasted, err := s.Paste(ctx, dst, PasteOptions{At: &graph.Vec2{X: 200, Y: 200}})
	require.NoError(t, err)
	assert.Equal(t, "paste", pasted.Mode)
	assert.Len(t, pasted.Created, 5)

	g := load(t, dst)
	assert.Equal(t, 2, g.Stats()["nodes"])
	assert.Equal(t, 1, g.Stats()["wires"])
	assert.Equal(t, 1, g.Stats()["declarations"])
	assert.Empty(t, g.Validate())

	// The placemat origin (0, 0) is the snapshot anchor.
	positions := map[string]graph.Vec2{}
	for _, n := range g.Nodes() {
		positions[n.Title] = n.Position
	}
	assert.Equal(t, graph.Vec2{X: 210, Y: 210}, positions["speed"])
	assert.Equal(t, graph.Vec2{X: 250, Y: 210}, positions["scale"])
	assert.Equal(t, "mat", g.Placemats()[0].Title)

	assert.Equal(t, 1, logs.FilterMessage("copied").Len())
	assert.Equal(t, 1, logs.FilterMessage("reconstructed").Len())

	t.Run("PasteAgainReusesDeclaration", func(t *testing.T) {
		_, err := s.Paste(ctx, dst, PasteOptions{Offset: graph.Vec2{X: 20, Y: 20}})
		require.NoError(t, err)

		g := load(t, dst)
		assert.Equal(t, 4, g.Stats()["nodes"])
		assert.Equal(t, 1, g.Stats()["declarations"])
		assert.Empty(t, g.Validate())
	})
}

func TestSession_Paste(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	f := writeFixture(t, dir, "main")

	t.Run("EmptyClipboard", func(t *testing.T) {
		s := New(storage.NewMemoryClipboard(1))
		_, err := s.Paste(ctx, f.path, PasteOptions{})
		assert.ErrorIs(t, err, storage.ErrClipboardEmpty)
	})

	t.Run("UnknownGroup", func(t *testing.T) {
		s := New(storage.NewMemoryClipboard(1))
		_, err := s.Copy(ctx, f.path, Selection{IDs: []graph.ID{f.op.ID}})
		require.NoError(t, err)

		_, err = s.Paste(ctx, f.path, PasteOptions{Into: graph.NewID()})
		assert.ErrorIs(t, err, graph.ErrNotFound)
		assert.Equal(t, 2, load(t, f.path).Stats()["nodes"], "document must be left untouched")
	})

	t.Run("MissingDocument", func(t *testing.T) {
		s := New(storage.NewMemoryClipboard(1))
		_, err := s.Copy(ctx, f.path, Selection{IDs: []graph.ID{f.op.ID}})
		require.NoError(t, err)

		_, err = s.Paste(ctx, filepath.Join(dir, "absent.graph.json"), PasteOptions{})
		assert.ErrorContains(t, err, "reading document")
	})
}

func TestSession_Duplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("PlacematPrefix", func(t *testing.T) {
		f := writeFixture(t, t.TempDir(), "main")
		clip := storage.NewMemoryClipboard(1)
		s := New(clip)

		report, err := s.Duplicate(ctx, f.path, Selection{All: true}, graph.Vec2{X: 20, Y: 20})
		require.NoError(t, err)
		assert.Equal(t, "duplicate", report.Mode)
		assert.Len(t, report.Created, 4)

		g := load(t, f.path)
		assert.Equal(t, 4, g.Stats()["nodes"])
		assert.Equal(t, 2, g.Stats()["wires"])
		assert.Equal(t, 1, g.Stats()["declarations"])
		assert.Empty(t, g.Validate())

		titles := []string{}
		for _, p := range g.Placemats() {
			titles = append(titles, p.Title)
		}
		assert.Equal(t, []string{"mat", copypaste.PlacematCopyPrefix + "mat"}, titles)

		_, err = clip.Current(ctx)
		assert.ErrorIs(t, err, storage.ErrClipboardEmpty, "duplicate must not touch the clipboard")
	})

	t.Run("NoPrefix", func(t *testing.T) {
		f := writeFixture(t, t.TempDir(), "main")
		s := New(storage.NewMemoryClipboard(1), WithPlacematPrefix(false))

		_, err := s.Duplicate(ctx, f.path, Selection{IDs: []graph.ID{f.mat.ID}}, graph.Vec2{})
		require.NoError(t, err)

		for _, p := range load(t, f.path).Placemats() {
			assert.Equal(t, "mat", p.Title)
		}
	})

	t.Run("Hooks", func(t *testing.T) {
		f := writeFixture(t, t.TempDir(), "main")
		var before, after, pasted int
		s := New(storage.NewMemoryClipboard(1), WithHooks(copypaste.HookFuncs{
			BeforeCopyFunc: func(graph.Element) error { before++; return nil },
			AfterCopyFunc:  func(graph.Element) error { after++; return nil },
			AfterPasteFunc: func(graph.Element) error { pasted++; return nil },
		}))

		_, err := s.Duplicate(ctx, f.path, Selection{IDs: []graph.ID{f.op.ID}}, graph.Vec2{X: 5})
		require.NoError(t, err)
		assert.Equal(t, 1, before)
		assert.Equal(t, 1, after)
		assert.Equal(t, 1, pasted)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		f := writeFixture(t, t.TempDir(), "main")
		s := New(storage.NewMemoryClipboard(1))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Duplicate(cctx, f.path, Selection{All: true}, graph.Vec2{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestShowAndCheck(t *testing.T) {
	t.Parallel()

	f := writeFixture(t, t.TempDir(), "main")

	sum, err := Show(f.path)
	require.NoError(t, err)
	assert.Equal(t, "main", sum.Name)
	assert.Equal(t, 0, sum.Violations)
	require.Len(t, sum.Outline, 3)
	assert.Equal(t, OutlineEntry{Depth: 0, ID: sum.Outline[0].ID, Kind: graph.KindSection, Label: "Properties"}, sum.Outline[0])
	assert.Equal(t, "Inputs", sum.Outline[1].Label)
	assert.Equal(t, 1, sum.Outline[1].Depth)
	assert.Equal(t, f.decl.ID, sum.Outline[2].ID)
	assert.Equal(t, "speed: float (local)", sum.Outline[2].Label)
	assert.Equal(t, 2, sum.Outline[2].Depth)
	require.Len(t, sum.Nodes, 2)
	assert.Equal(t, f.vari.ID, sum.Nodes[0].ID)

	violations, err := Check(f.path)
	require.NoError(t, err)
	assert.Empty(t, violations)

	_, err = Check(filepath.Join(t.TempDir(), "absent.graph.json"))
	assert.Error(t, err)
}
