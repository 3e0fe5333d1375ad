package document

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/graphclip/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()

	g := graph.New("main")
	s := g.AddSection("Properties")
	grp, err := g.AddGroup("Inputs", s.ID)
	require.NoError(t, err)
	require.NoError(t, g.AddDeclaration(&graph.Declaration{
		ID: graph.NewID(), Name: "speed", DataType: "float", Scope: graph.ScopeLocal, Parent: grp.ID,
	}))

	a := &graph.Node{
		ID: graph.NewID(), Type: graph.NodeOperation, Title: "a", Movable: true,
		Ports:      []graph.Port{{Name: "out", Direction: graph.PortOutput}},
		Properties: map[string]any{"gain": "2"},
	}
	b := &graph.Node{
		ID: graph.NewID(), Type: graph.NodeOperation, Title: "b", Movable: true,
		Position: graph.Vec2{X: 50, Y: 10},
		Ports:    []graph.Port{{Name: "in", Direction: graph.PortInput}},
	}
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddWire(&graph.Wire{
		ID:   graph.NewID(),
		From: graph.PortRef{Node: a.ID, Port: "out"},
		To:   graph.PortRef{Node: b.ID, Port: "in"},
	}))
	require.NoError(t, g.AddPlacemat(&graph.Placemat{ID: graph.NewID(), Title: "mat", Rect: graph.Rect{Width: 100, Height: 50}}))
	return g
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"a.graph.json", JSON, false},
		{"a.YAML", YAML, false},
		{"dir/a.yml", YAML, false},
		{"a.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := FormatOf(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestIsDocument(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDocument("flows/main.graph.json"))
	assert.True(t, IsDocument("main.Graph.yml"))
	assert.False(t, IsDocument("graphclip.yaml"))
	assert.False(t, IsDocument("main.graph.txt"))
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".graph.json", ".graph.yaml"} {
		t.Run(ext, func(t *testing.T) {
			g := testGraph(t)
			path := filepath.Join(t.TempDir(), "sub", "main"+ext)

			require.NoError(t, Save(path, g))
			loaded, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, g.Name, loaded.Name)
			assert.Equal(t, g.Stats(), loaded.Stats())
			assert.Equal(t, g.Export(), loaded.Export())
			assert.Empty(t, loaded.Validate())

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file left behind")
		})
	}
}

func TestSave_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	err := Save(filepath.Join(t.TempDir(), "main.txt"), testGraph(t))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.graph.json"))
	assert.ErrorContains(t, err, "reading document")
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("UnknownField", func(t *testing.T) {
		_, err := Decode([]byte(`{"name":"x","bogus":1}`), JSON)
		assert.ErrorContains(t, err, "decoding json document")
	})

	t.Run("UnknownYAMLField", func(t *testing.T) {
		_, err := Decode([]byte("name: x\nbogus: 1\n"), YAML)
		assert.ErrorContains(t, err, "decoding yaml document")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := Decode([]byte(`{}`), Format("toml"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("NullEntry", func(t *testing.T) {
		data := fmt.Sprintf(`{"name":"x","sections":[{"id":%q,"name":"S"}],"nodes":[null]}`, graph.NewID())
		require.NotPanics(t, func() {
			_, err := Decode([]byte(data), JSON)
			assert.ErrorContains(t, err, "invalid document")
			assert.ErrorContains(t, err, "nodes[0] is required")
		})
	})

	t.Run("DanglingWireStillLoads", func(t *testing.T) {
		doc := testGraph(t).Export()
		doc.Nodes = doc.Nodes[:1]
		data, err := Encode(mustGraph(t, doc), JSON)
		require.NoError(t, err)

		g, err := Decode(data, JSON)
		require.NoError(t, err)
		require.Len(t, g.Validate(), 1)
		assert.Equal(t, graph.ViolationDanglingWire, g.Validate()[0].Kind)
	})
}

func mustGraph(t *testing.T, doc *graph.Document) *graph.Graph {
	t.Helper()
	g, err := graph.FromDocument(doc)
	require.NoError(t, err)
	return g
}

func TestValidate(t *testing.T) {
	t.Parallel()

	section := func() *graph.Section { return &graph.Section{ID: graph.NewID(), Name: "Properties"} }

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, Validate(testGraph(t).Export()))
	})

	tests := []struct {
		name    string
		doc     *graph.Document
		message string
	}{
		{
			name:    "MissingName",
			doc:     &graph.Document{Sections: []*graph.Section{section()}},
			message: "name is required",
		},
		{
			name:    "NoSections",
			doc:     &graph.Document{Name: "x"},
			message: "sections must have at least 1 entries",
		},
		{
			name: "NilIdentity",
			doc: &graph.Document{
				Name:     "x",
				Sections: []*graph.Section{section()},
				Nodes:    []*graph.Node{{Type: graph.NodeOperation}},
			},
			message: "nodes[0].id is required",
		},
		{
			name: "RepeatedIdentity",
			doc: func() *graph.Document {
				s := section()
				return &graph.Document{
					Name:      "x",
					Sections:  []*graph.Section{s},
					Placemats: []*graph.Placemat{{ID: s.ID, Title: "mat"}},
				}
			}(),
			message: "placemats[0].id repeats identity",
		},
		{
			name: "NestedNodeIdentity",
			doc: &graph.Document{
				Name:     "x",
				Sections: []*graph.Section{section()},
				Nodes: []*graph.Node{{
					ID:       graph.NewID(),
					Type:     graph.NodeOperation,
					Children: []*graph.Node{{Type: graph.NodeOperation}},
				}},
			},
			message: "nodes[0].children[0].id is required",
		},
		{
			name: "NullChild",
			doc: &graph.Document{
				Name:     "x",
				Sections: []*graph.Section{section()},
				Nodes: []*graph.Node{{
					ID:       graph.NewID(),
					Type:     graph.NodeOperation,
					Children: []*graph.Node{nil},
				}},
			},
			message: "nodes[0].children[0] is required",
		},
		{
			name:    "NullSection",
			doc:     &graph.Document{Name: "x", Sections: []*graph.Section{section(), nil}},
			message: "sections[1] is required",
		},
		{
			name:    "NullWire",
			doc:     &graph.Document{Name: "x", Sections: []*graph.Section{section()}, Wires: []*graph.Wire{nil}},
			message: "wires[0] is required",
		},
		{
			name:    "NullStickyNote",
			doc:     &graph.Document{Name: "x", Sections: []*graph.Section{section()}, StickyNotes: []*graph.StickyNote{nil}},
			message: "sticky_notes[0] is required",
		},
		{
			name:    "NullPlacemat",
			doc:     &graph.Document{Name: "x", Sections: []*graph.Section{section()}, Placemats: []*graph.Placemat{nil}},
			message: "placemats[0] is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
