package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/graphclip/internal/document"
	"github.com/Benny93/graphclip/internal/graph"
	"github.com/Benny93/graphclip/internal/session"
	"github.com/Benny93/graphclip/internal/storage"
)

type testDoc struct {
	path string
	a, b *graph.Node
}

func writeTestDoc(t *testing.T, name string) testDoc {
	t.Helper()

	g := graph.New(name)
	g.AddSection("Properties")
	d := testDoc{path: filepath.Join(t.TempDir(), name+".graph.json")}
	d.a = &graph.Node{
		ID: graph.NewID(), Type: graph.NodeOperation, Title: "a", Movable: true,
		Ports: []graph.Port{{Name: "out", Direction: graph.PortOutput}},
	}
	d.b = &graph.Node{
		ID: graph.NewID(), Type: graph.NodeOperation, Title: "b", Movable: true,
		Position: graph.Vec2{X: 40},
		Ports:    []graph.Port{{Name: "in", Direction: graph.PortInput}},
	}
	require.NoError(t, g.AddNode(d.a))
	require.NoError(t, g.AddNode(d.b))
	require.NoError(t, g.AddWire(&graph.Wire{
		ID:   graph.NewID(),
		From: graph.PortRef{Node: d.a.ID, Port: "out"},
		To:   graph.PortRef{Node: d.b.ID, Port: "in"},
	}))
	require.NoError(t, document.Save(d.path, g))
	return d
}

func newTestServer() *Server {
	return NewServer(session.New(storage.NewMemoryClipboard(2)), nil)
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("CreatesServer", func(t *testing.T) {
		server := newTestServer()

		assert.NotNil(t, server)
		assert.NotNil(t, server.session)
		assert.Len(t, server.schemas, len(server.ListTools()))
	})
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()

	server := newTestServer()

	t.Run("ListTools", func(t *testing.T) {
		tools := server.ListTools()

		toolNames := make(map[string]bool)
		for _, tool := range tools {
			toolNames[tool.Name] = true
		}

		expectedTools := []string{
			"graph_show",
			"graph_check",
			"graph_copy",
			"graph_paste",
			"graph_duplicate",
		}

		for _, expected := range expectedTools {
			assert.True(t, toolNames[expected], "Should have tool: %s", expected)
		}
	})

	t.Run("ToolDescriptions", func(t *testing.T) {
		for _, tool := range server.ListTools() {
			assert.NotEmpty(t, tool.Description)
			require.NotNil(t, tool.InputSchema)
			assert.Contains(t, tool.InputSchema.Required, "document")
		}
	})
}

func TestServer_HandleToolCalls(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("GraphShow", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		result, err := newTestServer().CallTool(ctx, "graph_show", map[string]any{"document": doc.path})
		require.NoError(t, err)
		assert.Contains(t, result, "## main")
		assert.Contains(t, result, "- nodes: 2")
		assert.Contains(t, result, doc.a.ID.String())
	})

	t.Run("GraphCheck", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		result, err := newTestServer().CallTool(ctx, "graph_check", map[string]any{"document": doc.path})
		require.NoError(t, err)
		assert.Contains(t, result, "no violations")
	})

	t.Run("CopyThenPaste", func(t *testing.T) {
		server := newTestServer()
		src := writeTestDoc(t, "src")
		dst := writeTestDoc(t, "dst")

		result, err := server.CallTool(ctx, "graph_copy", map[string]any{
			"document": src.path,
			"ids":      []string{src.a.ID.String(), src.b.ID.String()},
		})
		require.NoError(t, err)
		assert.Contains(t, result, "Copied 2 element(s)")

		result, err = server.CallTool(ctx, "graph_paste", map[string]any{
			"document": dst.path,
			"x":        100,
			"y":        100,
		})
		require.NoError(t, err)
		assert.Contains(t, result, "paste created 2 element(s)")

		g, err := document.Load(dst.path)
		require.NoError(t, err)
		assert.Equal(t, 4, g.Stats()["nodes"])
		assert.Equal(t, 1, g.Stats()["wires"], "the wire was not selected")
	})

	t.Run("GraphDuplicate", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		result, err := newTestServer().CallTool(ctx, "graph_duplicate", map[string]any{
			"document": doc.path,
			"all":      true,
			"offset_x": 20,
			"offset_y": 20,
		})
		require.NoError(t, err)
		assert.Contains(t, result, "duplicate created 3 element(s)")

		g, err := document.Load(doc.path)
		require.NoError(t, err)
		assert.Equal(t, 4, g.Stats()["nodes"])
		assert.Equal(t, 2, g.Stats()["wires"])
	})

	t.Run("PasteEmptyClipboard", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		_, err := newTestServer().CallTool(ctx, "graph_paste", map[string]any{"document": doc.path})
		assert.ErrorIs(t, err, storage.ErrClipboardEmpty)
	})

	t.Run("MissingDocumentArgument", func(t *testing.T) {
		_, err := newTestServer().CallTool(ctx, "graph_show", map[string]any{})
		assert.ErrorContains(t, err, "invalid arguments")
	})

	t.Run("WrongArgumentType", func(t *testing.T) {
		_, err := newTestServer().CallTool(ctx, "graph_copy", map[string]any{"document": "x.graph.json", "all": "yes"})
		assert.ErrorContains(t, err, "invalid arguments")
	})

	t.Run("BadID", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		_, err := newTestServer().CallTool(ctx, "graph_copy", map[string]any{"document": doc.path, "ids": []string{"nope"}})
		assert.ErrorContains(t, err, `parsing id "nope"`)
	})

	t.Run("UnknownTool", func(t *testing.T) {
		result, err := newTestServer().CallTool(ctx, "unknown_tool", map[string]any{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tool")
		assert.Empty(t, result)
	})
}

func TestServer_Resources(t *testing.T) {
	t.Parallel()

	server := newTestServer()

	t.Run("ListResources", func(t *testing.T) {
		resourceURIs := make(map[string]bool)
		for _, res := range server.ListResources() {
			resourceURIs[res.URI] = true
			assert.NotEmpty(t, res.Name)
			assert.NotEmpty(t, res.Description)
			assert.NotEmpty(t, res.MimeType)
		}

		assert.True(t, resourceURIs["graphclip://clipboard"])
		assert.True(t, resourceURIs["graphclip://schema"])
	})
}

func TestServer_HandleResourceReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("ReadSchema", func(t *testing.T) {
		content, err := newTestServer().ReadResource(ctx, "graphclip://schema")
		assert.NoError(t, err)
		assert.Contains(t, content, "wires")
		assert.Contains(t, content, "graphclip/snapshot")
	})

	t.Run("ReadClipboard", func(t *testing.T) {
		server := newTestServer()

		content, err := server.ReadResource(ctx, "graphclip://clipboard")
		require.NoError(t, err)
		assert.Contains(t, content, "empty")

		doc := writeTestDoc(t, "main")
		_, err = server.CallTool(ctx, "graph_copy", map[string]any{"document": doc.path, "all": true})
		require.NoError(t, err)

		content, err = server.ReadResource(ctx, "graphclip://clipboard")
		require.NoError(t, err)
		assert.Contains(t, content, "- nodes: 2")
		assert.Contains(t, content, "- wires: 1")
	})

	t.Run("ReadForeignClipboard", func(t *testing.T) {
		clip := storage.NewMemoryClipboard(1)
		clip.Store([]byte("hello"))
		server := NewServer(session.New(clip), nil)

		content, err := server.ReadResource(ctx, "graphclip://clipboard")
		require.NoError(t, err)
		assert.Contains(t, content, "foreign content")
	})

	t.Run("ReadUnknownResource", func(t *testing.T) {
		content, err := newTestServer().ReadResource(ctx, "graphclip://unknown")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resource")
		assert.Empty(t, content)
	})
}

func TestServer_Protocol(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := newTestServer()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer clientSession.Close()

	t.Run("ListTools", func(t *testing.T) {
		res, err := clientSession.ListTools(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, res.Tools, len(server.ListTools()))
	})

	t.Run("CallTool", func(t *testing.T) {
		doc := writeTestDoc(t, "main")
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      "graph_check",
			Arguments: map[string]any{"document": doc.path},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		require.Len(t, res.Content, 1)
		assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "no violations")
	})

	t.Run("ToolError", func(t *testing.T) {
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      "graph_show",
			Arguments: map[string]any{},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("ReadResource", func(t *testing.T) {
		res, err := clientSession.ReadResource(ctx, &mcp.ReadResourceParams{URI: "graphclip://schema"})
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Contains(t, res.Contents[0].Text, "sections")
	})
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	server := newTestServer()

	t.Run("RunWithNilStreams", func(t *testing.T) {
		err := server.Run(context.Background(), nil, nil)
		assert.Error(t, err)
	})
}
