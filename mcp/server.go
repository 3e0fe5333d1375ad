// Package mcp provides the MCP (Model Context Protocol) server for graphclip.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/copypaste"
	"github.com/Benny93/graphclip/internal/graph"
	"github.com/Benny93/graphclip/internal/session"
)

// Server represents the MCP server.
type Server struct {
	session *session.Session
	server  *mcp.Server
	logger  *zap.Logger
	schemas map[string]*jsonschema.Resolved
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server around a session.
func NewServer(sess *session.Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		session: sess,
		logger:  logger,
		schemas: make(map[string]*jsonschema.Resolved),
	}

	// Create MCP server
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "graphclip",
		Version: "0.1.0",
	}, nil)

	// Register tools
	s.registerTools()

	// Register resources
	s.registerResources()

	return s
}

var (
	documentSchema = &jsonschema.Schema{Type: "string", Description: "Path of a .graph.json or .graph.yaml document"}
	idsSchema      = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Element IDs to select"}
	allSchema      = &jsonschema.Schema{Type: "boolean", Description: "Select every node, wire, sticky note and placemat"}
)

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "graph_show",
			Description: "Summarize a graph document: element counts, section outline and top-level nodes.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"document": documentSchema},
				Required:   []string{"document"},
			},
		},
		{
			Name:        "graph_check",
			Description: "Validate a graph document and list broken invariants such as dangling wires or shared portals.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"document": documentSchema},
				Required:   []string{"document"},
			},
		},
		{
			Name:        "graph_copy",
			Description: "Copy a selection of a graph document to the clipboard.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"document": documentSchema,
					"ids":      idsSchema,
					"all":      allSchema,
				},
				Required: []string{"document"},
			},
		},
		{
			Name:        "graph_paste",
			Description: "Paste the clipboard into a graph document, either at a point or offset from the copied position.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"document": documentSchema,
					"x":        {Type: "number", Description: "Target X of the pasted content's top-left corner"},
					"y":        {Type: "number", Description: "Target Y of the pasted content's top-left corner"},
					"offset_x": {Type: "number", Description: "X offset from the copied position, used when x/y are absent"},
					"offset_y": {Type: "number", Description: "Y offset from the copied position, used when x/y are absent"},
					"into":     {Type: "string", Description: "Group ID to paste groups and declarations into"},
				},
				Required:          []string{"document"},
				DependentRequired: map[string][]string{"x": {"y"}, "y": {"x"}},
			},
		},
		{
			Name:        "graph_duplicate",
			Description: "Duplicate a selection inside its graph document without touching the clipboard.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"document": documentSchema,
					"ids":      idsSchema,
					"all":      allSchema,
					"offset_x": {Type: "number", Description: "X offset of the duplicate"},
					"offset_y": {Type: "number", Description: "Y offset of the duplicate"},
				},
				Required: []string{"document"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "graphclip://clipboard",
			Name:        "Clipboard",
			Description: "What the clipboard currently holds",
			MimeType:    "text/plain",
		},
		{
			URI:         "graphclip://schema",
			Name:        "Document Schema",
			Description: "Description of the graph document format",
			MimeType:    "text/plain",
		},
	}
}

type toolArgs struct {
	Document string   `json:"document"`
	IDs      []string `json:"ids"`
	All      bool     `json:"all"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	OffsetX  float64  `json:"offset_x"`
	OffsetY  float64  `json:"offset_y"`
	Into     string   `json:"into"`
}

func (a toolArgs) selection() (session.Selection, error) {
	ids, err := session.ParseIDs(a.IDs)
	if err != nil {
		return session.Selection{}, err
	}
	return session.Selection{IDs: ids, All: a.All}, nil
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	resolved, ok := s.schemas[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	// Normalize through JSON so validation sees what a client would send.
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	instance := map[string]any{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	var in toolArgs
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	s.logger.Debug("tool call", zap.String("tool", name), zap.String("document", in.Document))

	switch name {
	case "graph_show":
		return handleShow(in)
	case "graph_check":
		return handleCheck(in)
	case "graph_copy":
		return s.handleCopy(ctx, in)
	case "graph_paste":
		return s.handlePaste(ctx, in)
	case "graph_duplicate":
		return s.handleDuplicate(ctx, in)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "graphclip://clipboard":
		return s.getClipboard(ctx), nil
	case "graphclip://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run serves MCP over the given streams until the client disconnects or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(stdin),
		Writer: nopWriteCloser{stdout},
	}
	return s.server.Run(ctx, transport)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Tool Handlers

func handleShow(in toolArgs) (string, error) {
	sum, err := session.Show(in.Document)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", sum.Name))
	for _, key := range []string{"sections", "groups", "declarations", "portal_declarations", "nodes", "wires", "sticky_notes", "placemats"} {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", key, sum.Stats[key]))
	}
	if len(sum.Outline) > 0 {
		sb.WriteString("\n### Outline\n")
		for _, e := range sum.Outline {
			sb.WriteString(fmt.Sprintf("%s- %s [%s] `%s`\n", strings.Repeat("  ", e.Depth), e.Label, e.Kind, e.ID))
		}
	}
	if len(sum.Nodes) > 0 {
		sb.WriteString("\n### Nodes\n")
		for _, n := range sum.Nodes {
			sb.WriteString(fmt.Sprintf("- `%s` %s %q at (%.0f, %.0f)\n", n.ID, n.Type, n.Title, n.Position.X, n.Position.Y))
		}
	}
	if sum.Violations > 0 {
		sb.WriteString(fmt.Sprintf("\n%d violation(s), use graph_check for details.\n", sum.Violations))
	}
	return sb.String(), nil
}

func handleCheck(in toolArgs) (string, error) {
	violations, err := session.Check(in.Document)
	if err != nil {
		return "", err
	}
	if len(violations) == 0 {
		return fmt.Sprintf("%s: no violations.", in.Document), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %d violation(s)\n\n", in.Document, len(violations)))
	for _, v := range violations {
		sb.WriteString(fmt.Sprintf("- %s\n", v))
	}
	return sb.String(), nil
}

func (s *Server) handleCopy(ctx context.Context, in toolArgs) (string, error) {
	sel, err := in.selection()
	if err != nil {
		return "", err
	}
	report, err := s.session.Copy(ctx, in.Document, sel)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Copied %d element(s), %d with closure (%d nodes, %d wires, %d groups, %d declarations).",
		report.Selected, report.Closure,
		report.Snapshot["nodes"], report.Snapshot["wires"], report.Snapshot["groups"], report.Snapshot["declarations"]), nil
}

func (s *Server) handlePaste(ctx context.Context, in toolArgs) (string, error) {
	opts := session.PasteOptions{Offset: graph.Vec2{X: in.OffsetX, Y: in.OffsetY}}
	if in.X != nil && in.Y != nil {
		opts.At = &graph.Vec2{X: *in.X, Y: *in.Y}
	}
	if in.Into != "" {
		id, err := graph.ParseID(in.Into)
		if err != nil {
			return "", fmt.Errorf("parsing group id: %w", err)
		}
		opts.Into = id
	}

	report, err := s.session.Paste(ctx, in.Document, opts)
	if err != nil {
		return "", err
	}
	return formatCreated(report), nil
}

func (s *Server) handleDuplicate(ctx context.Context, in toolArgs) (string, error) {
	sel, err := in.selection()
	if err != nil {
		return "", err
	}
	report, err := s.session.Duplicate(ctx, in.Document, sel, graph.Vec2{X: in.OffsetX, Y: in.OffsetY})
	if err != nil {
		return "", err
	}
	return formatCreated(report), nil
}

func formatCreated(report *session.PasteReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s created %d element(s):\n", report.Mode, len(report.Created)))
	for _, id := range report.Created {
		sb.WriteString(fmt.Sprintf("- `%s`\n", id))
	}
	return sb.String()
}

func (s *Server) getClipboard(ctx context.Context) string {
	clip := s.session.Clipboard()
	blob, err := clip.Current(ctx)
	if err != nil {
		return "Clipboard is empty."
	}
	snap, err := clip.Deserialize(ctx, blob)
	if err != nil {
		return fmt.Sprintf("Clipboard holds %d bytes of foreign content.", len(blob))
	}

	var sb strings.Builder
	sb.WriteString("Clipboard holds a graph snapshot:\n")
	stats := snap.Stats()
	for _, key := range []string{"nodes", "wires", "groups", "declarations", "implicit_declarations", "portal_declarations", "sticky_notes", "placemats"} {
		if stats[key] > 0 {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", key, stats[key]))
		}
	}
	anchor := snap.Anchor()
	sb.WriteString(fmt.Sprintf("- anchor: (%.0f, %.0f)\n", anchor.X, anchor.Y))
	return sb.String()
}

func getSchema() string {
	return fmt.Sprintf(`graphclip Document Schema

A document is a JSON or YAML file named *.graph.json or *.graph.yaml.

Top-level fields:
- name: graph name
- policy: allow_portals, allow_subgraphs, declaration_scopes
- sections: ordered containers {id, name, items}
- groups: {id, title, expanded, parent, items}
- declarations: variables {id, name, data_type, scope, parent, external_ref}
- portal_declarations: {id, title}
- nodes: {id, type, title, position, movable, ports, declaration, portal, children, properties}
- wires: {id, from: {node, port}, to: {node, port}}
- sticky_notes: {id, title, contents, rect}
- placemats: {id, title, color, rect}

Identities are UUIDs. Snapshots on the clipboard are tagged %q.
`, copypaste.SnapshotFormat)
}

// registerTools registers tools with the MCP server.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		resolved, err := tool.InputSchema.Resolve(nil)
		if err != nil {
			s.logger.Error("resolving tool schema", zap.String("tool", tool.Name), zap.Error(err))
			continue
		}
		s.schemas[tool.Name] = resolved

		name := tool.Name
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args map[string]any
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return toolError(err), nil
				}
			}
			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				return toolError(err), nil
			}
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
		})
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// registerResources registers resources with the MCP server.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/plain", Text: text}},
			}, nil
		})
	}
}
