// Package cmd provides CLI command implementations for graphclip.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/config"
	"github.com/Benny93/graphclip/internal/copypaste"
	"github.com/Benny93/graphclip/internal/graph"
	"github.com/Benny93/graphclip/internal/logging"
	"github.com/Benny93/graphclip/internal/session"
	"github.com/Benny93/graphclip/internal/storage"
	"github.com/Benny93/graphclip/internal/watch"
	"github.com/Benny93/graphclip/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App carries what every command needs. It is bound into kong so each Run
// method receives it.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Out        io.Writer
}

// openClipboard opens the persistent clipboard store named by the config.
func (a *App) openClipboard() (*storage.BadgerClipboard, error) {
	path := a.Config.Clipboard.Path
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating clipboard directory: %w", err)
	}
	c := storage.NewBadgerClipboard(a.Config.Clipboard.HistorySize, a.Logger)
	if err := c.Initialize(path, false); err != nil {
		return nil, fmt.Errorf("initializing clipboard: %w", err)
	}
	return c, nil
}

func (a *App) session(c storage.Clipboard) *session.Session {
	return session.New(c,
		session.WithLogger(a.Logger),
		session.WithPlacematPrefix(a.Config.PlacematPrefix()),
	)
}

// Point is a "X,Y" command-line coordinate.
type Point struct {
	graph.Vec2
	Set bool
}

// UnmarshalText parses "X,Y".
func (p *Point) UnmarshalText(text []byte) error {
	x, y, ok := strings.Cut(string(text), ",")
	if !ok {
		return fmt.Errorf("invalid point %q: expected X,Y", text)
	}
	var err error
	if p.X, err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
		return fmt.Errorf("invalid point %q: %w", text, err)
	}
	if p.Y, err = strconv.ParseFloat(strings.TrimSpace(y), 64); err != nil {
		return fmt.Errorf("invalid point %q: %w", text, err)
	}
	p.Set = true
	return nil
}

// InitCmd writes a default configuration file.
type InitCmd struct {
	Path  string `arg:"" optional:"" default:"graphclip.yaml" help:"Where to write the config"`
	Force bool   `short:"f" help:"Overwrite an existing file"`
}

// Run executes the init command.
func (c *InitCmd) Run(app *App) error {
	if _, err := os.Stat(c.Path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", c.Path)
	}
	if err := config.DefaultConfig().Save(c.Path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	color.New(color.FgGreen).Fprintf(app.Out, "✓ Wrote default config to %s\n", c.Path)
	return nil
}

// ShowCmd prints a summary of a graph document.
type ShowCmd struct {
	Document string `arg:"" type:"existingfile" help:"Graph document"`
	JSON     bool   `help:"Print the summary as JSON"`
}

// Run executes the show command.
func (c *ShowCmd) Run(app *App) error {
	sum, err := session.Show(c.Document)
	if err != nil {
		return err
	}
	if c.JSON {
		fmt.Fprintln(app.Out, toJSON(sum))
		return nil
	}

	fmt.Fprintf(app.Out, "## %s\n\n", sum.Name)
	for _, key := range statKeys {
		if n := sum.Stats[key]; n > 0 {
			fmt.Fprintf(app.Out, "  %-20s %d\n", key+":", n)
		}
	}
	if len(sum.Outline) > 0 {
		fmt.Fprintln(app.Out, "\nOutline:")
		for _, e := range sum.Outline {
			fmt.Fprintf(app.Out, "  %s%s [%s] %s\n", strings.Repeat("  ", e.Depth), e.Label, e.Kind, e.ID)
		}
	}
	if len(sum.Nodes) > 0 {
		fmt.Fprintln(app.Out, "\nNodes:")
		for _, n := range sum.Nodes {
			fmt.Fprintf(app.Out, "  %s %-10s %-20q (%.0f, %.0f)\n", n.ID, n.Type, n.Title, n.Position.X, n.Position.Y)
		}
	}
	if sum.Violations > 0 {
		color.New(color.FgYellow).Fprintf(app.Out, "\n%d violation(s), run 'graphclip check %s'\n", sum.Violations, c.Document)
	}
	return nil
}

var statKeys = []string{"sections", "groups", "declarations", "portal_declarations", "nodes", "wires", "sticky_notes", "placemats"}

// CheckCmd validates graph documents.
type CheckCmd struct {
	Documents []string `arg:"" type:"existingfile" help:"Graph documents"`
}

// Run executes the check command.
func (c *CheckCmd) Run(app *App) error {
	failed := 0
	for _, path := range c.Documents {
		violations, err := session.Check(path)
		if err != nil {
			color.New(color.FgRed).Fprintf(app.Out, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		printViolations(app.Out, path, violations)
		if len(violations) > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(c.Documents))
	}
	return nil
}

func printViolations(w io.Writer, path string, violations []graph.Violation) {
	if len(violations) == 0 {
		color.New(color.FgGreen).Fprintf(w, "✓ %s\n", path)
		return
	}
	color.New(color.FgRed).Fprintf(w, "✗ %s: %d violation(s)\n", path, len(violations))
	for _, v := range violations {
		fmt.Fprintf(w, "    %s\n", v)
	}
}

// SelectFlags are shared by the commands that start from a selection.
type SelectFlags struct {
	Select []string `short:"s" sep:"," help:"Element IDs to select"`
	All    bool     `short:"a" help:"Select every node, wire, sticky note and placemat"`
}

func (f SelectFlags) selection() (session.Selection, error) {
	ids, err := session.ParseIDs(f.Select)
	if err != nil {
		return session.Selection{}, err
	}
	return session.Selection{IDs: ids, All: f.All}, nil
}

// CopyCmd copies a selection to the clipboard.
type CopyCmd struct {
	Document string `arg:"" type:"existingfile" help:"Graph document"`
	SelectFlags
}

// Run executes the copy command.
func (c *CopyCmd) Run(app *App) error {
	sel, err := c.selection()
	if err != nil {
		return err
	}
	clip, err := app.openClipboard()
	if err != nil {
		return err
	}
	defer func() { _ = clip.Close() }()

	report, err := app.session(clip).Copy(context.Background(), c.Document, sel)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(app.Out, "✓ Copied %d element(s) (%d with closure, %d bytes)\n",
		report.Selected, report.Closure, report.Bytes)
	return nil
}

// PasteCmd pastes the clipboard into a document.
type PasteCmd struct {
	Document string `arg:"" type:"existingfile" help:"Graph document"`
	At       Point  `help:"Move the pasted content's top-left corner to X,Y"`
	Offset   Point  `help:"Offset pasted content by X,Y from its copied position"`
	Into     string `help:"Group ID to paste groups and declarations into"`
}

// Run executes the paste command.
func (c *PasteCmd) Run(app *App) error {
	opts := session.PasteOptions{Offset: c.Offset.Vec2}
	if c.At.Set {
		at := c.At.Vec2
		opts.At = &at
	}
	if c.Into != "" {
		id, err := graph.ParseID(c.Into)
		if err != nil {
			return fmt.Errorf("parsing group id: %w", err)
		}
		opts.Into = id
	}

	clip, err := app.openClipboard()
	if err != nil {
		return err
	}
	defer func() { _ = clip.Close() }()

	report, err := app.session(clip).Paste(context.Background(), c.Document, opts)
	if errors.Is(err, storage.ErrClipboardEmpty) || errors.Is(err, copypaste.ErrNotSnapshot) {
		return fmt.Errorf("nothing to paste: %w", err)
	}
	if err != nil {
		return err
	}
	printCreated(app.Out, report)
	return nil
}

// DuplicateCmd duplicates a selection inside its document.
type DuplicateCmd struct {
	Document string `arg:"" type:"existingfile" help:"Graph document"`
	SelectFlags
	Offset Point `help:"Offset of the duplicate (default from config)"`
}

// Run executes the duplicate command.
func (c *DuplicateCmd) Run(app *App) error {
	sel, err := c.selection()
	if err != nil {
		return err
	}
	delta := app.Config.DuplicateOffset()
	if c.Offset.Set {
		delta = c.Offset.Vec2
	}

	report, err := app.session(storage.NewMemoryClipboard(0)).Duplicate(context.Background(), c.Document, sel, delta)
	if err != nil {
		return err
	}
	printCreated(app.Out, report)
	return nil
}

func printCreated(w io.Writer, report *session.PasteReport) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s created %d element(s)\n", capitalize(report.Mode), len(report.Created))
	for _, id := range report.Created {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

// ClipboardCmd shows the clipboard content and history.
type ClipboardCmd struct {
	Limit int  `short:"n" default:"10" help:"Maximum history entries"`
	JSON  bool `help:"Print the history as JSON"`
}

// Run executes the clipboard command.
func (c *ClipboardCmd) Run(app *App) error {
	clip, err := app.openClipboard()
	if err != nil {
		return err
	}
	defer func() { _ = clip.Close() }()

	entries, err := clip.History(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if c.JSON {
		fmt.Fprintln(app.Out, toJSON(entries))
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(app.Out, "Clipboard is empty")
		return nil
	}

	fmt.Fprintf(app.Out, "Clipboard at %s\n", app.Config.Clipboard.Path)
	for i, e := range entries {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		snap, err := copypaste.Decode(e.Blob)
		if err != nil {
			fmt.Fprintf(app.Out, "%s #%d %s  (not a snapshot, %d bytes)\n", marker, e.Seq, e.SavedAt.Local().Format("2006-01-02 15:04:05"), len(e.Blob))
			continue
		}
		stats := snap.Stats()
		fmt.Fprintf(app.Out, "%s #%d %s  nodes=%d wires=%d groups=%d declarations=%d\n",
			marker, e.Seq, e.SavedAt.Local().Format("2006-01-02 15:04:05"),
			stats["nodes"], stats["wires"], stats["groups"], stats["declarations"])
	}
	return nil
}

// WatchCmd re-validates documents as they change.
type WatchCmd struct {
	Dir string `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to watch"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(app *App) error {
	w, err := watch.New(c.Dir, func(r watch.Result) { printResult(app.Out, r) },
		watch.WithDebounce(app.Config.Debounce()),
		watch.WithLogger(app.Logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	go func() {
		<-osSignalChannel()
		fmt.Fprintln(app.Out, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(app.Out, "## Watch Mode")
	results, err := w.CheckAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		printResult(app.Out, r)
	}
	fmt.Fprintf(app.Out, "Watching %s for changes (Ctrl+C to stop)\n\n", w.Root())

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}
	fmt.Fprintln(app.Out, "Watch mode stopped.")
	return nil
}

func printResult(w io.Writer, r watch.Result) {
	switch {
	case r.Removed:
		fmt.Fprintf(w, "- %s removed\n", r.Path)
	case r.Err != nil:
		color.New(color.FgRed).Fprintf(w, "✗ %s: %v\n", r.Path, r.Err)
	default:
		printViolations(w, r.Path, r.Violations)
	}
}

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(app *App) error {
	clip, err := app.openClipboard()
	if err != nil {
		return err
	}
	defer func() { _ = clip.Close() }()

	server := mcp.NewServer(app.session(clip), app.Logger)

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	return server.Run(context.Background(), os.Stdin, os.Stdout)
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

func toJSON(v any) string {
	bytes, _ := json.MarshalIndent(v, "", "  ")
	return string(bytes)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CLI is the command-line interface.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`
	Config  string           `short:"c" type:"path" env:"GRAPHCLIP_CONFIG" help:"Config file"`

	// Commands
	Init      InitCmd      `cmd:"" help:"Write a default graphclip.yaml"`
	Show      ShowCmd      `cmd:"" help:"Summarize a graph document"`
	Check     CheckCmd     `cmd:"" help:"Validate graph documents"`
	Copy      CopyCmd      `cmd:"" help:"Copy a selection to the clipboard"`
	Paste     PasteCmd     `cmd:"" help:"Paste the clipboard into a document"`
	Duplicate DuplicateCmd `cmd:"" help:"Duplicate a selection inside its document"`
	Clipboard ClipboardCmd `cmd:"" help:"Show clipboard content and history"`
	Watch     WatchCmd     `cmd:"" help:"Re-validate documents on change"`
	MCP       MCPCmd       `cmd:"" help:"Start MCP server (stdio transport)"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("graphclip"),
		kong.Description("Copy, paste and duplicate node-graph selections"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return err
	}

	app, err := c.newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	return kongCtx.Run(app)
}

func (c *CLI) newApp(out io.Writer) (*App, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if c.Config != "" {
		cfg, path, err = config.LoadFromPath(c.Config)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Clipboard.Path != "" && !filepath.IsAbs(cfg.Clipboard.Path) && path != "" {
		cfg.Clipboard.Path = filepath.Join(filepath.Dir(path), cfg.Clipboard.Path)
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: c.Verbose,
		Quiet:   c.Quiet,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", zap.String("path", path))

	return &App{Config: cfg, ConfigPath: path, Logger: logger, Out: out}, nil
}
