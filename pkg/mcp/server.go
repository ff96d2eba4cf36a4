// Package mcp exposes the rule transforms over the Model Context
// Protocol: agent tooling asks for trees, flowcharts, layouts, lint
// reports, evaluations, test data and library access through one stdio
// server instead of shelling out to the CLI.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/lint"
	"github.com/madpin/jsonlogicui/internal/render"
)

// ServerDeps holds the collaborators for creating a Server. Library may
// be nil for a library-less session; the library-backed tools then
// report a configuration error. Nil Registry, Linter, Engine and Logger
// fall back to defaults.
type ServerDeps struct {
	Library  library.Library
	Registry *render.Registry
	Linter   *lint.Linter
	Engine   evalbridge.Engine
	Logger   *slog.Logger
}

// Server wraps an MCP server with the logic.* tool handlers.
type Server struct {
	lib       library.Library
	registry  *render.Registry
	linter    *lint.Linter
	engine    evalbridge.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with all 8 tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	registry := deps.Registry
	if registry == nil {
		registry = render.Default()
	}
	linter := deps.Linter
	if linter == nil {
		l, err := lint.NewLinter()
		if err != nil {
			return nil, err
		}
		linter = l
	}
	engine := deps.Engine
	if engine == nil {
		e, err := evalbridge.New(evalbridge.DefaultEngine)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	s := &Server{
		lib:      deps.Library,
		registry: registry,
		linter:   linter,
		engine:   engine,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"jsonlogicui",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("jsonlogicui visualizes JSONLogic-style rules. Use logic.tree for an indented decision tree, logic.flowchart for a Mermaid document, logic.layout for positioned diagram geometry, logic.lint for structural and arity findings, logic.eval to evaluate a rule against a data record, logic.testdata to synthesize a record a rule can read, logic.save to store a named rule, and logic.query to browse the rule library. Rules are passed inline as JSON source or referenced by library name."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or
// stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom
// transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 8 registered MCP tools as ServerTool entries.
func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: treeTool(), Handler: s.handleTree},
		{Tool: flowchartTool(), Handler: s.handleFlowchart},
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: lintTool(), Handler: s.handleLint},
		{Tool: evalTool(), Handler: s.handleEval},
		{Tool: testdataTool(), Handler: s.handleTestdata},
		{Tool: saveTool(), Handler: s.handleSave},
		{Tool: queryTool(), Handler: s.handleQuery},
	}
}

// --- Tool definitions ---

func treeTool() mcp.Tool {
	return mcp.NewTool("logic.tree",
		mcp.WithDescription("Render a rule as an indented decision tree with ✓/✗ branch markers. Pass data to annotate every node with its evaluated value"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
		mcp.WithBoolean("expand_all", mcp.Description("Expand subtrees that start collapsed (default: false)")),
		mcp.WithObject("data", mcp.Description("Data record for value annotation")),
	)
}

func flowchartTool() mcp.Tool {
	return mcp.NewTool("logic.flowchart",
		mcp.WithDescription("Render a rule as a Mermaid flowchart document with decision diamonds and ✓ Yes / ✗ No edges"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
		mcp.WithString("orientation",
			mcp.Enum("vertical", "horizontal"),
			mcp.Description("Growth direction: vertical (TD, default) or horizontal (LR)"),
		),
		mcp.WithBoolean("include_values", mcp.Description("Add one edge per literal array element (default: false)")),
	)
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("logic.layout",
		mcp.WithDescription("Compute diagram geometry for a rule: positioned nodes, cubic edge curves, and canvas size as JSON"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
		mcp.WithString("orientation",
			mcp.Enum("vertical", "horizontal"),
			mcp.Description("Layout direction (default: vertical)"),
		),
		mcp.WithBoolean("expand_all", mcp.Description("Lay out subtrees that start collapsed (default: false)")),
	)
}

func lintTool() mcp.Tool {
	return mcp.NewTool("logic.lint",
		mcp.WithDescription("Check a rule document: structural JSON Schema validation plus per-operator arity findings. Unknown operators and empty objects are warnings"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
	)
}

func evalTool() mcp.Tool {
	return mcp.NewTool("logic.eval",
		mcp.WithDescription("Evaluate a rule against a data record and return the value"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
		mcp.WithObject("data", mcp.Description("Data record (default: empty record)")),
		mcp.WithString("engine",
			mcp.Enum("expr", "cel"),
			mcp.Description("Evaluation backend (default: the server's configured engine)"),
		),
	)
}

func testdataTool() mcp.Tool {
	return mcp.NewTool("logic.testdata",
		mcp.WithDescription("Synthesize a random data record with every variable path the rule reads. Value types are guessed from adjacent comparison literals; the record is not solved toward any outcome"),
		mcp.WithString("rule", mcp.Description("Inline rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("name", mcp.Description("Library rule name (used when no inline rule is given)")),
		mcp.WithNumber("seed", mcp.Description("Random seed for reproducible records (default: time-based)")),
		mcp.WithObject("overrides", mcp.Description("Dotted-path values pinned over the generated record")),
	)
}

func saveTool() mcp.Tool {
	return mcp.NewTool("logic.save",
		mcp.WithDescription("Save a named rule in the library. Saving an existing name replaces its rule and keeps its id"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Rule name (unique)")),
		mcp.WithString("rule", mcp.Required(), mcp.Description("Rule source (JSON, // and /* */ comments allowed)")),
		mcp.WithString("description", mcp.Description("Human description")),
		mcp.WithArray("tags", mcp.Description("Tags for filtering"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithObject("data_schema", mcp.Description("JSON Schema for the rule's data records")),
		mcp.WithObject("sample_data", mcp.Description("Example data record")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("logic.query",
		mcp.WithDescription("Browse the rule library: list rules (filtered by tag or search text), fetch one by name, or list distinct tags"),
		mcp.WithString("resource",
			mcp.Enum("rules", "tags"),
			mcp.Description("What to list (default: rules)"),
		),
		mcp.WithString("name", mcp.Description("Fetch a single rule by name")),
		mcp.WithString("tag", mcp.Description("Only rules carrying this tag")),
		mcp.WithString("search", mcp.Description("Substring match on name or description")),
		mcp.WithNumber("limit", mcp.Description("Maximum rules returned (default: 50)")),
	)
}
