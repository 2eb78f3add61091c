package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docqa/internal/config"
	"github.com/Aman-CERP/docqa/internal/engine"
	"github.com/Aman-CERP/docqa/internal/telemetry"
	"github.com/Aman-CERP/docqa/pkg/version"
)

// ServerName is reported to clients during initialization.
const ServerName = "docqa"

// Server is the MCP server for docqa. It answers questions from AI clients
// with context retrieved from the currently loaded snapshot.
type Server struct {
	mcp     *mcp.Server
	holder  *engine.Holder
	config  *config.Config
	metrics *telemetry.QueryMetrics
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// ResourceInfo contains information about a resource.
type ResourceInfo struct {
	URI      string
	Name     string
	MIMEType string
}

// ResourceContent contains the content of a resource.
type ResourceContent struct {
	URI      string
	Content  string
	MIMEType string
}

const (
	answerContextDescription = "Retrieve context for a question from the indexed documents. " +
		"Returns the best-matching sentence of each of the top k chunks with its neighbours, " +
		"formatted as Header/Context blocks ready to paste into a prompt."
	snapshotInfoDescription = "Describe the loaded snapshot: chunk count, vocabulary size, " +
		"index backend, corpus digest and build time."
)

// NewServer creates a new MCP server. holder may be empty until the first
// snapshot is loaded; tool calls then fail with ErrCodeSnapshotNotFound.
// metrics is optional and enables the query_metrics resource.
func NewServer(holder *engine.Holder, cfg *config.Config, metrics *telemetry.QueryMetrics) (*Server, error) {
	if holder == nil {
		return nil, errors.New("engine holder is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		holder:  holder,
		config:  cfg,
		metrics: metrics,
		logger:  slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	if metrics != nil {
		s.registerQueryMetricsResource()
	}

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: ToolAnswerContext, Description: answerContextDescription},
		{Name: ToolSnapshotInfo, Description: snapshotInfoDescription},
	}
}

// CallTool invokes a tool by name with JSON-decoded arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolAnswerContext:
		input := AnswerContextInput{}
		q, ok := args["query"].(string)
		if !ok {
			return nil, NewInvalidParamsError("query parameter is required and must be a string")
		}
		input.Query = q
		switch k := args["k"].(type) {
		case nil:
		case float64:
			input.K = int(k)
		case int:
			input.K = k
		default:
			return nil, NewInvalidParamsError("k must be an integer")
		}
		return s.answerContext(ctx, input)
	case ToolSnapshotInfo:
		return s.snapshotInfo()
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) answerContext(ctx context.Context, input AnswerContextInput) (AnswerContextOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	if strings.TrimSpace(input.Query) == "" {
		return AnswerContextOutput{}, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	k, err := s.resolveK(input.K)
	if err != nil {
		return AnswerContextOutput{}, err
	}

	results, err := s.holder.AnswerContext(ctx, input.Query, k)
	if err != nil {
		mapped := MapError(err)
		s.logger.Warn("answer_context_failed",
			slog.String("request_id", requestID),
			slog.Int("code", mapped.Code),
			slog.String("error", err.Error()))
		return AnswerContextOutput{}, mapped
	}

	s.logger.Debug("answer_context",
		slog.String("request_id", requestID),
		slog.Int("k", k),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	return AnswerContextOutput{Results: toResultOutputs(results)}, nil
}

// resolveK applies the configured default to 0, rejects negatives and caps
// large values at MaxK.
func (s *Server) resolveK(k int) (int, error) {
	switch {
	case k < 0:
		return 0, NewInvalidParamsError(fmt.Sprintf("k must be >= 0, got %d", k))
	case k == 0:
		k = s.config.Retrieval.TopK
	}
	if k > MaxK {
		k = MaxK
	}
	return k, nil
}

func (s *Server) snapshotInfo() (SnapshotInfoOutput, error) {
	eng := s.holder.Load()
	if eng == nil {
		return SnapshotInfoOutput{}, &MCPError{
			Code:    ErrCodeSnapshotNotFound,
			Message: "No snapshot loaded. Run 'docqa build' to create one.",
		}
	}

	output := toSnapshotInfoOutput(eng.Snapshot().Info())
	if s.metrics != nil {
		summary := summarize(s.metrics.Snapshot())
		output.Queries = &summary
	}
	return output, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolAnswerContext,
		Description: answerContextDescription,
	}, s.mcpAnswerContextHandler)
	s.logger.Debug("Registered tool", slog.String("name", ToolAnswerContext))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSnapshotInfo,
		Description: snapshotInfoDescription,
	}, s.mcpSnapshotInfoHandler)
	s.logger.Debug("Registered tool", slog.String("name", ToolSnapshotInfo))

	s.logger.Info("MCP tools registered", slog.Int("count", 2))
}

// mcpAnswerContextHandler returns the formatted context block as text so
// clients without structured output support can use it directly.
func (s *Server) mcpAnswerContextHandler(ctx context.Context, _ *mcp.CallToolRequest, input AnswerContextInput) (
	*mcp.CallToolResult,
	AnswerContextOutput,
	error,
) {
	output, err := s.answerContext(ctx, input)
	if err != nil {
		return nil, AnswerContextOutput{}, err
	}

	results := make([]engine.SearchResult, 0, len(output.Results))
	for _, r := range output.Results {
		results = append(results, engine.SearchResult{Header: r.Header, Context: r.Context})
	}
	text := engine.FormatContext(results)
	if text == "" {
		text = "No matching context found."
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, output, nil
}

func (s *Server) mcpSnapshotInfoHandler(_ context.Context, _ *mcp.CallToolRequest, _ SnapshotInfoInput) (
	*mcp.CallToolResult,
	SnapshotInfoOutput,
	error,
) {
	output, err := s.snapshotInfo()
	if err != nil {
		return nil, SnapshotInfoOutput{}, err
	}
	return nil, output, nil
}

// ListResources lists the resources this server exposes.
func (s *Server) ListResources() []ResourceInfo {
	if s.metrics == nil {
		return nil
	}
	return []ResourceInfo{
		{URI: QueryMetricsURI, Name: "query_metrics", MIMEType: "application/json"},
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(_ context.Context, uri string) (*ResourceContent, error) {
	if uri != QueryMetricsURI {
		return nil, NewInvalidParamsError(fmt.Sprintf("unknown resource %q", uri))
	}
	content, err := s.queryMetricsJSON()
	if err != nil {
		return nil, err
	}
	return &ResourceContent{URI: uri, Content: string(content), MIMEType: "application/json"}, nil
}

// Serve runs the server on the named transport until ctx is canceled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
