package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docqa/internal/telemetry"
)

// QueryMetricsURI identifies the query_metrics resource.
const QueryMetricsURI = "docqa://query_metrics"

// QueryMetricsOutput is the JSON structure for the query_metrics resource.
type QueryMetricsOutput struct {
	Summary             QueryMetricsSummary  `json:"summary"`
	TopTerms            []telemetry.TermCount `json:"top_terms"`
	ZeroResultQueries   []string             `json:"zero_result_queries"`
	LatencyDistribution map[string]int64     `json:"latency_distribution"`
}

// QueryMetricsSummary provides overview statistics.
type QueryMetricsSummary struct {
	TotalQueries     int64   `json:"total_queries"`
	ZeroResultPct    float64 `json:"zero_result_pct"`
	ExactRepeatCount int64   `json:"exact_repeat_count"`
	Since            string  `json:"since"`
}

func summarize(snap *telemetry.QueryMetricsSnapshot) QueryMetricsSummary {
	return QueryMetricsSummary{
		TotalQueries:     snap.TotalQueries,
		ZeroResultPct:    snap.ZeroResultPercentage(),
		ExactRepeatCount: snap.ExactRepeatCount,
		Since:            snap.Since.Format(time.RFC3339),
	}
}

// registerQueryMetricsResource registers the query_metrics resource.
func (s *Server) registerQueryMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "query_metrics",
			URI:         QueryMetricsURI,
			Description: "Query telemetry: top terms, zero-result queries and latency buckets for this session",
			MIMEType:    "application/json",
		},
		s.handleQueryMetricsResource,
	)
}

// handleQueryMetricsResource implements mcp.ResourceHandler.
func (s *Server) handleQueryMetricsResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	content, err := s.queryMetricsJSON()
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      QueryMetricsURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

func (s *Server) queryMetricsJSON() ([]byte, error) {
	if s.metrics == nil {
		return nil, NewInvalidParamsError("query metrics not available")
	}

	snap := s.metrics.Snapshot()
	output := QueryMetricsOutput{
		Summary:             summarize(snap),
		TopTerms:            snap.TopTerms,
		ZeroResultQueries:   snap.ZeroResultQueries,
		LatencyDistribution: make(map[string]int64, len(snap.LatencyDistribution)),
	}
	for bucket, count := range snap.LatencyDistribution {
		output.LatencyDistribution[string(bucket)] = count
	}

	content, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return content, nil
}
