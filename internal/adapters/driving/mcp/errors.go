// Package mcp provides an MCP (Model Context Protocol) server adapter for labtriage.
// It lets AI assistants analyse lab reports and query the marker vocabulary.
package mcp

import "errors"

// ErrMissingAnalysisService is returned when the analysis service is not provided.
var ErrMissingAnalysisService = errors.New("mcp: analysis service is required")

// ErrEmptyReport is returned when a tool call carries neither text nor content.
var ErrEmptyReport = errors.New("mcp: report text or content is required")
