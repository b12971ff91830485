package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) templates(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.host.Templates())
}

func (h *handlers) currentWorkout(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	e, err := h.host.Engine()
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, e.View())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
