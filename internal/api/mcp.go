package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vetwatch/vetwatch/internal/agent"
	"github.com/vetwatch/vetwatch/internal/chat"
	"github.com/vetwatch/vetwatch/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Registry *agent.Registry
	Chat     *chat.Service
	Store    *storage.Store
}

// NewMCPServer creates an MCP server exposing the surveillance experts as
// tools and resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"vetwatch",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("vetwatch — animal-disease surveillance experts for sampling, assay analysis, outbreak intelligence, and reporting."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_experts",
			mcp.WithDescription("List the available surveillance experts with their roles and expertise."),
		),
		mcpListExperts(deps),
	)

	s.AddTool(
		mcp.NewTool("consult_expert",
			mcp.WithDescription("Ask one of the surveillance experts a question. Conversation history is kept per session."),
			mcp.WithString("expert", mcp.Description("Expert id: sampler, analyst, scout, or reporter"), mcp.Required()),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session", mcp.Description("Optional session key to continue a prior consultation")),
		),
		mcpConsultExpert(deps),
	)

	s.AddTool(
		mcp.NewTool("alert_summary",
			mcp.WithDescription("Return aggregate alert counts by status and severity."),
		),
		mcpAlertSummary(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"vetwatch://experts",
			"Surveillance Experts",
			mcp.WithResourceDescription("The expert roster as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceExperts(deps),
	)

	return s
}

func mcpListExperts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type expertSummary struct {
			ID        string   `json:"id"`
			Name      string   `json:"name"`
			Title     string   `json:"title"`
			Expertise []string `json:"expertise"`
		}

		personas := deps.Registry.All()
		results := make([]expertSummary, len(personas))
		for i, p := range personas {
			results[i] = expertSummary{ID: p.ID, Name: p.Name, Title: p.Title, Expertise: p.Expertise}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal experts: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpConsultExpert(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		expert, err := req.RequireString("expert")
		if err != nil {
			return mcpError("expert is required"), nil
		}
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}
		session := req.GetString("session", "")

		reply, err := deps.Chat.Chat(ctx, chat.Request{
			PersonaID:  expert,
			Message:    question,
			SessionKey: session,
			UserID:     "mcp",
		})
		if err != nil {
			return mcpError(fmt.Sprintf("consultation failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("%s (%s):\n%s", reply.Persona.Name, reply.Persona.Title, reply.Content)), nil
	}
}

func mcpAlertSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Store.GetAlertStats()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute alert stats: %v", err)), nil
		}

		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceExperts(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Registry.All())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal experts: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
