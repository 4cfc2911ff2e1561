// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes nexusmap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/nexusmap/internal/docservice"
	"github.com/starford/nexusmap/internal/engine"
)

const formatURI = "nexusmap://document-format"

// Server wraps the MCP server with nexusmap tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Nexusmap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents with their validation counts."),
		mcp.WithString("kind", mcp.Description("Optional document kind filter (note, diagram, grid)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full text of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. flows/checkout.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document. Content MUST follow the format contract; "+
			"read it first via get_format_contract or the "+formatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new document (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Outline text following the format contract")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("Replace the text of a document. Returns the validation summary."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New outline text")),
		mcp.WithString("if_match", mcp.Description("Checksum the document must still have")),
	), s.updateDocument)

	s.mcp.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Validate a stored document, or unsaved text when content is given."),
		mcp.WithString("path", mcp.Description("Relative path to the document")),
		mcp.WithString("content", mcp.Description("Unsaved outline text")),
	), s.validateDocument)

	s.mcp.AddTool(mcp.NewTool("parse_outline",
		mcp.WithDescription("Return the parsed outline tree of a document with hubs and node ids."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.parseOutline)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Full-text search through outline nodes of all documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("list_issues",
		mcp.WithDescription("List indexed validation findings."),
		mcp.WithString("path", mcp.Description("Restrict to one document")),
		mcp.WithString("severity", mcp.Description("error or warning")),
	), s.listIssues)

	s.mcp.AddTool(mcp.NewTool("toggle_flow",
		mcp.WithDescription("Toggle the #flow# tag on a node and all variants of its hub."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id (node-N)")),
	), s.toggleFlow)

	s.mcp.AddTool(mcp.NewTool("bulk_delete",
		mcp.WithDescription("Delete leaf nodes by id and prune their registry entries. "+
			"Nodes with children are reported as blocked."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Node ids to delete"), mcp.WithStringItems()),
	), s.bulkDelete)

	s.mcp.AddTool(mcp.NewTool("delete_flow",
		mcp.WithDescription("Delete a flow tab subtree with its swimlane and references."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("fid", mcp.Required(), mcp.Description("Flow tab id (flowtab-N)")),
	), s.deleteFlow)

	s.mcp.AddTool(mcp.NewTool("add_test",
		mcp.WithDescription("Record a test definition for a flow in the testing-store registry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Test name")),
		mcp.WithString("flow_root_id", mcp.Required(), mcp.Description("Node id of the flow root (node-N)")),
		mcp.WithString("flow_node_id", mcp.Description("Node id inside the flow the test targets")),
	), s.addTest)

	s.mcp.AddTool(mcp.NewTool("apply_mutation",
		mcp.WithDescription("Apply one mutation given as a JSON object with an op field "+
			"(ensureRunningNumbers, bulkDelete, toggleFlowFlag, deleteFlowSubtree, renameNode, "+
			"moveSubtree, resizeExpanded, setConnectorLabel, setFlowNodeType, addTest)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("mutation", mcp.Required(), mcp.Description("Mutation JSON")),
		mcp.WithString("if_match", mcp.Description("Checksum the document must still have")),
	), s.applyMutation)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the document format contract. "+
			"Call this before creating or editing documents."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Document Format Contract",
			mcp.WithResourceDescription("Outline and registry format all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.List(ctx, 1000, 0, req.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total})
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Get(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Create(ctx, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return jsonResult(map[string]any{"path": doc.Path, "checksum": doc.Checksum, "summary": doc.Summary})
}

func (s *Server) updateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Update(ctx, path, []byte(content), req.GetString("if_match", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return jsonResult(map[string]any{"path": doc.Path, "checksum": doc.Checksum, "summary": doc.Summary})
}

func (s *Server) validateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if content := req.GetString("content", ""); content != "" {
		return jsonResult(s.svc.ValidateText(content))
	}
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path or content is required"), nil
	}
	report, err := s.svc.Validate(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return jsonResult(report)
}

func (s *Server) parseOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.Tree(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return jsonResult(f)
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.svc.Issues(ctx, req.GetString("path", ""), req.GetString("severity", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("no issues found"), nil
	}
	return jsonResult(issues)
}

func (s *Server) mutate(ctx context.Context, req mcp.CallToolRequest, m engine.Mutation) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Mutate(ctx, path, m, req.GetString("if_match", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return jsonResult(res)
}

func (s *Server) toggleFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(ctx, req, engine.Mutation{Op: engine.OpToggleFlowFlag, ID: id})
}

func (s *Server) bulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultError("ids is required"), nil
	}
	return s.mutate(ctx, req, engine.Mutation{Op: engine.OpBulkDelete, IDs: ids})
}

func (s *Server) deleteFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fid, err := req.RequireString("fid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(ctx, req, engine.Mutation{Op: engine.OpDeleteFlowSubtree, FlowID: fid})
}

func (s *Server) addTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	root, err := req.RequireString("flow_root_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(ctx, req, engine.Mutation{
		Op:         engine.OpAddTest,
		Name:       name,
		FlowRootID: root,
		FlowNodeID: req.GetString("flow_node_id", ""),
	})
}

func (s *Server) applyMutation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("mutation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var m engine.Mutation
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid mutation JSON: %v", err)), nil
	}
	return s.mutate(ctx, req, m)
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
