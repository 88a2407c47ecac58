package mcptransport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// ToolHandler resolves and invokes one tool by name. Implemented by
// internal/toolhandler.
type ToolHandler interface {
	ListTools() []Tool
	CallTool(name string, arguments json.RawMessage) (CallToolResult, error)
	ResolveRoot(roots []string) error
}

// Server drives the line-delimited JSON-RPC loop over an arbitrary
// reader/writer pair (stdin/stdout in production).
type Server struct {
	handler     ToolHandler
	log         *slog.Logger
	initialized bool
}

// NewServer builds a Server around handler, logging protocol-level events
// to log (never to stdout, which is reserved for JSON-RPC responses).
func NewServer(handler ToolHandler, log *slog.Logger) *Server {
	return &Server{handler: handler, log: log}
}

// Run reads one JSON object per line from r, dispatches it, and writes one
// JSON object per line to w for every request that is not a notification.
// Run returns when r is exhausted or returns a non-EOF error.
func (s *Server) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(w)
	defer writer.Flush()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(writer, nil, CodeParseError, "parse error: "+err.Error())
			continue
		}

		resp := s.handleRequest(&req)
		if req.IsNotification() {
			continue
		}
		if err := s.send(writer, resp); err != nil {
			return fmt.Errorf("mcptransport: write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("mcptransport: read: %w", err)
	}
	return nil
}

func (s *Server) handleRequest(req *Request) Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "invalid initialize params: "+err.Error())
		}
	}
	if err := s.handler.ResolveRoot(params.Roots); err != nil {
		return errorResponse(req.ID, CodeInternalError, "failed to resolve project root: "+err.Error())
	}
	s.initialized = true

	return Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: "2024-11-05",
			Capabilities:    ServerCapabilities{Tools: map[string]any{}},
			ServerInfo:      ServerInfo{Name: "codegraph-mcp", Version: "0.1.0"},
		},
	}
}

func (s *Server) handleListTools(req *Request) Response {
	if !s.initialized {
		return errorResponse(req.ID, CodeInternalError, "server not initialized")
	}
	return Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ListToolsResult{Tools: s.handler.ListTools()},
	}
}

func (s *Server) handleCallTool(req *Request) Response {
	if !s.initialized {
		return errorResponse(req.ID, CodeInternalError, "server not initialized")
	}
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	result, err := s.handler.CallTool(params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

func (s *Server) sendError(w *bufio.Writer, id json.RawMessage, code int, message string) {
	if err := s.send(w, errorResponse(id, code, message)); err != nil && s.log != nil {
		s.log.Error("mcptransport: failed to write error response", "error", err)
	}
}

func (s *Server) send(w *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
