package mcphttp

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/querylens/querylens/internal/domain"
	"github.com/querylens/querylens/internal/usecase"
	"github.com/querylens/querylens/pkg/shared/mcpjsonrpc"
)

const (
	// ProtocolVersion is the MCP protocol revision this server speaks.
	ProtocolVersion = "2024-11-05"

	// maxBodyBytes bounds inbound request bodies.
	maxBodyBytes = 1 << 20
)

// Handlers serves the MCP JSON-RPC endpoint. One instance handles all
// requests; it holds no per-call state, so concurrent use is safe.
type Handlers struct {
	authToken     string
	registry      *usecase.Registry
	serverName    string
	serverVersion string
	logger        *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(authToken string, registry *usecase.Registry, serverName, serverVersion string, logger *slog.Logger) *Handlers {
	return &Handlers{
		authToken:     authToken,
		registry:      registry,
		serverName:    serverName,
		serverVersion: serverVersion,
		logger:        logger.With("component", "mcphttp_handler"),
	}
}

// RegisterRoutes sets up the HTTP routes for the MCP endpoint.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /mcp", h.handleMCP)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleMCP implements POST /mcp. Authorization is checked before the body
// is even read; transport-level failures (auth, malformed JSON) bypass
// JSON-RPC shaping entirely.
func (h *Handlers) handleMCP(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(slog.String("request_id", uuid.NewString()))

	if !h.authorized(r.Header.Get("Authorization")) {
		log.Warn("Rejected unauthorized request", slog.String("remote", r.RemoteAddr))
		w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("Failed to read request body", slog.Any("error", err))
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req mcpjsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("Malformed JSON body", slog.Any("error", err))
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}

	log = log.With(slog.String("method", req.Method))

	// Notifications never get a response body, whatever the method. Clients
	// treat any body on a notification as a protocol violation.
	if req.IsNotification() {
		log.Debug("Notification received, no response body")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := h.route(r, &req)
	h.writeResponse(w, log, resp)
}

// route is the method state machine: a closed set of supported methods with
// one handler each. Anything unmatched falls to method-not-found, never to a
// default pass-through.
func (h *Handlers) route(r *http.Request, req *mcpjsonrpc.Request) mcpjsonrpc.Response {
	switch req.Method {
	case "initialize":
		return mcpjsonrpc.NewResult(req.ID, domain.InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      domain.ServerInfo{Name: h.serverName, Version: h.serverVersion},
		})
	case "tools/list":
		return mcpjsonrpc.NewResult(req.ID, domain.ListToolsResult{Tools: h.registry.List()})
	case "tools/call":
		return h.routeToolCall(r, req)
	default:
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (h *Handlers) routeToolCall(r *http.Request, req *mcpjsonrpc.Request) mcpjsonrpc.Response {
	var params toolCallParams
	if len(req.Params) == 0 {
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, "Invalid parameters for tools/call: missing params")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, "Invalid parameters for tools/call: "+err.Error())
	}
	if params.Name == "" {
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, "Invalid parameters for tools/call: missing tool name")
	}

	result, err := h.registry.Call(r.Context(), params.Name, params.Arguments)
	switch {
	case errors.Is(err, usecase.ErrToolNotFound):
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeServerErrorToolNotFound, "Tool not found: "+params.Name)
	case errors.Is(err, usecase.ErrInvalidArguments):
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, err.Error())
	case err != nil:
		return mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInternalError, "Internal error")
	}
	return mcpjsonrpc.NewResult(req.ID, result)
}

// authorized compares the presented bearer token with the shared secret in
// constant time to avoid leaking the secret through timing.
func (h *Handlers) authorized(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) == 1
}

func (h *Handlers) writeResponse(w http.ResponseWriter, log *slog.Logger, resp mcpjsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("Failed to encode response", slog.Any("error", err))
		return
	}
	if resp.Error != nil {
		log.Info("Responded with JSON-RPC error", slog.Int("code", resp.Error.Code), slog.String("message", resp.Error.Message))
	} else {
		log.Debug("Responded with result")
	}
}
