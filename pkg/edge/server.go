// Package edge is the HTTP front of the fleet: it enriches user
// prompts with retrieval context and chat history, forwards them to the
// coordinator, and exposes the document and session stores.
package edge

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// historyDepth is how many recent chat turns travel with each query.
const historyDepth = 5

// Server hosts the edge HTTP API.
type Server struct {
	coordinator lbv1.CoordinatorClient
	rag         *RAGStore
	chat        *ChatStore
	log         zerolog.Logger
}

func NewServer(coordinator lbv1.CoordinatorClient, rag *RAGStore, chat *ChatStore, log zerolog.Logger) *Server {
	return &Server{coordinator: coordinator, rag: rag, chat: chat, log: log}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/reassign", s.handleReassign).Methods(http.MethodPost)

	rag := r.PathPrefix("/rag").Subrouter()
	rag.HandleFunc("/documents", s.handleRAGAdd).Methods(http.MethodPost)
	rag.HandleFunc("/documents/{id}", s.handleRAGDelete).Methods(http.MethodDelete)
	rag.HandleFunc("/search", s.handleRAGSearch).Methods(http.MethodPost)

	chat := r.PathPrefix("/chat").Subrouter()
	chat.HandleFunc("/sessions", s.handleChatList).Methods(http.MethodGet)
	chat.HandleFunc("/sessions", s.handleChatCreate).Methods(http.MethodPost)
	chat.HandleFunc("/sessions/{id}", s.handleChatGet).Methods(http.MethodGet)
	chat.HandleFunc("/sessions/{id}", s.handleChatDelete).Methods(http.MethodDelete)
	chat.HandleFunc("/sessions/{id}/title", s.handleChatRename).Methods(http.MethodPut)
	return r
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Prompt    string   `json:"prompt"`
	SessionID string   `json:"session_id,omitempty"`
	UseRAG    bool     `json:"use_rag,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// QueryResponse answers POST /query.
type QueryResponse struct {
	Success   bool          `json:"success"`
	Response  string        `json:"response"`
	SessionID string        `json:"session_id"`
	Metadata  QueryMetadata `json:"metadata"`
}

type QueryMetadata struct {
	RequestID      string  `json:"request_id"`
	ProcessingTime float64 `json:"processing_time"`
	ModelInfo      string  `json:"model_info"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		httpError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var docs []ScoredDocument
	if req.UseRAG {
		docs = s.rag.Search(req.Prompt, 3)
	}
	history := s.chat.Recent(sessionID, historyDepth)

	resp, err := s.coordinator.ProcessRequest(r.Context(), &lbv1.AIRequest{
		Prompt: buildPrompt(req.Prompt, docs, history, len(req.Images) > 0),
		Images: req.Images,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("❌ coordinator call failed")
		httpError(w, http.StatusBadGateway, "coordinator unavailable")
		return
	}

	if resp.Success {
		if _, err := s.chat.Append(sessionID, "user", req.Prompt); err != nil {
			s.log.Warn().Err(err).Msg("⚠️ failed to persist user turn")
		}
		if _, err := s.chat.Append(sessionID, "assistant", resp.ResponseText); err != nil {
			s.log.Warn().Err(err).Msg("⚠️ failed to persist assistant turn")
		}
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Success:   resp.Success,
		Response:  resp.ResponseText,
		SessionID: sessionID,
		Metadata: QueryMetadata{
			RequestID:      resp.RequestID,
			ProcessingTime: resp.ProcessingTime,
			ModelInfo:      resp.ModelUsed,
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.coordinator.HealthCheck(r.Context(), &lbv1.Empty{})
	if err != nil {
		httpError(w, http.StatusBadGateway, "coordinator unavailable")
		return
	}
	models, err := s.coordinator.GetAvailableModels(r.Context(), &lbv1.Empty{})
	if err != nil {
		httpError(w, http.StatusBadGateway, "coordinator unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"healthy":           health.Healthy,
		"message":           health.Message,
		"connected_clients": health.ConnectedClients,
		"active_models":     health.ActiveModels,
		"models":            models.Models,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.coordinator.HealthCheck(r.Context(), &lbv1.Empty{})
	if err != nil {
		httpError(w, http.StatusBadGateway, "coordinator unavailable")
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	list, err := s.coordinator.RebalanceAssignments(r.Context(), &lbv1.Empty{})
	if err != nil {
		httpError(w, http.StatusBadGateway, "coordinator unavailable")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRAGAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		httpError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	doc := s.rag.Add(req.Title, req.Content)
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleRAGDelete(w http.ResponseWriter, r *http.Request) {
	if !s.rag.Delete(mux.Vars(r)["id"]) {
		httpError(w, http.StatusNotFound, "unknown document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRAGSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		httpError(w, http.StatusBadRequest, "query is required")
		return
	}
	results := s.rag.Search(req.Query, req.TopK)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.chat.List()})
}

func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	// Body is optional; an empty one creates an untitled session.
	_ = json.NewDecoder(r.Body).Decode(&req)
	sess, err := s.chat.Create(req.Title)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.chat.Get(mux.Vars(r)["id"])
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleChatDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := s.chat.Delete(mux.Vars(r)["id"])
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to persist deletion")
		return
	}
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httpError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.chat.Rename(mux.Vars(r)["id"], req.Title); err != nil {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
