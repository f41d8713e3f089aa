package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// stubCoordinator scripts the coordinator RPC surface.
type stubCoordinator struct {
	lastRequest *lbv1.AIRequest
	response    *lbv1.AIResponse
	err         error
	rebalanced  bool
}

func (s *stubCoordinator) RegisterWorker(ctx context.Context, in *lbv1.WorkerInfo, _ ...grpc.CallOption) (*lbv1.Registration, error) {
	return &lbv1.Registration{Success: true}, nil
}

func (s *stubCoordinator) DeregisterWorker(ctx context.Context, in *lbv1.DeregisterRequest, _ ...grpc.CallOption) (*lbv1.DeregisterResponse, error) {
	return &lbv1.DeregisterResponse{Success: true}, nil
}

func (s *stubCoordinator) GetAvailableModels(ctx context.Context, in *lbv1.Empty, _ ...grpc.CallOption) (*lbv1.ModelList, error) {
	return &lbv1.ModelList{
		Models:      []*lbv1.ModelInfo{{Name: "llama3.2:1b", Parameters: 1e9, ComplexityScore: 4}},
		TotalModels: 1,
	}, nil
}

func (s *stubCoordinator) RebalanceAssignments(ctx context.Context, in *lbv1.Empty, _ ...grpc.CallOption) (*lbv1.AssignmentList, error) {
	s.rebalanced = true
	return &lbv1.AssignmentList{Success: true}, nil
}

func (s *stubCoordinator) ProcessRequest(ctx context.Context, in *lbv1.AIRequest, _ ...grpc.CallOption) (*lbv1.AIResponse, error) {
	s.lastRequest = in
	return s.response, s.err
}

func (s *stubCoordinator) HealthCheck(ctx context.Context, in *lbv1.Empty, _ ...grpc.CallOption) (*lbv1.HealthStatus, error) {
	return &lbv1.HealthStatus{Healthy: true, ConnectedClients: 2, ActiveModels: 2}, nil
}

func newTestServer(t *testing.T) (*Server, *stubCoordinator) {
	t.Helper()
	chat, err := OpenChatStore(filepath.Join(t.TempDir(), "chat.json"))
	require.NoError(t, err)
	stub := &stubCoordinator{
		response: &lbv1.AIResponse{
			RequestID:      "req-1",
			Success:        true,
			ResponseText:   "the fleet says hello",
			ProcessingTime: 1.5,
			ModelUsed:      "gemma3:1b",
		},
	}
	return NewServer(stub, NewRAGStore(), chat, zerolog.Nop()), stub
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQueryForwardsAndPersists(t *testing.T) {
	srv, stub := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/query", QueryRequest{Prompt: "hello fleet", SessionID: "sess-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "the fleet says hello", resp.Response)
	require.Equal(t, "sess-1", resp.SessionID)
	require.Equal(t, "req-1", resp.Metadata.RequestID)
	require.Equal(t, "gemma3:1b", resp.Metadata.ModelInfo)

	// Prompt was wrapped with the system preamble and question marker.
	require.Contains(t, stub.lastRequest.Prompt, "User Question: hello fleet")

	// Both turns were persisted to the session.
	require.Len(t, srv.chat.Recent("sess-1", 10), 2)
}

func TestQueryIncludesRAGContextWhenRequested(t *testing.T) {
	srv, stub := newTestServer(t)
	srv.rag.Add("fleet notes", "the fleet has five workers with mixed GPUs")
	router := srv.Routes()

	postJSON(t, router, "/query", QueryRequest{Prompt: "how big is the fleet?", UseRAG: true})
	require.Contains(t, stub.lastRequest.Prompt, "mixed GPUs")

	postJSON(t, router, "/query", QueryRequest{Prompt: "how big is the fleet?"})
	require.NotContains(t, stub.lastRequest.Prompt, "mixed GPUs")
}

func TestQueryIncludesChatHistory(t *testing.T) {
	srv, stub := newTestServer(t)
	_, err := srv.chat.Append("sess-1", "user", "my name is Robin")
	require.NoError(t, err)
	router := srv.Routes()

	postJSON(t, router, "/query", QueryRequest{Prompt: "what is my name?", SessionID: "sess-1"})
	require.Contains(t, stub.lastRequest.Prompt, "my name is Robin")
}

func TestQueryPassesImagesThrough(t *testing.T) {
	srv, stub := newTestServer(t)
	router := srv.Routes()

	postJSON(t, router, "/query", QueryRequest{Prompt: "what is this?", Images: []string{"aGVsbG8="}})
	require.Equal(t, []string{"aGVsbG8="}, stub.lastRequest.Images)
}

func TestQueryValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/query", QueryRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("{broken")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryGeneratesSessionID(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/query", QueryRequest{Prompt: "hi"})
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
}

func TestReassignPassthrough(t *testing.T) {
	srv, stub := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/reassign", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, stub.rebalanced)
}

func TestStatusMergesHealthAndModels(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["healthy"])
	require.NotEmpty(t, body["models"])
}

func TestRAGEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/rag/documents", map[string]string{"title": "notes", "content": "tomatoes like sun"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	rec = postJSON(t, router, "/rag/search", map[string]any{"query": "tomatoes"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tomatoes like sun")

	req := httptest.NewRequest(http.MethodDelete, "/rag/documents/"+doc.ID, nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNoContent, rec2.Code)
}

func TestChatEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Routes()

	rec := postJSON(t, router, "/chat/sessions", map[string]string{"title": "plans"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Contains(t, rec2.Body.String(), "plans")

	data, _ := json.Marshal(map[string]string{"title": "renamed"})
	req = httptest.NewRequest(http.MethodPut, "/chat/sessions/"+sess.ID+"/title", bytes.NewReader(data))
	rec2 = httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNoContent, rec2.Code)

	req = httptest.NewRequest(http.MethodDelete, "/chat/sessions/"+sess.ID, nil)
	rec2 = httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNoContent, rec2.Code)

	req = httptest.NewRequest(http.MethodGet, "/chat/sessions/"+sess.ID, nil)
	rec2 = httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNotFound, rec2.Code)
}
