// Package relay implements the HTTP relay between chat front ends and the
// upstream assistant gateway.
package relay

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/leaflogic/leaflogic/internal/assistant"
	"github.com/leaflogic/leaflogic/internal/plantcontext"
	"github.com/leaflogic/leaflogic/internal/telemetry"
)

// Server handles relay requests. It holds no per-conversation state: the only
// state carried between requests is the thread ID, which lives with the caller.
type Server struct {
	gateway     assistant.Gateway
	assistantID string
	poll        PollPolicy
	tracer      trace.Tracer
}

func NewServer(gateway assistant.Gateway, assistantID string, poll PollPolicy) *Server {
	return &Server{
		gateway:     gateway,
		assistantID: assistantID,
		poll:        poll,
		tracer:      telemetry.Tracer(),
	}
}

// Router returns the relay's HTTP routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.HandleFunc("/create-thread", s.handleCreateThread).Methods(http.MethodPost)
	r.HandleFunc("/ask-assistant", s.handleAskAssistant).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

type askRequest struct {
	Message      string                 `json:"message"`
	PlantContext *plantcontext.Snapshot `json:"plantContext"`
	ThreadID     string                 `json:"threadId"`
}

type askResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"threadId"`
}

type createThreadResponse struct {
	ThreadID string `json:"threadId"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "relay.create_thread")
	defer span.End()

	threadID, err := s.gateway.CreateThread(ctx)
	if err != nil {
		log.Printf("Error creating thread: %v", err)
		requestsTotal.WithLabelValues("create-thread", "error").Inc()
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create thread"})
		return
	}

	log.Printf("New thread created: %s", threadID)
	requestsTotal.WithLabelValues("create-thread", "ok").Inc()
	writeJSON(w, http.StatusOK, createThreadResponse{
		ThreadID: threadID,
		Message:  "New conversation thread created",
	})
}

func (s *Server) handleAskAssistant(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "relay.ask_assistant")
	defer span.End()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestsTotal.WithLabelValues("ask-assistant", "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if req.Message == "" {
		requestsTotal.WithLabelValues("ask-assistant", "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	reply, threadID, err := s.relayMessage(ctx, req)
	switch {
	case errors.Is(err, ErrRunTimeout):
		log.Printf("Timed out waiting for run on thread %s", threadID)
		requestsTotal.WithLabelValues("ask-assistant", "timeout").Inc()
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "Timed out waiting for the assistant"})
	case err != nil:
		log.Printf("Error processing message: %v", err)
		requestsTotal.WithLabelValues("ask-assistant", "error").Inc()
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong"})
	default:
		requestsTotal.WithLabelValues("ask-assistant", "ok").Inc()
		writeJSON(w, http.StatusOK, askResponse{Response: reply, ThreadID: threadID})
	}
}

// requestIDMiddleware tags each response with a request ID for log correlation,
// keeping the caller's ID when one was sent
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = telemetry.NewRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response body: %v", err)
	}
}
