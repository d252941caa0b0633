package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/precisionrag/backend/internal/core/ports"
	"github.com/precisionrag/backend/internal/observability/metrics"
)

// uploadSizeLimit bounds the multipart body read into memory.
const uploadSizeLimit = 64 << 20

type Router struct {
	ingestor ports.DocumentIngestor
	chat     ports.ChatService
	reindex  ports.ReindexTrigger
	docs     ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
	service  string
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	chat ports.ChatService,
	reindex ports.ReindexTrigger,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	service string,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		ingestor: ingestor,
		chat:     chat,
		reindex:  reindex,
		docs:     docs,
		metrics:  m,
		logger:   logger,
		service:  service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/upload", rt.uploadDocument)
	mux.HandleFunc("/ingest", rt.triggerIngest)
	mux.HandleFunc("/chat", rt.handleChat)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	handler := http.Handler(mux)
	handler = accessLogMiddleware(rt.logger, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadSizeLimit)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, "upload", err)
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{
		ID:       doc.ID,
		Filename: doc.Filename,
		Status:   string(doc.Status),
	})
}

func (rt *Router) triggerIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	runID, err := rt.reindex.TriggerReindex(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "ingest", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ingestResponse{RunID: runID, Status: "accepted"})
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	answer, err := rt.chat.Chat(r.Context(), req.Query, req.LLMChoice, req.APIKey)
	if err != nil {
		rt.writeDomainError(w, r, "chat", err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChatObservation(rt.service, req.LLMChoice, len(answer.Sources), time.Since(start))
	}

	resp := chatResponse{Answer: answer.Text, Sources: make([]chatSource, 0, len(answer.Sources))}
	for _, chunk := range answer.Sources {
		resp.Sources = append(resp.Sources, chatSource{
			Text:   chunk.Text,
			Source: chunk.Source,
			Page:   chunk.Page,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "get_document", err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		ID:        doc.ID,
		Filename:  doc.Filename,
		MimeType:  doc.MimeType,
		Status:    string(doc.Status),
		Error:     doc.Error,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
