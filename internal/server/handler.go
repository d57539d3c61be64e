package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repowiki/internal/events"
	"repowiki/internal/pipeline"
	"repowiki/internal/store"
	"repowiki/internal/worker"
)

// Service holds every collaborator the HTTP surface touches.
type Service struct {
	store *store.Store
	orch  *pipeline.Orchestrator
	queue *worker.Queue
	hub   *events.Hub
}

func NewService(st *store.Store, orch *pipeline.Orchestrator, queue *worker.Queue, hub *events.Hub) *Service {
	return &Service{store: st, orch: orch, queue: queue, hub: hub}
}

// BuildMux registers every route on a new ServeMux.
func BuildMux(s *Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/warehouses", s.handleCreateWarehouse)
	mux.HandleFunc("GET /api/warehouses", s.handleListWarehouses)
	mux.HandleFunc("GET /api/warehouses/{id}", s.handleGetWarehouse)
	mux.HandleFunc("DELETE /api/warehouses/{id}", s.handleDeleteWarehouse)
	mux.HandleFunc("GET /api/warehouses/{id}/status", s.handleStatus)
	mux.HandleFunc("POST /api/warehouses/{id}/process", s.handleProcess)
	mux.HandleFunc("POST /api/warehouses/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/warehouses/{id}/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/warehouses/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/warehouses/{id}/documents/{path...}", s.handleGetDocument)
	mux.HandleFunc("GET /api/warehouses/{id}/overview", s.handleOverview)
	mux.HandleFunc("GET /api/warehouses/{id}/minimap", s.handleMiniMap)
	if s.hub != nil {
		mux.HandleFunc("GET /ws/events", s.hub.HandleWS)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type createWarehouseRequest struct {
	Name        string `json:"name"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
	RepoPath    string `json:"repoPath"`
	IsPublic    bool   `json:"isPublic"`
	Config      string `json:"config"`
}

type warehouseResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Taxonomy      string `json:"taxonomy,omitempty"`
	IsActive      bool   `json:"isActive"`
	IsPublic      bool   `json:"isPublic"`
	DocumentCount int    `json:"documentCount"`
	ViewCount     int    `json:"viewCount"`
	RepoPath      string `json:"repoPath"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func toWarehouseResponse(w *store.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Name:          w.Name,
		Description:   w.Description,
		Taxonomy:      w.Taxonomy,
		IsActive:      w.IsActive,
		IsPublic:      w.IsPublic,
		DocumentCount: w.DocumentCount,
		ViewCount:     w.ViewCount,
		RepoPath:      w.RepoPath,
		CreatedAt:     w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     w.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Service) handleCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if strings.TrimSpace(req.RepoPath) == "" {
		writeError(w, http.StatusBadRequest, "repoPath is required")
		return
	}
	wh := &store.Warehouse{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		RepoPath:    req.RepoPath,
		IsActive:    true,
		IsPublic:    req.IsPublic,
		Config:      req.Config,
	}
	if err := s.store.CreateWarehouse(r.Context(), wh); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toWarehouseResponse(wh))
}

func (s *Service) handleListWarehouses(w http.ResponseWriter, r *http.Request) {
	whs, err := s.store.ListWarehouses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]warehouseResponse, 0, len(whs))
	for _, wh := range whs {
		out = append(out, toWarehouseResponse(wh))
	}
	writeJSON(w, http.StatusOK, map[string]any{"warehouses": out})
}

func (s *Service) handleGetWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := s.store.GetWarehouse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWarehouseResponse(wh))
}

func (s *Service) handleDeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWarehouse(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.orch.Status(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"warehouseId": id, "state": string(state)})
}

func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetWarehouse(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	enqueued := s.queue.Enqueue(worker.TaskProcess, id)
	writeJSON(w, http.StatusAccepted, map[string]any{"warehouseId": id, "enqueued": enqueued})
}

func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetWarehouse(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	enqueued := s.queue.Enqueue(worker.TaskReset, id)
	writeJSON(w, http.StatusAccepted, map[string]any{"warehouseId": id, "enqueued": enqueued})
}

func (s *Service) handleCatalog(w http.ResponseWriter, r *http.Request) {
	tree, analysis, commitID, err := s.store.GetCatalog(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"structure": json.RawMessage(tree),
		"analysis":  analysis,
		"commitId":  commitID,
	})
}

func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	type docSummary struct {
		Path      string `json:"path"`
		Title     string `json:"title"`
		UpdatedAt string `json:"updatedAt"`
	}
	out := make([]docSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, docSummary{Path: d.Path, Title: d.Title, UpdatedAt: d.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Service) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	path := r.PathValue("path")
	if strings.TrimSpace(path) == "" {
		writeError(w, http.StatusBadRequest, "document path is required")
		return
	}
	doc, err := s.store.GetDocument(r.Context(), id, path)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":    doc.Path,
		"title":   doc.Title,
		"content": doc.Content,
	})
}

func (s *Service) handleOverview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	content, err := s.store.GetOverview(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.store.IncrementViewCount(r.Context(), id); err != nil {
		log.Printf("increment view count for %s: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"warehouseId": id, "content": content})
}

func (s *Service) handleMiniMap(w http.ResponseWriter, r *http.Request) {
	graph, err := s.store.GetMiniMap(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(graph)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
