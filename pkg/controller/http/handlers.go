package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/errutil"
	"github.com/mnemo-lab/mnemo/pkg/utils/safe"
)

const defaultRetrieveLimit = 5

// statusOf maps domain sentinels to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// resolveUserID prefers the explicit user ID and falls back to the
// configured identity provider.
func (s *Server) resolveUserID(r *http.Request, explicit string) (types.UserID, error) {
	if explicit != "" {
		return types.UserID(explicit), nil
	}
	if s.identity != nil {
		return s.identity.GetOrCreateUserID(r.Context())
	}
	return "", goerr.Wrap(types.ErrInvalidInput, "user_id is required")
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

type memoryResponse struct {
	ID             types.RecordID       `json:"id"`
	Content        string               `json:"content"`
	Category       types.Category       `json:"category"`
	Metadata       model.Metadata       `json:"metadata,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	AccessCount    int64                `json:"access_count"`
	State          types.LifecycleState `json:"state"`
	HasEmbedding   bool                 `json:"has_embedding"`
}

func toMemoryResponse(record *model.MemoryRecord) memoryResponse {
	return memoryResponse{
		ID:             record.ID,
		Content:        record.Content,
		Category:       record.Category,
		Metadata:       record.Metadata,
		CreatedAt:      record.CreatedAt,
		LastAccessedAt: record.LastAccessedAt,
		AccessCount:    record.AccessCount,
		State:          record.State,
		HasEmbedding:   record.HasEmbedding(),
	}
}

func (s *Server) saveMemoryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string         `json:"user_id"`
		Content  string         `json:"content"`
		Metadata model.Metadata `json:"metadata"`
		Category string         `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(types.ErrInvalidInput, "invalid request body"), http.StatusBadRequest)
		return
	}

	userID, err := s.resolveUserID(r, req.UserID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	id, err := s.uc.Save(r.Context(), userID, req.Content, req.Metadata, types.Category(req.Category))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":      id,
		"user_id": userID,
	})
}

func (s *Server) retrieveMemoriesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := s.resolveUserID(r, q.Get("user_id"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	limit := defaultRetrieveLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(types.ErrInvalidInput, "invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var opts []usecase.RetrieveOption
	if category := q.Get("category"); category != "" {
		opts = append(opts, usecase.WithCategory(types.Category(category)))
	}

	records, err := s.uc.Retrieve(r.Context(), userID, q.Get("query"), limit, opts...)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	memories := make([]memoryResponse, len(records))
	for i, record := range records {
		memories[i] = toMemoryResponse(record)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"memories": memories})
}

func (s *Server) forgetMemoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	id, err := types.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	if err := s.uc.Forget(r.Context(), userID, id); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	stats, err := s.uc.Stats(r.Context(), userID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) maintenanceHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.uc.RunMaintenance(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) purgeHandler(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	deleted, err := s.uc.Purge(r.Context(), userID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"deleted": deleted})
}
