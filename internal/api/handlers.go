package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gravitylab/gravita/pkg/engine"
	"github.com/gravitylab/gravita/pkg/errors"
	"github.com/gravitylab/gravita/pkg/pipeline"
	"github.com/gravitylab/gravita/pkg/store"
)

// layoutResponse is the body returned by POST /v1/layout.
type layoutResponse struct {
	ID        string            `json:"id"`
	SceneHash string            `json:"scene_hash"`
	Result    *engine.Result    `json:"result"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	CacheHits map[string]bool   `json:"cache_hits,omitempty"`
}

// errorResponse is the body returned for any failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLayout runs the pipeline over an inline scene and persists the
// result.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode request body"))
		return
	}
	if len(opts.Scene) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidScene, "scene is required"))
		return
	}
	// The API never reads server-local files.
	opts.ScenePath = ""
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	rec := store.Record{
		ID:        res.PassID,
		CreatedAt: time.Now().UTC(),
		SceneHash: res.SceneHash,
		Config:    opts.Configuration(),
		Result:    *res.Layout,
	}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.logger.Error("persist layout record", "id", rec.ID, "err", err)
		writeError(w, err)
		return
	}

	resp := layoutResponse{
		ID:        res.PassID,
		SceneHash: res.SceneHash,
		Result:    res.Layout,
		CacheHits: res.CacheInfo.ArtifactHits,
	}
	if len(res.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(res.Artifacts))
		for format, data := range res.Artifacts {
			resp.Artifacts[format] = string(data)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	const defaultLimit = 20
	recs, err := s.store.List(r.Context(), defaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidScene, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidGeometry:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeElementNotRendered, errors.ErrCodeGroupLayout:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}
