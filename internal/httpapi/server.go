// Package httpapi exposes recommendation sessions over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
	"PlantScout/internal/publisher"
	"PlantScout/internal/usecase"
)

// Recommendations is the use case behind the plant routes.
type Recommendations interface {
	Recommend(ctx context.Context, q domain.Query, w io.Writer) error
	Plant(ctx context.Context, scientific string) (domain.Plant, error)
	Cached(ctx context.Context, q domain.Query) ([]domain.Plant, error)
	Search(ctx context.Context, name string) ([]domain.Plant, error)
}

// Gardens saves and shares plant lists.
type Gardens interface {
	Create(ctx context.Context, q domain.Query, draft usecase.GardenDraft) (domain.GardenKeys, error)
	Update(ctx context.Context, writeID string, draft usecase.GardenDraft) error
	Get(ctx context.Context, id string) (domain.Garden, error)
}

// Nurseries lists plant sellers near a zip code.
type Nurseries interface {
	Near(ctx context.Context, zip string) ([]domain.Nursery, error)
}

// Deps lists the use cases served. Nil Gardens, Nurseries or Gatherer leave
// their routes unregistered.
type Deps struct {
	Recommendations Recommendations
	Gardens         Gardens
	Nurseries       Nurseries
	Gatherer        prometheus.Gatherer
	Logger          *slog.Logger
}

// Handler routes requests to the use cases.
type Handler struct {
	recs      Recommendations
	gardens   Gardens
	nurseries Nurseries
	logger    *slog.Logger
	mux       *http.ServeMux
}

const maxBodyBytes = 1 << 20

// NewHandler registers every route.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		recs:      deps.Recommendations,
		gardens:   deps.Gardens,
		nurseries: deps.Nurseries,
		logger:    logger,
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /plants", h.handlePlants)
	h.mux.HandleFunc("GET /plants/stream", h.handleStream)
	h.mux.HandleFunc("GET /plants/{scientific}", h.handlePlant)
	if h.gardens != nil {
		h.mux.HandleFunc("POST /gardens", h.handleCreateGarden)
		h.mux.HandleFunc("GET /gardens/{id}", h.handleGetGarden)
		h.mux.HandleFunc("PUT /gardens/{id}", h.handleUpdateGarden)
	}
	if h.nurseries != nil {
		h.mux.HandleFunc("GET /nurseries", h.handleNurseries)
	}
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if deps.Gatherer != nil {
		h.mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleStream handles GET /plants/stream?zip=&shade=&moisture=
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := usecase.ParseQuery(params.Get("zip"), params.Get("shade"), params.Get("moisture"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	publisher.SetHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := h.recs.Recommend(r.Context(), q, w); err != nil {
		h.logger.Debug("stream ended early", "zip", q.Zip, "error", err)
	}
}

// handlePlants handles GET /plants?name= and GET /plants?zip=&shade=&moisture=
func (h *Handler) handlePlants(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	name := params.Get("name")
	byQuery := params.Has("zip") || params.Has("shade") || params.Has("moisture")

	var (
		plants []domain.Plant
		err    error
	)
	switch {
	case name != "" && !byQuery:
		plants, err = h.recs.Search(r.Context(), name)
	case name == "" && byQuery:
		q, parseErr := usecase.ParseQuery(params.Get("zip"), params.Get("shade"), params.Get("moisture"))
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr)
			return
		}
		plants, err = h.recs.Cached(r.Context(), q)
	default:
		writeError(w, http.StatusBadRequest, errors.New("either name or zip, shade and moisture are required"))
		return
	}
	if err != nil {
		h.fail(w, "plant search failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, plants)
}

// handlePlant handles GET /plants/{scientific}
func (h *Handler) handlePlant(w http.ResponseWriter, r *http.Request) {
	plant, err := h.recs.Plant(r.Context(), r.PathValue("scientific"))
	if err != nil {
		h.fail(w, "plant lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, plant)
}

type gardenRequest struct {
	PlantIDs    []int64 `json:"plantIds"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Zipcode     string  `json:"zipcode"`
	Shade       string  `json:"shade"`
	Moisture    string  `json:"moisture"`
}

func (g gardenRequest) draft() usecase.GardenDraft {
	return usecase.GardenDraft{Name: g.Name, Description: g.Description, PlantIDs: g.PlantIDs}
}

// handleCreateGarden handles POST /gardens
func (h *Handler) handleCreateGarden(w http.ResponseWriter, r *http.Request) {
	var req gardenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q, err := usecase.ParseQuery(req.Zipcode, req.Shade, req.Moisture)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	keys, err := h.gardens.Create(r.Context(), q, req.draft())
	if err != nil {
		h.fail(w, "save garden failed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, keys)
}

// handleGetGarden handles GET /gardens/{id} for read and write ids.
func (h *Handler) handleGetGarden(w http.ResponseWriter, r *http.Request) {
	garden, err := h.gardens.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "garden lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, garden)
}

// handleUpdateGarden handles PUT /gardens/{id} where id is the write id.
func (h *Handler) handleUpdateGarden(w http.ResponseWriter, r *http.Request) {
	var req gardenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.gardens.Update(r.Context(), r.PathValue("id"), req.draft()); err != nil {
		h.fail(w, "update garden failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNurseries handles GET /nurseries?zip=
func (h *Handler) handleNurseries(w http.ResponseWriter, r *http.Request) {
	zip, err := usecase.ParseZip(r.URL.Query().Get("zip"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	nurseries, err := h.nurseries.Near(r.Context(), zip)
	if err != nil {
		h.fail(w, "nursery lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, nurseries)
}

// fail maps use case errors to status codes and logs unexpected ones.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, usecase.ErrInvalidGarden), errors.Is(err, usecase.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ports.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
