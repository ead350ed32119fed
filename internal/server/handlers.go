package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/magflat/pkg/buildinfo"
	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/pipeline"
)

type layerSummary struct {
	Name   string       `json:"name"`
	Rects  int          `json:"rects"`
	Bounds *geom.Bounds `json:"bounds,omitempty"`
}

type layersResponse struct {
	Cell   string         `json:"cell"`
	Tech   string         `json:"tech,omitempty"`
	Layers []layerSummary `json:"layers"`
}

type layerResponse struct {
	Cell  string     `json:"cell"`
	Layer string     `json:"layer"`
	Rects [][4]int64 `json:"rects"`
}

type boundsResponse struct {
	Cell   string      `json:"cell"`
	Bounds geom.Bounds `json:"bounds"`
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	f, err := s.flatten(r.Context(), chi.URLParam(r, "cell"))
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	resp := layersResponse{Cell: f.Cell.Name, Tech: f.Cell.Tech, Layers: []layerSummary{}}
	for _, name := range f.Cell.Layers() {
		l := layerSummary{Name: name, Rects: f.Cell.RectCount(name)}
		if b, err := f.Cell.LayerBounds(name); err == nil {
			l.Bounds = &b
		}
		resp.Layers = append(resp.Layers, l)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	layer := chi.URLParam(r, "layer")
	if err := errors.ValidateLayerName(layer); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	f, err := s.flatten(r.Context(), chi.URLParam(r, "cell"))
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	rects, err := f.Cell.LayerRects(layer)
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	resp := layerResponse{Cell: f.Cell.Name, Layer: layer, Rects: make([][4]int64, len(rects))}
	for i, rect := range rects {
		resp.Rects[i] = [4]int64{rect.XMin, rect.YMin, rect.XMax, rect.YMax}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	f, err := s.flatten(r.Context(), chi.URLParam(r, "cell"))
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	b, err := f.Cell.Bounds()
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, boundsResponse{Cell: f.Cell.Name, Bounds: b})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{
		Layer:   r.URL.Query().Get("layer"),
		Overlay: r.URL.Query()["overlay"],
		Fill:    r.URL.Query().Get("fill"),
		Formats: []string{pipeline.FormatSVG},
	}
	if err := opts.ValidateForRender(); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	f, err := s.flatten(r.Context(), chi.URLParam(r, "cell"))
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	artifacts, err := s.runner.Render(r.Context(), f.Cell, opts)
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCellName, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeFileNotFound, errors.ErrCodeLayerNotFound:
		return http.StatusNotFound
	case errors.ErrCodeStructural, errors.ErrCodeCycle, errors.ErrCodeDepthExceeded, errors.ErrCodeEmptyBounds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, status int) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}
