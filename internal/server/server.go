package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/api"
	"github.com/kiesman99/mapimage/internal/app"
	"github.com/kiesman99/mapimage/internal/interaction"
	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/overlay"
	"github.com/kiesman99/mapimage/pkg/geo"
)

// maxPolygonBody caps PUT /overlay/polygon payloads
const maxPolygonBody = 1 << 20

// Server implements the ServerInterface from the api package
type Server struct {
	startTime time.Time
	version   string
	app       *app.Application
}

// NewServer creates a new server instance serving application
func NewServer(version string, application *app.Application) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		app:       application,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// GetMap returns the view and the layer stack
func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	view := s.app.View()

	response := api.MapResponse{
		View: api.View{
			Center:     []float64{view.Center[0], view.Center[1]},
			Zoom:       view.Zoom,
			Projection: view.Projection,
		},
	}
	for _, l := range s.app.Layers() {
		response.Layers = append(response.Layers, toAPILayer(l))
	}

	s.writeJSON(w, http.StatusOK, response)
}

// GetLayer describes one layer; the clip layer is served as GeoJSON
func (s *Server) GetLayer(w http.ResponseWriter, r *http.Request, layerId api.LayerId) {
	if layerId == api.Clip {
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(s.app.ClipFeatures()); err != nil {
			log.Error("encoding clip layer failed", zap.Error(err))
		}
		return
	}

	info, ok := s.app.Layer(string(layerId))
	if !ok {
		requestID := requestID(r)
		s.writeErrorResponse(w, http.StatusNotFound, "LAYER_NOT_FOUND",
			fmt.Sprintf("unknown layer %q", layerId), &requestID, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, toAPILayer(info))
}

// GetOverlay returns the overlay state
func (s *Server) GetOverlay(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, toAPIOverlay(s.app.Snapshot()))
}

// GetOverlayImage serves the raster bytes as they were loaded
func (s *Server) GetOverlayImage(w http.ResponseWriter, r *http.Request) {
	img := s.app.Image()

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		log.Error("writing image failed", zap.Error(err))
	}
}

// GetOverlayWorldfile serves the world file for the current display extent
func (s *Server) GetOverlayWorldfile(w http.ResponseWriter, r *http.Request) {
	data, ext := s.app.WorldFile()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"overlay%s\"", ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("writing world file failed", zap.Error(err))
	}
}

// ReplaceOverlayPolygon replaces the boundary polygon with a GeoJSON polygon
// and resyncs the overlay
func (s *Server) ReplaceOverlayPolygon(w http.ResponseWriter, r *http.Request) {
	requestID := requestID(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPolygonBody))
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_BODY",
			"Could not read request body", &requestID, nil)
		return
	}

	polygon, err := parsePolygon(body)
	if err != nil {
		s.writeValidationErrorResponse(w, "geometry", err.Error(), &requestID)
		return
	}

	if err := s.app.ReplacePolygon(polygon); err != nil {
		s.handleOverlayError(w, err, &requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, toAPIOverlay(s.app.Snapshot()))
}

// ResyncOverlay republishes the display extent
func (s *Server) ResyncOverlay(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Resync(); err != nil {
		requestID := requestID(r)
		s.handleOverlayError(w, err, &requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, toAPIOverlay(s.app.Snapshot()))
}

// TranslateOverlay applies one drag tick
func (s *Server) TranslateOverlay(w http.ResponseWriter, r *http.Request) {
	requestID := requestID(r)

	var req api.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	if err := validateTranslateRequest(&req); err != nil {
		s.writeValidationErrorResponse(w, "request", err.Error(), &requestID)
		return
	}

	p := orb.Point{req.Coordinate[0], req.Coordinate[1]}
	var err error
	switch req.Phase {
	case api.Start:
		err = s.app.TranslateStart(p)
	case api.Move:
		err = s.app.TranslateMove(p)
	case api.End:
		err = s.app.TranslateEnd(p)
	}
	if err != nil {
		s.handleOverlayError(w, err, &requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, toAPIOverlay(s.app.Snapshot()))
}

// validateTranslateRequest validates the incoming drag tick
func validateTranslateRequest(req *api.TranslateRequest) error {
	switch req.Phase {
	case api.Start, api.Move, api.End:
	default:
		return fmt.Errorf("invalid phase: %q", req.Phase)
	}

	if len(req.Coordinate) != 2 {
		return fmt.Errorf("coordinate must be [lon, lat]")
	}
	if req.Coordinate[0] < -180 || req.Coordinate[0] > 180 ||
		req.Coordinate[1] < -90 || req.Coordinate[1] > 90 {
		return fmt.Errorf("coordinate must be within EPSG:4326 bounds")
	}

	return nil
}

// parsePolygon accepts a GeoJSON Polygon geometry or a Feature holding one
func parsePolygon(body []byte) (orb.Polygon, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %v", err)
	}

	var g orb.Geometry
	switch head.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(body)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON feature: %v", err)
		}
		g = f.Geometry
	default:
		gg, err := geojson.UnmarshalGeometry(body)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON geometry: %v", err)
		}
		g = gg.Geometry()
	}

	polygon, ok := g.(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("geometry must be a Polygon, got %s", geometryType(g))
	}
	if len(polygon) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	for i, ring := range polygon {
		if len(ring) < 4 {
			return nil, fmt.Errorf("ring %d needs at least 4 positions, got %d", i, len(ring))
		}
		if !ring.Closed() {
			return nil, fmt.Errorf("ring %d is not closed", i)
		}
	}
	if e := geo.FromBound(polygon.Bound()); e.MinX() < -180 || e.MaxX() > 180 || e.MinY() < -90 || e.MaxY() > 90 {
		return nil, fmt.Errorf("polygon is outside of EPSG:4326 bounds")
	}

	return polygon, nil
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "nothing"
	}
	return g.GeoJSONType()
}

// handleOverlayError maps overlay and interaction errors to responses
func (s *Server) handleOverlayError(w http.ResponseWriter, err error, requestID *string) {
	switch {
	case errors.Is(err, overlay.ErrMissingGeometry):
		s.writeErrorResponse(w, http.StatusConflict, "MISSING_GEOMETRY",
			"Polygon has no usable extent, display extent left unchanged", requestID, nil)
	case errors.Is(err, interaction.ErrNotTranslating):
		s.writeErrorResponse(w, http.StatusConflict, "NOT_TRANSLATING",
			"No translate in progress, send phase 'start' first", requestID, nil)
	case errors.Is(err, interaction.ErrAlreadyTranslating):
		s.writeErrorResponse(w, http.StatusConflict, "ALREADY_TRANSLATING",
			"A translate is already in progress", requestID, nil)
	default:
		log.Error("overlay operation failed", zap.String("request_id", *requestID), zap.Error(err))
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", requestID, nil)
	}
}

func toAPIOverlay(snap app.Snapshot) api.OverlayResponse {
	state := api.Unsynced
	if snap.State == overlay.Synced {
		state = api.Synced
	}

	response := api.OverlayResponse{
		Source: snap.Source,
		Format: snap.Format,
		Width:  snap.Width,
		Height: snap.Height,
		Projection: api.Projection{
			Code:   snap.Projection.Code,
			Units:  string(snap.Projection.Units),
			Extent: snap.Projection.Extent.Slice(),
		},
		DisplayExtent:   snap.DisplayExtent.Slice(),
		State:           state,
		LayerRevision:   int64(snap.LayerRevision),
		FeatureRevision: int64(snap.FeatureRevision),
		Dragging:        snap.Dragging,
	}
	if snap.Bbox != nil {
		bbox := snap.Bbox.Slice()
		response.Bbox = &bbox
	}
	return response
}

func toAPILayer(info app.LayerInfo) api.Layer {
	layer := api.Layer{
		Id:         api.LayerId(info.ID),
		Kind:       api.LayerKind(info.Kind),
		Projection: info.Projection,
	}
	if info.ClassName != "" {
		layer.ClassName = &info.ClassName
	}
	if info.URL != "" {
		layer.Url = &info.URL
	}
	if info.Extent != nil {
		extent := info.Extent.Slice()
		layer.Extent = &extent
	}
	if info.Kind != app.KindTile {
		revision := int64(info.Revision)
		layer.Revision = &revision
	}
	return layer
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encoding response failed", zap.Error(err))
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	w.Header().Set("Content-Type", "application/json")
	if requestID != nil {
		w.Header().Set("X-Request-ID", *requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, field, message string, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			{
				Field:   field,
				Message: message,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(response)
}

// requestID returns the id set by the RequestID middleware, or a fresh one
func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return "req_" + uuid.NewString()
}
