// Package api holds the wire types and routing of the REST API described in
// api/openapi.yaml.
package api

import "time"

// Defines values for HealthResponseStatus.
const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// Defines values for OverlayState.
const (
	Synced   OverlayState = "synced"
	Unsynced OverlayState = "unsynced"
)

// Defines values for LayerId.
const (
	Background LayerId = "background"
	Image      LayerId = "image"
	Clip       LayerId = "clip"
)

// Defines values for LayerKind.
const (
	Tile   LayerKind = "tile"
	Raster LayerKind = "image"
	Vector LayerKind = "vector"
)

// Defines values for TranslatePhase.
const (
	Start TranslatePhase = "start"
	Move  TranslatePhase = "move"
	End   TranslatePhase = "end"
)

// Defines values for ValidationErrorResponseError.
const (
	VALIDATIONERROR ValidationErrorResponseError = "VALIDATION_ERROR"
)

// Extent [min_x, min_y, max_x, max_y]
type Extent = []float64

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`
}

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// Projection defines model for Projection.
type Projection struct {
	Code   string `json:"code"`
	Extent Extent `json:"extent"`
	Units  string `json:"units"`
}

// OverlayState defines model for OverlayState.
type OverlayState string

// OverlayResponse defines model for OverlayResponse.
type OverlayResponse struct {
	// Bbox is the polygon bounding box in EPSG:4326, absent without geometry
	Bbox *Extent `json:"bbox,omitempty"`

	// DisplayExtent is the published image extent in EPSG:3857
	DisplayExtent   Extent       `json:"display_extent"`
	Dragging        bool         `json:"dragging"`
	FeatureRevision int64        `json:"feature_revision"`
	Format          string       `json:"format"`
	Height          int          `json:"height"`
	LayerRevision   int64        `json:"layer_revision"`
	Projection      Projection   `json:"projection"`
	Source          string       `json:"source"`
	State           OverlayState `json:"state"`
	Width           int          `json:"width"`
}

// LayerId defines model for LayerId.
type LayerId string

// LayerKind defines model for LayerKind.
type LayerKind string

// Layer defines model for Layer.
type Layer struct {
	ClassName  *string   `json:"class_name,omitempty"`
	Extent     *Extent   `json:"extent,omitempty"`
	Id         LayerId   `json:"id"`
	Kind       LayerKind `json:"kind"`
	Projection string    `json:"projection"`
	Revision   *int64    `json:"revision,omitempty"`
	Url        *string   `json:"url,omitempty"`
}

// View defines model for View.
type View struct {
	Center     []float64 `json:"center"`
	Projection string    `json:"projection"`
	Zoom       float64   `json:"zoom"`
}

// MapResponse defines model for MapResponse.
type MapResponse struct {
	Layers []Layer `json:"layers"`
	View   View    `json:"view"`
}

// TranslatePhase defines model for TranslateRequest.Phase.
type TranslatePhase string

// TranslateRequest defines model for TranslateRequest.
type TranslateRequest struct {
	// Coordinate is the pointer position in EPSG:4326
	Coordinate []float64      `json:"coordinate"`
	Phase      TranslatePhase `json:"phase"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Details   *map[string]interface{} `json:"details,omitempty"`
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
}

// ValidationErrorResponse defines model for ValidationErrorResponse.
type ValidationErrorResponse struct {
	Error            ValidationErrorResponseError `json:"error"`
	Message          string                       `json:"message"`
	RequestId        *string                      `json:"request_id,omitempty"`
	ValidationErrors []struct {
		Code    *string `json:"code,omitempty"`
		Field   string  `json:"field"`
		Message string  `json:"message"`
	} `json:"validation_errors"`
}

// ValidationErrorResponseError defines model for ValidationErrorResponse.Error.
type ValidationErrorResponseError string
