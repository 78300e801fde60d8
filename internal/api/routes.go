package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Health check
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// Map view and layer stack
	// (GET /map)
	GetMap(w http.ResponseWriter, r *http.Request)
	// Describe one layer
	// (GET /layers/{layerId})
	GetLayer(w http.ResponseWriter, r *http.Request, layerId LayerId)
	// Overlay state
	// (GET /overlay)
	GetOverlay(w http.ResponseWriter, r *http.Request)
	// Raw overlay image
	// (GET /overlay/image)
	GetOverlayImage(w http.ResponseWriter, r *http.Request)
	// World file for the current display extent
	// (GET /overlay/worldfile)
	GetOverlayWorldfile(w http.ResponseWriter, r *http.Request)
	// Replace the boundary polygon
	// (PUT /overlay/polygon)
	ReplaceOverlayPolygon(w http.ResponseWriter, r *http.Request)
	// Republish the display extent
	// (POST /overlay/resync)
	ResyncOverlay(w http.ResponseWriter, r *http.Request)
	// Drag tick
	// (POST /overlay/translate)
	TranslateOverlay(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler := http.Handler(h)
		for _, middleware := range siw.HandlerMiddlewares {
			handler = middleware(handler)
		}
		handler.ServeHTTP(w, r)
	}
}

// GetLayer operation middleware
func (siw *ServerInterfaceWrapper) GetLayer(w http.ResponseWriter, r *http.Request) {
	var err error

	// ------------- Path parameter "layerId" -------------
	var layerId LayerId

	err = runtime.BindStyledParameterWithOptions("simple", "layerId", chi.URLParam(r, "layerId"), &layerId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "layerId", Err: err})
		return
	}

	siw.wrap(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetLayer(w, r, layerId)
	})(w, r)
}

// InvalidParamFormatError is passed to the error handler when a parameter
// cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions configures HandlerWithOptions
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching OpenAPI spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.wrap(si.GetHealth))
		r.Get(options.BaseURL+"/map", wrapper.wrap(si.GetMap))
		r.Get(options.BaseURL+"/layers/{layerId}", wrapper.GetLayer)
		r.Get(options.BaseURL+"/overlay", wrapper.wrap(si.GetOverlay))
		r.Get(options.BaseURL+"/overlay/image", wrapper.wrap(si.GetOverlayImage))
		r.Get(options.BaseURL+"/overlay/worldfile", wrapper.wrap(si.GetOverlayWorldfile))
		r.Put(options.BaseURL+"/overlay/polygon", wrapper.wrap(si.ReplaceOverlayPolygon))
		r.Post(options.BaseURL+"/overlay/resync", wrapper.wrap(si.ResyncOverlay))
		r.Post(options.BaseURL+"/overlay/translate", wrapper.wrap(si.TranslateOverlay))
	})

	return r
}
