package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// muxHandler is the stdlib boundary adapter: an http.ServeMux over the
// shared Service.
type muxHandler struct {
	svc *Service
	mux *http.ServeMux
}

// NewMux creates the net/http boundary adapter. origins configures the CORS
// middleware; empty means no cross-origin access. stream, when non-nil, is
// mounted at /ws/readings.
func NewMux(svc *Service, origins []string, stream http.Handler) http.Handler {
	h := &muxHandler{svc: svc, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.root)
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/sensors", h.listSensors)
	h.mux.HandleFunc("/api/sensors/", h.sensorSubtree) // extracts {id}[/info]
	h.mux.HandleFunc("/api/temp-and-humid-sensor", h.legacySensorData)
	h.mux.Handle("/metrics", promhttp.Handler())
	if stream != nil {
		h.mux.Handle("/ws/readings", stream)
	}

	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{svc.AuthHeader(), "Content-Type"},
	}).Handler(h)
}

func (h *muxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// root serves GET / as a health alias; any other unmatched path is a 404.
func (h *muxHandler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	h.health(w, r)
}

func (h *muxHandler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	code, resp := h.svc.Health()
	jsonResp(w, code, resp)
}

func (h *muxHandler) listSensors(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r) {
		return
	}
	code, resp := h.svc.ListSensors()
	jsonResp(w, code, resp)
}

// sensorSubtree serves /api/sensors/{id} and /api/sensors/{id}/info.
func (h *muxHandler) sensorSubtree(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sensors/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		code, resp := h.svc.ListSensors()
		jsonResp(w, code, resp)
		return
	}

	switch sub {
	case "":
		code, resp := h.svc.SensorData(id)
		jsonResp(w, code, resp)
	case "info":
		code, resp := h.svc.SensorInfo(id)
		jsonResp(w, code, resp)
	default:
		jsonErr(w, http.StatusNotFound, "not found")
	}
}

func (h *muxHandler) legacySensorData(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r) {
		return
	}
	code, resp := h.svc.LegacySensorData()
	jsonResp(w, code, resp)
}

// allowed enforces the method and the shared-secret check before any core
// call. It writes the error response itself and reports whether the
// handler may proceed.
func (h *muxHandler) allowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if !h.svc.Authorized(r.Header.Get(h.svc.AuthHeader())) {
		jsonErr(w, http.StatusUnauthorized, "invalid or missing API key")
		return false
	}
	return true
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, ErrorResponse{Error: msg})
}
