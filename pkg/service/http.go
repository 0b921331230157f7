// Package service hosts the two transports a stackium front-end drives
// the command protocol over: an HTTP+JSON server (web/gui mode) and a
// line-based CLI REPL (cli mode). Grounded on delve's
// pkg/service/debugger + cmd/dlv command-layer split: one thin
// transport per mode, both funneling into the same Dispatcher.
package service

import (
	"encoding/json"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/stackium/stackium/pkg/api"
)

// HTTPServer is the web-mode transport from §6: POST / dispatches a
// Command, GET /schema and GET /response_schema serve the JSON-Schema
// documents, and GET /<path> serves the embedded UI bundle.
type HTTPServer struct {
	dispatch *api.Dispatcher
	assets   fs.FS
}

// NewHTTPServer wraps dispatch for HTTP, serving assets out of the
// embedded filesystem assets (see internal/assets).
func NewHTTPServer(dispatch *api.Dispatcher, assets fs.FS) *HTTPServer {
	return &HTTPServer{dispatch: dispatch, assets: assets}
}

// Handler builds the net/http.Handler for the server; stdlib net/http
// and encoding/json are used directly, since the pack's example repos
// carry no HTTP router or JSON library better suited to this
// single-handler-plus-static-assets surface (see DESIGN.md).
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/schema", s.handleRequestSchema)
	mux.HandleFunc("/schema.yaml", s.handleRequestSchemaYAML)
	mux.HandleFunc("/response_schema", s.handleResponseSchema)
	return mux
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.URL.Path == "/" {
		s.handleCommand(w, r)
		return
	}
	s.handleAsset(w, r)
}

func (s *HTTPServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd api.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(api.Response{Error: "MalformedRequest"})
		return
	}
	resp := s.dispatch.Dispatch(cmd)
	w.Header().Set("Content-Type", "application/json")
	if resp.Error != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *HTTPServer) handleRequestSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(api.RequestSchema())
}

func (s *HTTPServer) handleRequestSchemaYAML(w http.ResponseWriter, r *http.Request) {
	body, err := api.RequestSchemaYAML()
	if err != nil {
		http.Error(w, "SchemaError", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(body)
}

func (s *HTTPServer) handleResponseSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(api.ResponseSchema())
}

// handleAsset serves a static file from the embedded UI bundle, MIME
// typed by extension per §6.
func (s *HTTPServer) handleAsset(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.NotFound(w, r)
		return
	}
	name := r.URL.Path
	if name == "/" || name == "" {
		name = "/index.html"
	}
	data, err := fs.ReadFile(s.assets, name[1:])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Write(data)
}
