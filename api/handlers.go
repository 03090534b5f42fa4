package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/service"
	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/viewmodel"
)

// FetchRequest is the JSON body for POST /api/fetch.
type FetchRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Snapshots int    `json:"snapshots"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Snapshots: s.svc.Repository().Len()})
}

// handleUpload handles POST /api/graphs. The body is the document; its
// Content-Type or the name query parameter picks the parser.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(content) == 0 {
		writeJSONError(w, http.StatusBadRequest, "empty_body", "Request body must contain a document")
		return
	}

	res, err := s.svc.LoadDocument(r.Context(), uploadName(r), content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// uploadName derives an origin whose extension the parser registry knows.
// A name with a known extension wins; otherwise a graph media type in
// Content-Type supplies the extension.
func uploadName(r *http.Request) string {
	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == "/" {
		name = ""
	}
	ext := filepath.Ext(name)
	if ext != "" && parser.DefaultRegistry.GetByExtension(name) != nil {
		return name
	}

	stem := "upload"
	if ext != "" && ext != name {
		stem = strings.TrimSuffix(name, ext)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if typeExt := parser.ExtensionFromMimeType(mediaType); typeExt != "" {
		return stem + typeExt
	}
	if ext != "" {
		return name
	}
	return stem + ".ttl"
}

// handleFetch handles POST /api/fetch.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.svc.LoadURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("Fetch failed", "url", req.URL, "error", err)
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.List())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Info())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.svc.Delete(r.Context(), id) {
		writeJSONError(w, http.StatusNotFound, "not_found", "snapshot not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleView handles GET /api/graphs/{id}/view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req, err := viewRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	vm, err := s.svc.View(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "render":
		writeJSON(w, http.StatusOK, vm.Render())
	case "model":
		writeJSON(w, http.StatusOK, vm)
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_query", "format must be render or model")
	}
}

func viewRequest(r *http.Request) (service.ViewRequest, error) {
	q := r.URL.Query()
	req := service.ViewRequest{
		Filters: viewmodel.Filters{
			Classes:     multi(q["class"]),
			Properties:  multi(q["property"]),
			Individuals: multi(q["individual"]),
		},
		Selected: q.Get("selected"),
		Query:    q.Get("q"),
	}

	if maxParam := q.Get("max"); maxParam != "" {
		n, err := strconv.Atoi(maxParam)
		if err != nil || n < 0 {
			return req, fmt.Errorf("max must be a non-negative integer")
		}
		req.MaxNodes = n
	}
	types, err := classifier.ParseTypeTags(q["type"])
	if err != nil {
		return req, err
	}
	req.Types = types

	if q.Has("lang") {
		lang := q.Get("lang")
		req.Language = &lang
	}
	req.IncludeOther, _ = strconv.ParseBool(q.Get("other"))
	req.IncludeTypeEdges, _ = strconv.ParseBool(q.Get("type_edges"))
	return req, nil
}

// handleNodes handles GET /api/graphs/{id}/nodes.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	types, err := classifier.ParseTypeTags(q["type"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	table, err := s.svc.Nodes(r.Context(), chi.URLParam(r, "id"), q.Get("q"), types)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// handleDetail handles GET /api/graphs/{id}/nodes/detail?uri=.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_query", "uri is required")
		return
	}

	detail, err := s.svc.Detail(r.Context(), chi.URLParam(r, "id"), uri)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTriples(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Triples(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleExport handles POST /api/graphs/{id}/export and answers with the
// document itself.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req service.ExportRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.svc.Export(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", res.Format.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename("subgraph")))
	w.Header().Set(ExportNoteHeader, export.OverInclusionNote)
	w.Header().Set("X-Semview-Triples", strconv.Itoa(res.Triples))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Body)
}

// decode reads and validates a JSON body, writing the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", formatValidationError(err))
		return false
	}
	return true
}

// multi drops blank values of a repeated query parameter. IRIs may contain
// commas, so values are never split.
func multi(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
