// Package web serves a read-only status view over the mapping document.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/stellarlink/specsync/internal/mapping"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler handles status page and API requests. Every request reloads
// the mapping file so the page reflects syncs run after the server
// started.
type Handler struct {
	store     *mapping.Store
	templates *template.Template
}

// NewHandler creates a new web handler backed by the mapping store.
func NewHandler(store *mapping.Store) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusColor": statusColor,
		"statusIcon":  statusIcon,
		"doneCount":   doneCount,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers status routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleOverview).Methods("GET")
	r.HandleFunc("/api/specs", h.handleSpecList).Methods("GET")
	r.HandleFunc("/api/specs/{number}", h.handleSpecDetail).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
}

// handleOverview renders the HTML overview page.
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Repository     string
		Specifications []*mapping.Specification
	}{
		Repository:     doc.Repository,
		Specifications: sortedSpecs(doc),
	}

	if err := h.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSpecList returns every tracked specification as JSON.
func (h *Handler) handleSpecList(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Repository     string                   `json:"repository"`
		Specifications []*mapping.Specification `json:"specifications"`
	}{doc.Repository, sortedSpecs(doc)})
}

// handleSpecDetail returns one specification as JSON.
func (h *Handler) handleSpecDetail(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	spec := doc.Spec(mux.Vars(r)["number"])
	if spec == nil {
		http.Error(w, "Specification not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sortedSpecs lists specifications in number order for stable output.
func sortedSpecs(doc *mapping.Document) []*mapping.Specification {
	specs := make([]*mapping.Specification, 0, len(doc.Specifications))
	for _, s := range doc.Specifications {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Number < specs[j].Number })
	return specs
}

// Helper functions for templates

func statusColor(status mapping.Status) string {
	switch status {
	case mapping.StatusClosed:
		return "#198754"
	case mapping.StatusOpen:
		return "#0d6efd"
	default:
		return "#6c757d"
	}
}

func statusIcon(status mapping.Status) string {
	switch status {
	case mapping.StatusClosed:
		return "✓"
	case mapping.StatusOpen:
		return "○"
	default:
		return "○"
	}
}

func doneCount(spec *mapping.Specification) int {
	n := 0
	for _, is := range spec.Issues {
		if is.Status == mapping.StatusClosed {
			n++
		}
	}
	return n
}
