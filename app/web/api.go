package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"

	"github.com/whale-jobs/whale/app/store"
)

// APIPostingsResponse is the JSON response for /api/v1/jobs
type APIPostingsResponse struct {
	Postings  []store.Posting `json:"postings"`
	Total     int             `json:"total"`   // all postings in store
	Matched   int             `json:"matched"` // postings matching search
	Search    string          `json:"search,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// APIPostingRequest is the JSON body for posting creation
type APIPostingRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Salary      string `json:"salary"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// handleAPIListPostings returns JSON list of postings filtered by optional search param
func (s *Server) handleAPIListPostings(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	postings := s.store.Search(search)
	s.writeJSON(w, http.StatusOK, APIPostingsResponse{
		Postings:  postings,
		Total:     s.store.Len(),
		Matched:   len(postings),
		Search:    search,
		Timestamp: time.Now(),
	})
}

// handleAPIGetPosting returns a single posting by ID
func (s *Server) handleAPIGetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid posting ID")
		return
	}
	p, ok := s.store.Get(id)
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "posting not found")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleAPICreatePosting adds posting from JSON body, responds with the created posting
func (s *Server) handleAPICreatePosting(w http.ResponseWriter, r *http.Request) {
	var req APIPostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := store.Posting{
		Title:       req.Title,
		Company:     req.Company,
		Salary:      req.Salary,
		Location:    req.Location,
		Description: req.Description,
	}
	if err := p.Validate(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	postings, err := s.store.Append(p)
	if err != nil {
		log.Printf("[ERROR] failed to add posting: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to save posting")
		return
	}
	created := postings[len(postings)-1]
	log.Printf("[INFO] new posting %d %q at %q via api", created.ID, created.Title, created.Company)

	s.notify(r, func(ctx context.Context, n Notifier) error { return n.OnPosting(ctx, created) })
	s.writeJSON(w, http.StatusCreated, created)
}

// handleAPIPostingSchema returns JSON schema of the posting
func (s *Server) handleAPIPostingSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, PostingSchema())
}

// PostingSchema generates JSON schema for posting
func PostingSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	schema := r.Reflect(&store.Posting{})
	schema.Title = "Job posting"
	schema.Description = "A job posting of the whale job board"
	if id, ok := schema.Properties.Get("id"); ok {
		id.ReadOnly = true // assigned by the store
	}
	return schema
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
