package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ormside/listflow/internal/importer"
	"github.com/ormside/listflow/internal/jobstore"
	"github.com/ormside/listflow/internal/mutate"
	"github.com/ormside/listflow/internal/store"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger files spill to disk.
const maxMultipartMemory = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartImport accepts a multipart CSV upload and starts an import job.
//
//	POST /api/accounts/{accountID}/imports
//	form fields: file (required), layout (optional), validate_only (optional)
//
// Responds 202 with the job ID; the job runs in the background and is
// observed by polling GET /api/imports/{jobID}.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(w, r, fmt.Errorf("parse multipart form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("missing file field: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	jobID, err := s.imports.StartImport(r.Context(), importer.StartRequest{
		AccountID:      accountID,
		FileName:       header.Filename,
		Data:           data,
		DeclaredLayout: r.FormValue("layout"),
		ValidateOnly:   parseBool(r.FormValue("validate_only")),
	})
	if err != nil {
		respondError(w, r, err, importStatusCode(err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// importStatusCode maps StartImport errors onto HTTP status codes. Only the
// sentinel errors are caller faults; anything else is a collaborator failure
// and must not leak its detail to the client.
func importStatusCode(err error) int {
	switch {
	case errors.Is(err, importer.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrInvalidFile), errors.Is(err, importer.ErrUnknownLayout):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// jobResponse is the polling view of an import job.
type jobResponse struct {
	*jobstore.Job
	Progress int `json:"progress"`
}

// handleJobStatus serves GET /api/imports/{jobID}.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.imports.JobStatus(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, importer.ErrJobNotFound) {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{Job: job, Progress: job.Progress()})
}

// layoutInfo is the API view of a registered layout.
type layoutInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Required []string `json:"requiredColumns"`
	Optional []string `json:"optionalColumns"`
}

// handleListLayouts serves GET /api/layouts.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	defs := s.layouts.All()
	out := make([]layoutInfo, len(defs))
	for i, def := range defs {
		out[i] = layoutInfo{
			Name:     def.Name,
			Version:  def.Version,
			Required: def.Required,
			Optional: def.Optional,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLayoutTemplate serves GET /api/layouts/{name}/template: a CSV header
// template for the named layout, required columns first.
func (s *Server) handleLayoutTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := s.layouts.Get(name)
	if !ok {
		respondError(w, r, fmt.Errorf("unknown layout %q", name), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_template.csv", name))
	fmt.Fprintln(w, strings.Join(def.Columns(), ","))
}

// bulkRequest is the wire form of a bulk mutation: a tagged union selected by
// the "op" field.
type bulkRequest struct {
	IDs []string `json:"ids"`
	Op  string   `json:"op"`

	// Exactly one of the following is meaningful, per Op.
	Status   store.ListingStatus `json:"status,omitempty"`
	Price    float64             `json:"price,omitempty"`
	Quantity *int                `json:"quantity,omitempty"`
}

// operation builds the typed command for the request's op tag.
func (b bulkRequest) operation() (mutate.Operation, error) {
	switch b.Op {
	case "status_change":
		return mutate.StatusChange{Status: b.Status}, nil
	case "price_change":
		return mutate.PriceChange{Price: b.Price}, nil
	case "quantity_change":
		if b.Quantity == nil {
			return nil, fmt.Errorf("quantity is required for quantity_change")
		}
		return mutate.QuantityChange{Quantity: *b.Quantity}, nil
	case "":
		return nil, fmt.Errorf("op is required (status_change, price_change, quantity_change)")
	default:
		return nil, fmt.Errorf("unknown op %q", b.Op)
	}
}

func decodeBulkRequest(r *http.Request) (mutate.EntityType, bulkRequest, mutate.Operation, error) {
	entity, err := mutate.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		return "", bulkRequest{}, nil, err
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", bulkRequest{}, nil, fmt.Errorf("decode request body: %w", err)
	}

	op, err := req.operation()
	if err != nil {
		return "", bulkRequest{}, nil, err
	}
	return entity, req, op, nil
}

// handleValidateBulk serves POST /api/bulk/{entityType}/validate: preflight
// only, nothing executes.
func (s *Server) handleValidateBulk(w http.ResponseWriter, r *http.Request) {
	entity, req, op, err := decodeBulkRequest(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	violations := s.mutations.Validate(entity, req.IDs, op)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

// handleExecuteBulk serves POST /api/bulk/{entityType}.
func (s *Server) handleExecuteBulk(w http.ResponseWriter, r *http.Request) {
	entity, req, op, err := decodeBulkRequest(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.mutations.Execute(r.Context(), entity, req.IDs, op)
	var verr *mutate.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      "request validation failed",
			Violations: verr.Violations,
		})
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
