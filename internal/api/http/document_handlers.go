package http

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/audit"
	"github.com/opencampus/admissions/internal/enrollment"
	"github.com/opencampus/admissions/internal/storage"
)

const maxDocumentBytes = 16 << 20

// POST /enrollments/{enrollmentID}/documents (multipart: file, type)
// Bytes go to the blob store; the database keeps metadata only.
func UploadDocumentHandler(store enrollment.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enrollmentID := chi.URLParam(r, "enrollmentID")
		if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
			writeErr(w, apperr.Validation("bad multipart form"))
			return
		}
		docType := strings.TrimSpace(r.FormValue("type"))
		if docType == "" {
			writeErr(w, apperr.Validation("document type required",
				apperr.FieldError{Field: "type", Error: "required"}))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, apperr.Validation("file required",
				apperr.FieldError{Field: "file", Error: "required"}))
			return
		}
		defer f.Close()

		key := path.Join(enrollmentID, docType+"-"+path.Base(hdr.Filename))
		if _, err := blobs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}
		d, err := store.AddDocument(r.Context(), enrollment.Document{
			EnrollmentID: enrollmentID,
			Type:         docType,
			Path:         key,
		})
		if err != nil {
			_ = blobs.Delete(key)
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func ListDocumentsHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.ListDocuments(r.Context(), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

// POST /documents/{documentID}/validation {"validation_status": "..."}
func ValidateDocumentHandler(store enrollment.Store, rec *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "documentID")
		var req struct {
			ValidationStatus string `json:"validation_status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		d, err := store.SetDocumentValidation(r.Context(), id, enrollment.ValidationStatus(req.ValidationStatus))
		if err != nil {
			writeErr(w, err)
			return
		}
		if rec != nil {
			_ = rec.Record(r.Context(), audit.DocumentValidated, d.ID,
				map[string]any{"validation_status": d.ValidationStatus})
		}
		writeJSON(w, http.StatusOK, d)
	}
}
