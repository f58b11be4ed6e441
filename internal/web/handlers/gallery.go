package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/17hemanthkumar/pm/internal/constants"
	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/gallery"
	"github.com/17hemanthkumar/pm/internal/metrics"
	"github.com/17hemanthkumar/pm/internal/preprocess"
)

// GalleryHandler manages the in-memory person gallery.
type GalleryHandler struct {
	store        *gallery.Store
	encoder      *encoder.Client
	preprocessor *preprocess.Preprocessor
	recorder     *metrics.Recorder
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(store *gallery.Store, enc *encoder.Client, pre *preprocess.Preprocessor, rec *metrics.Recorder) *GalleryHandler {
	return &GalleryHandler{
		store:        store,
		encoder:      enc,
		preprocessor: pre,
		recorder:     rec,
	}
}

// enrollRequest is the JSON enrollment body. An empty person_id asks
// the store to generate one.
type enrollRequest struct {
	PersonID  string               `json:"person_id"`
	Encodings []facematch.Encoding `json:"encodings"`
}

// Enroll adds a person to the gallery, either from pre-computed
// encodings (JSON) or from a photo (multipart with an "image" file and
// a "person_id" form value). Enrollment photos must contain exactly
// one face.
func (h *GalleryHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		h.enrollFromImage(w, r)
		return
	}

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Encodings) == 0 {
		respondError(w, http.StatusBadRequest, "at least one encoding is required")
		return
	}

	id, err := h.store.EnrollPerson(req.PersonID, req.Encodings)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.updateGauge()

	respondJSON(w, http.StatusCreated, map[string]any{
		"person_id": id,
		"encodings": len(req.Encodings),
	})
}

func (h *GalleryHandler) enrollFromImage(w http.ResponseWriter, r *http.Request) {
	data, err := readImageFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	personID := r.FormValue("person_id")

	img, err := preprocess.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}
	payload, err := preprocess.EncodeJPEG(h.preprocessor.Process(img))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not encode image")
		return
	}

	faces, err := h.encoder.Encode(r.Context(), payload)
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("encoding service failed: %v", err))
		return
	}
	if len(faces) == 0 {
		respondError(w, http.StatusBadRequest, "no face detected in image")
		return
	}
	if len(faces) > 1 {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("found %d faces, enrollment photos must contain exactly one", len(faces)))
		return
	}

	id, err := h.store.Enroll(personID, faces[0].Encoding)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.updateGauge()

	respondJSON(w, http.StatusCreated, map[string]any{
		"person_id": id,
		"encodings": 1,
	})
}

// List returns the enrolled people with their encoding counts.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	people := h.store.People()
	respondJSON(w, http.StatusOK, map[string]any{
		"people": people,
		"count":  len(people),
	})
}

// Remove deletes a person and all their encodings.
func (h *GalleryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Remove(id); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.updateGauge()

	respondJSON(w, http.StatusOK, map[string]string{"removed": id})
}

// nearestRequest is the JSON body of a nearest-neighbor query.
type nearestRequest struct {
	Encoding facematch.Encoding `json:"encoding"`
	K        int                `json:"k"`
}

// Nearest returns the people closest to a probe encoding. This is a
// diagnostic view over the vector index; match decisions always go
// through the match endpoint.
func (h *GalleryHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req nearestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Encoding) == 0 {
		respondError(w, http.StatusBadRequest, "encoding is required")
		return
	}
	if req.K <= 0 {
		req.K = constants.DefaultNearestLimit
	}
	req.K = min(req.K, constants.MaxNearestLimit)

	neighbors := h.store.Nearest(req.Encoding, req.K)
	if neighbors == nil {
		neighbors = []gallery.Neighbor{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"neighbors": neighbors,
		"count":     len(neighbors),
	})
}

func (h *GalleryHandler) updateGauge() {
	h.recorder.SetGallerySize(len(h.store.People()))
}
