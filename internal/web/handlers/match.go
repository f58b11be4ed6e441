package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/gallery"
	"github.com/17hemanthkumar/pm/internal/preprocess"
	"github.com/17hemanthkumar/pm/internal/quality"
)

// MatchHandler matches probe faces against the gallery.
type MatchHandler struct {
	engine       *facematch.Engine
	store        *gallery.Store
	encoder      *encoder.Client
	preprocessor *preprocess.Preprocessor
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(engine *facematch.Engine, store *gallery.Store, enc *encoder.Client, pre *preprocess.Preprocessor) *MatchHandler {
	return &MatchHandler{
		engine:       engine,
		store:        store,
		encoder:      enc,
		preprocessor: pre,
	}
}

// matchRequest is the JSON probe: a raw encoding with optional
// quality metrics the caller already computed.
type matchRequest struct {
	Encoding facematch.Encoding `json:"encoding"`
	Quality  *quality.Metrics   `json:"quality,omitempty"`
}

// Match handles match requests. The probe arrives either as a JSON
// encoding or as a multipart image that is preprocessed and sent to
// the encoding service first. Use ?mode=learning for the stricter
// learning tolerance.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var unknown facematch.Encoding
	var qm *quality.Metrics

	if isMultipart(r) {
		var err error
		unknown, qm, err = h.probeFromImage(w, r)
		if err != nil {
			return
		}
	} else {
		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		if len(req.Encoding) == 0 {
			respondError(w, http.StatusBadRequest, "encoding is required")
			return
		}
		unknown = req.Encoding
		qm = req.Quality
	}

	known, ids := h.store.Snapshot()

	var result facematch.MatchResult
	if r.URL.Query().Get("mode") == "learning" {
		result, _ = h.engine.MatchForLearning(unknown, known, ids, qm)
	} else {
		result, _ = h.engine.Match(unknown, known, ids, qm)
	}

	respondJSON(w, http.StatusOK, result.Record())
}

// probeFromImage runs the image pipeline: preprocess, encode, assess.
// The face with the highest detector confidence becomes the probe.
// Error responses are written before returning.
func (h *MatchHandler) probeFromImage(w http.ResponseWriter, r *http.Request) (facematch.Encoding, *quality.Metrics, error) {
	data, err := readImageFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, err
	}

	img, err := preprocess.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return nil, nil, err
	}
	processed := h.preprocessor.Process(img)

	payload, err := preprocess.EncodeJPEG(processed)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not encode image")
		return nil, nil, err
	}

	faces, err := h.encoder.Encode(r.Context(), payload)
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("encoding service failed: %v", err))
		return nil, nil, err
	}
	if len(faces) == 0 {
		respondError(w, http.StatusBadRequest, "no face detected in image")
		return nil, nil, errors.New("no face detected")
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}

	metrics := h.engine.Assess(processed, best.Box)
	return best.Encoding, &metrics, nil
}
