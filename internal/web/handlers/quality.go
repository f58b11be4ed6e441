package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/preprocess"
	"github.com/17hemanthkumar/pm/internal/quality"
)

// QualityHandler scores uploaded face images.
type QualityHandler struct {
	engine *facematch.Engine
}

// NewQualityHandler creates a new quality handler.
func NewQualityHandler(engine *facematch.Engine) *QualityHandler {
	return &QualityHandler{
		engine: engine,
	}
}

// Assess handles quality assessment requests. The request is a
// multipart form with an "image" file and optionally the four face box
// coordinates as form values; without a box the whole image is scored.
func (h *QualityHandler) Assess(w http.ResponseWriter, r *http.Request) {
	data, err := readImageFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := preprocess.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}

	box, err := boxFromForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if box == nil {
		bounds := img.Bounds()
		box = &quality.Box{Top: 0, Right: bounds.Dx(), Bottom: bounds.Dy(), Left: 0}
	}

	metrics := h.engine.Assess(img, *box)
	respondJSON(w, http.StatusOK, metrics)
}

// boxFromForm parses the optional face box form values. Either all
// four coordinates are present or none.
func boxFromForm(r *http.Request) (*quality.Box, error) {
	fields := []string{"top", "right", "bottom", "left"}
	values := make([]int, len(fields))
	present := 0
	for i, name := range fields {
		raw := r.FormValue(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid box coordinate %s: %q", name, raw)
		}
		values[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(fields):
		return &quality.Box{Top: values[0], Right: values[1], Bottom: values[2], Left: values[3]}, nil
	default:
		return nil, errors.New("face box needs all of top, right, bottom and left")
	}
}
