package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/metrics"
	"github.com/17hemanthkumar/pm/internal/preprocess"
)

// testConfig creates a config with known tolerances for testing.
func testConfig() *config.Config {
	cfg := config.Load()
	cfg.RecognitionTolerance = 0.5
	cfg.LearningTolerance = 0.45
	cfg.LogMatchDetails = false
	cfg.Encoder.Dim = 2
	return cfg
}

// testEngine creates a quiet engine for handler tests.
func testEngine(cfg *config.Config, rec *metrics.Recorder) *facematch.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return facematch.NewEngine(cfg, nil, rec, log)
}

// testJPEG returns JPEG bytes of a uniform gray image.
func testJPEG(t *testing.T, width, height int, gray uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	data, err := preprocess.EncodeJPEG(img)
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return data
}

// jsonRequest creates a JSON request for a handler under test.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a multipart request with an image file and
// extra form fields.
func multipartRequest(t *testing.T, path string, imageData []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if imageData != nil {
		part, err := writer.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			t.Fatalf("failed to write image data: %v", err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// setupFaceServer creates a mock encoding service that returns a fixed
// response for face requests.
func setupFaceServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/face", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	})
	return httptest.NewServer(mux)
}

// testEncoderClient creates an encoder client pointed at a mock server.
func testEncoderClient(cfg *config.Config, serverURL string) *encoder.Client {
	c := *cfg
	c.Encoder.URL = serverURL
	return encoder.NewClient(&c)
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
}
