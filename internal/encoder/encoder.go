// Package encoder talks to the external face-encoding service. The
// service detects faces in an uploaded image and returns one encoding
// vector per face; everything downstream (quality scoring, matching)
// consumes its output.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/quality"
)

// APIError reports a non-success response from the encoding service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// DetectedFace is one face found in an image: where it is, its
// encoding vector, and the detector's own confidence in the detection.
type DetectedFace struct {
	Box        quality.Box        `json:"box"`
	Encoding   facematch.Encoding `json:"encoding"`
	Confidence float64            `json:"confidence"`
}

// Client computes face encodings using the encoding service.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates a client from configuration. A nil config falls
// back to the defaults.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.Load()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.Encoder.URL, "/"),
		dim:     cfg.Encoder.Dim,
		client:  &http.Client{Timeout: time.Duration(cfg.Encoder.TimeoutSeconds) * time.Second},
	}
}

// faceDetection represents a single detected face on the wire.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face endpoint.
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Encode uploads an image and returns the faces the service detected.
// An image with no faces yields an empty slice, not an error.
func (c *Client) Encode(ctx context.Context, imageData []byte) ([]DetectedFace, error) {
	if len(imageData) == 0 {
		return nil, errors.New("no image data")
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]DetectedFace, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if c.dim > 0 && len(f.Embedding) != c.dim {
			return nil, fmt.Errorf("face %d has encoding of length %d, expected %d",
				f.FaceIndex, len(f.Embedding), c.dim)
		}
		if len(f.BBox) != 4 {
			return nil, fmt.Errorf("face %d has malformed bounding box %v", f.FaceIndex, f.BBox)
		}
		faces = append(faces, DetectedFace{
			Box: quality.Box{
				Top:    int(math.Round(f.BBox[1])),
				Right:  int(math.Round(f.BBox[2])),
				Bottom: int(math.Round(f.BBox[3])),
				Left:   int(math.Round(f.BBox[0])),
			},
			Encoding:   facematch.Encoding(f.Embedding),
			Confidence: f.DetScore,
		})
	}
	return faces, nil
}

// postMultipartImage constructs a multipart form with the image data
// and posts it to the given endpoint. The part carries an explicit
// Content-Type header sniffed from the image bytes.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", http.DetectContentType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
