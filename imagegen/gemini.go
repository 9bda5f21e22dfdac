// Package imagegen generates and edits images with the Gemini image models.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/internal/httpclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout = 180 * time.Second
)

var (
	// ErrMissingAPIKey is returned by [New] when no API key is configured.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY not set: add it to ~/.nanobanana.env or .env")

	// ErrNoImage is returned when a response carries no inline image.
	ErrNoImage = errors.New("response contains no image")
)

type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Request describes one generation or edit.
type Request struct {
	Prompt string

	// Inputs are image files sent along with the prompt for editing.
	Inputs []string

	// Model, Size and Resolution default to DefaultModel (or the generator's
	// configured model), DefaultSize and DefaultResolution.
	Model      string
	Size       string
	Resolution string
}

// Image is a decoded image returned by the model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Saved describes an image written to disk.
type Saved struct {
	Path   string
	Width  int
	Height int
}

// Generator calls the generateContent endpoint.
type Generator struct {
	client  *httpclient.Client
	baseURL string
	model   string
	logger  *slog.Logger
}

func New(s Settings) (*Generator, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return &Generator{
		client:  httpclient.New(s.Timeout, map[string]string{"x-goog-api-key": s.APIKey}),
		baseURL: strings.TrimRight(s.BaseURL, "/"),
		model:   s.Model,
		logger:  s.Logger,
	}, nil
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string    `json:"responseModalities"`
	ImageConfig        imageConfig `json:"imageConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// Generate sends req and returns the first image in the response.
func (g *Generator) Generate(ctx context.Context, req Request) (Image, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Image{}, errors.New("prompt is required")
	}
	if req.Model == "" {
		req.Model = g.model
	}
	if req.Size == "" {
		req.Size = DefaultSize
	}
	if req.Resolution == "" {
		req.Resolution = DefaultResolution
	}

	m, ok := models[req.Model]
	if !ok {
		return Image{}, fmt.Errorf("unknown model %q (available: %s)", req.Model, strings.Join(Models(), ", "))
	}
	size, err := LookupSize(req.Size)
	if err != nil {
		return Image{}, err
	}
	width, height, err := Scaled(req.Size, req.Resolution)
	if err != nil {
		return Image{}, err
	}

	parts := []part{{Text: req.Prompt}}
	for _, path := range req.Inputs {
		p, err := loadInput(path)
		if err != nil {
			return Image{}, err
		}
		parts = append(parts, p)
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        imageConfig{AspectRatio: size.AspectRatio},
		},
	}
	if m.imageSize {
		body.GenerationConfig.ImageConfig.ImageSize = req.Resolution
	}

	g.logger.Info("generating image",
		"model", req.Model, "size", req.Size, "resolution", req.Resolution,
		"width", width, "height", height, "inputs", len(req.Inputs))

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(req.Model))
	resp, err := g.client.PostJSON(ctx, endpoint, body)
	if err != nil {
		return Image{}, fmt.Errorf("image generation failed: %w", err)
	}
	return FirstImage(resp)
}

// FirstImage returns the first inline image part of a generateContent
// response.
func FirstImage(resp map[string]any) (Image, error) {
	parts, _ := thirdbrain.Lookup(resp, "candidates", "0", "content", "parts")
	list, _ := parts.([]any)

	for _, p := range list {
		for _, key := range []string{"inlineData", "inline_data"} {
			data, ok := thirdbrain.JSONField(key + ".data")(p)
			if !ok {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				return Image{}, fmt.Errorf("failed to decode image data: %w", err)
			}
			mime, ok := thirdbrain.FirstField(key+".mimeType", key+".mime_type")(p)
			if !ok {
				mime = http.DetectContentType(raw)
			}
			return Image{Data: raw, MIMEType: mime}, nil
		}
	}

	if reason, ok := thirdbrain.FirstField("promptFeedback.blockReason", "candidates.0.finishReason")(resp); ok {
		return Image{}, fmt.Errorf("%w (reason: %s)", ErrNoImage, reason)
	}
	return Image{}, ErrNoImage
}

func loadInput(path string) (part, error) {
	path, err := expandHome(path)
	if err != nil {
		return part{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return part{}, fmt.Errorf("failed to read input image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return part{}, fmt.Errorf("input %s is not an image (%s)", path, mime)
	}
	return part{InlineData: &inlineData{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

// OutputPath returns output, or nanobanana-<8 hex chars>.png when empty.
func OutputPath(output string) string {
	if output != "" {
		return output
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "nanobanana-" + id[:8] + ".png"
}

// Save writes img to path, creating parent directories, and reports its
// absolute path and pixel dimensions. A .png path always receives PNG data:
// JPEG, GIF and WebP images are re-encoded.
func Save(path string, img Image) (Saved, error) {
	data := img.Data
	if strings.EqualFold(filepath.Ext(path), ".png") && !strings.EqualFold(img.MIMEType, "image/png") {
		var err error
		if data, err = toPNG(img.Data); err != nil {
			return Saved{}, fmt.Errorf("failed to convert %s image to PNG: %w", img.MIMEType, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Saved{}, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Saved{}, fmt.Errorf("failed to write image: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	saved := Saved{Path: abs}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		saved.Width, saved.Height = cfg.Width, cfg.Height
	}
	return saved, nil
}

func toPNG(data []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases idle connections.
func (g *Generator) Close() { g.client.Close() }

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
