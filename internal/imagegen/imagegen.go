// Package imagegen requests concept art from a hosted diffusion model and
// normalizes the reply into an RGB bitmap. The endpoint may answer with raw
// image bytes or with a JSON envelope holding base64 data; any failure yields
// a solid placeholder so callers always get an image.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/metrics"
	"github.com/Yates-Labs/gamebible/internal/upstream"
)

const (
	PlaceholderSize = 512

	// MaxDimension bounds the width and height of a decoded reply
	MaxDimension = 4096
)

// PlaceholderColor fills the image returned when generation fails.
var PlaceholderColor = color.RGBA{R: 73, G: 109, B: 137, A: 255}

// envelopeKeys are checked in order for base64 image data.
var envelopeKeys = []string{"image", "generated_image", "images"}

// UnexpectedImageResponseError reports a reply that is neither image bytes nor
// a recognized JSON envelope.
type UnexpectedImageResponseError struct {
	ContentType string
}

func (e *UnexpectedImageResponseError) Error() string {
	return fmt.Sprintf("unexpected image response (content-type: %s)", e.ContentType)
}

// ImageTooLargeError reports a reply whose header declares a canvas larger
// than MaxDimension on either side.
type ImageTooLargeError struct {
	Width, Height int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image too large: %dx%d (max %dx%d)", e.Width, e.Height, MaxDimension, MaxDimension)
}

// Caller is the subset of the upstream client used here.
type Caller interface {
	Call(ctx context.Context, model string, payload any, stream bool) (*upstream.Response, error)
}

// Client generates images with one model.
type Client struct {
	caller Caller
	model  string
	logger *zap.Logger
}

// NewClient creates an image client for model.
func NewClient(caller Caller, model string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{caller: caller, model: model, logger: logger}
}

// Generate returns an image for prompt, or the placeholder on any failure.
func (c *Client) Generate(ctx context.Context, prompt string) *image.RGBA {
	img, err := c.TryGenerate(ctx, prompt)
	if err != nil {
		c.logger.Warn("image generation failed, using placeholder",
			zap.String("model", c.model),
			zap.Error(err))
		metrics.ImageGenerations.WithLabelValues("placeholder").Inc()
		return Placeholder()
	}
	metrics.ImageGenerations.WithLabelValues("generated").Inc()
	return img
}

// TryGenerate is Generate without the placeholder substitution.
func (c *Client) TryGenerate(ctx context.Context, prompt string) (*image.RGBA, error) {
	payload := map[string]any{
		"inputs":  prompt,
		"options": map[string]any{"wait_for_model": true},
	}

	resp, err := c.caller.Call(ctx, c.model, payload, true)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(resp.ContentType(), resp.Body)
}

// DecodeResponse turns an upstream reply into an RGB bitmap.
func DecodeResponse(contentType string, body []byte) (*image.RGBA, error) {
	if strings.Contains(contentType, "image/") {
		return decodeImage(body)
	}

	if !gjson.ValidBytes(body) {
		return nil, &UnexpectedImageResponseError{ContentType: contentType}
	}
	data := gjson.ParseBytes(body)
	if !data.IsObject() {
		return nil, &UnexpectedImageResponseError{ContentType: contentType}
	}

	for _, key := range envelopeKeys {
		v := data.Get(key)
		if !v.Exists() {
			continue
		}
		if v.IsArray() {
			items := v.Array()
			if len(items) == 0 {
				continue
			}
			v = items[0]
		}
		if v.Type != gjson.String {
			return nil, fmt.Errorf("decode %s: value is not a base64 string", key)
		}
		raw, err := decodeBase64(v.Str)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return decodeImage(raw)
	}

	return nil, &UnexpectedImageResponseError{ContentType: contentType}
}

func decodeBase64(s string) ([]byte, error) {
	// data:image/png;base64,<payload>
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return raw, nil
}

func decodeImage(data []byte) (*image.RGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty canvas %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, &ImageTooLargeError{Width: cfg.Width, Height: cfg.Height}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return toRGB(src), nil
}

// toRGB flattens src onto an opaque canvas.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// Placeholder returns a new 512x512 image filled with PlaceholderColor.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(PlaceholderColor), image.Point{}, draw.Src)
	return img
}

// EncodePNG serializes img for storage.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
