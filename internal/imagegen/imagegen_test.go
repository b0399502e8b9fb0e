package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Yates-Labs/gamebible/internal/upstream"
)

type fakeCaller struct {
	contentType string
	body        []byte
	err         error
	payload     map[string]any
	stream      bool
}

func (f *fakeCaller) Call(ctx context.Context, model string, payload any, stream bool) (*upstream.Response, error) {
	f.payload, _ = payload.(map[string]any)
	f.stream = stream
	if f.err != nil {
		return nil, f.err
	}
	h := http.Header{}
	if f.contentType != "" {
		h.Set("Content-Type", f.contentType)
	}
	return &upstream.Response{StatusCode: http.StatusOK, Header: h, Body: f.body}, nil
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertPlaceholder(t *testing.T, img *image.RGBA) {
	t.Helper()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 512, 512), img.Bounds())
	assert.Equal(t, PlaceholderColor, img.RGBAAt(0, 0))
	assert.Equal(t, PlaceholderColor, img.RGBAAt(511, 511))
}

func TestGenerate_BinaryImage(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	caller := &fakeCaller{contentType: "image/png", body: pngBytes(t, 4, 3, red)}
	c := NewClient(caller, "sd", zaptest.NewLogger(t))

	img := c.Generate(context.Background(), "Concept art character")
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, red, img.RGBAAt(1, 1))

	assert.True(t, caller.stream)
	assert.Equal(t, "Concept art character", caller.payload["inputs"])
	assert.Equal(t, map[string]any{"wait_for_model": true}, caller.payload["options"])
}

func TestGenerate_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil))
	caller := &fakeCaller{contentType: "image/jpeg", body: buf.Bytes()}

	img := NewClient(caller, "sd", nil).Generate(context.Background(), "p")
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).A)
}

func TestDecodeResponse_Base64Envelopes(t *testing.T) {
	blue := color.RGBA{B: 180, A: 255}
	b64 := base64.StdEncoding.EncodeToString(pngBytes(t, 2, 2, blue))

	tests := []struct {
		name string
		body string
	}{
		{"image key", `{"image":"` + b64 + `"}`},
		{"generated_image key", `{"generated_image":"` + b64 + `"}`},
		{"images list", `{"images":["` + b64 + `","ignored"]}`},
		{"data uri", `{"image":"data:image/png;base64,` + b64 + `"}`},
		{"priority order", `{"generated_image":"not base64!","image":"` + b64 + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeResponse("application/json", []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, blue, img.RGBAAt(0, 0))
		})
	}
}

func TestDecodeResponse_Unexpected(t *testing.T) {
	for _, body := range []string{`{"error":"nsfw"}`, `{"images":[]}`, `[1,2]`, `oops`} {
		t.Run(body, func(t *testing.T) {
			_, err := DecodeResponse("application/json", []byte(body))
			var unexpected *UnexpectedImageResponseError
			require.ErrorAs(t, err, &unexpected)
			assert.Equal(t, "application/json", unexpected.ContentType)
		})
	}
}

func TestGenerate_PlaceholderOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		caller *fakeCaller
	}{
		{"upstream error", &fakeCaller{err: &upstream.ModelNotFoundError{Model: "sd"}}},
		{"corrupt image bytes", &fakeCaller{contentType: "image/png", body: []byte("not a png")}},
		{"bad base64", &fakeCaller{contentType: "application/json", body: []byte(`{"image":"%%%"}`)}},
		{"unknown envelope", &fakeCaller{contentType: "application/json", body: []byte(`{"foo":"bar"}`)}},
		{"cancelled", &fakeCaller{err: context.Canceled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewClient(tt.caller, "sd", zaptest.NewLogger(t)).Generate(context.Background(), "p")
			assertPlaceholder(t, img)
		})
	}
}

func TestTryGenerate_ReturnsError(t *testing.T) {
	caller := &fakeCaller{contentType: "text/html", body: []byte("<html></html>")}
	_, err := NewClient(caller, "sd", nil).TryGenerate(context.Background(), "p")

	var unexpected *UnexpectedImageResponseError
	require.True(t, errors.As(err, &unexpected))
	assert.Equal(t, "text/html", unexpected.ContentType)
}

func TestEncodePNGRoundTrip(t *testing.T) {
	data, err := EncodePNG(Placeholder())
	require.NoError(t, err)
	assert.Equal(t, "image/png", http.DetectContentType(data))

	img, err := DecodeResponse("image/png", data)
	require.NoError(t, err)
	assertPlaceholder(t, img)
}

// oversizedPNG returns a tiny PNG whose IHDR declares w x h.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1, color.Black)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc after 13 data bytes
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeResponse_RejectsOversizedCanvas(t *testing.T) {
	huge := oversizedPNG(t, 16000, 16000)

	_, err := DecodeResponse("image/png", huge)
	var tooLarge *ImageTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 16000, tooLarge.Width)
	assert.Equal(t, 16000, tooLarge.Height)

	envelope := `{"image":"` + base64.StdEncoding.EncodeToString(oversizedPNG(t, 2, MaxDimension+1)) + `"}`
	_, err = DecodeResponse("application/json", []byte(envelope))
	require.ErrorAs(t, err, &tooLarge)

	img := NewClient(&fakeCaller{contentType: "image/png", body: huge}, "sd", zaptest.NewLogger(t)).
		Generate(context.Background(), "p")
	assertPlaceholder(t, img)
}

func TestDecodeResponse_AcceptsMaxDimension(t *testing.T) {
	img, err := DecodeResponse("image/png", pngBytes(t, MaxDimension, 1, color.White))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, MaxDimension, 1), img.Bounds())
}
