package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/kozaktomas/portfolio/internal/imageopt"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newImagesHandler(maxBytes int64) *ImagesHandler {
	return NewImagesHandler(
		imageopt.New(imageopt.WithEncoders(imageopt.JPEGEncoder{})),
		imageopt.Options{MaxBytes: maxBytes},
		10<<20,
	)
}

func TestImagesHandler_Optimize_Unchanged(t *testing.T) {
	data := pngBytes(t, 16, 16)
	handler := newImagesHandler(500_000)

	req := multipartRequest(t, http.MethodPost, "/api/v1/images/optimize", nil,
		multipartFile{field: "image", name: "tiny.png", contentType: "image/png", data: data})
	recorder := httptest.NewRecorder()

	handler.Optimize(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "image/png")
	if recorder.Header().Get("X-Was-Optimized") != "false" {
		t.Errorf("expected X-Was-Optimized false, got %s", recorder.Header().Get("X-Was-Optimized"))
	}
	if !bytes.Equal(recorder.Body.Bytes(), data) {
		t.Error("expected the original bytes back")
	}
}

func TestImagesHandler_Optimize_Shrinks(t *testing.T) {
	data := pngBytes(t, 400, 300)
	maxBytes := int64(len(data) / 2)
	handler := newImagesHandler(maxBytes)

	req := multipartRequest(t, http.MethodPost, "/api/v1/images/optimize", nil,
		multipartFile{field: "image", name: "shot.png", contentType: "image/png", data: data})
	recorder := httptest.NewRecorder()

	handler.Optimize(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, imageopt.MIMEJPEG)

	if got := recorder.Header().Get("X-Original-Bytes"); got != strconv.Itoa(len(data)) {
		t.Errorf("expected X-Original-Bytes %d, got %s", len(data), got)
	}
	final, err := strconv.ParseInt(recorder.Header().Get("X-Final-Bytes"), 10, 64)
	if err != nil || final > maxBytes || final != int64(recorder.Body.Len()) {
		t.Errorf("unexpected X-Final-Bytes %q for body of %d bytes", recorder.Header().Get("X-Final-Bytes"), recorder.Body.Len())
	}
	if recorder.Header().Get("X-Was-Optimized") != "true" {
		t.Error("expected X-Was-Optimized true")
	}
}

func TestImagesHandler_Optimize_NotImage(t *testing.T) {
	handler := newImagesHandler(500_000)

	req := multipartRequest(t, http.MethodPost, "/api/v1/images/optimize", nil,
		multipartFile{field: "image", name: "notes.txt", contentType: "text/plain", data: []byte("hello")})
	recorder := httptest.NewRecorder()

	handler.Optimize(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "Please choose an image file.")
}

func TestImagesHandler_Optimize_MissingFile(t *testing.T) {
	handler := newImagesHandler(500_000)

	req := multipartRequest(t, http.MethodPost, "/api/v1/images/optimize", map[string]string{"title": "x"})
	recorder := httptest.NewRecorder()

	handler.Optimize(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "Please choose an image file.")
}
