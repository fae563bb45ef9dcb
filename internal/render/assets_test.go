package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchDecodesImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testPNG(t, 40, 20))
	}))
	defer srv.Close()

	f := NewAssetFetcher(srv.Client(), zap.NewNop())
	img := f.Fetch(context.Background(), srv.URL+"/logo.png")
	require.NotNil(t, img)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestFetchReturnsNilOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/404":
			http.NotFound(w, r)
		case "/garbage":
			w.Write([]byte("not an image"))
		}
	}))
	defer srv.Close()

	f := NewAssetFetcher(srv.Client(), zap.NewNop())
	ctx := context.Background()

	assert.Nil(t, f.Fetch(ctx, srv.URL+"/404"))
	assert.Nil(t, f.Fetch(ctx, srv.URL+"/garbage"))
	assert.Nil(t, f.Fetch(ctx, "http://127.0.0.1:1/unreachable.png"))
	assert.Nil(t, f.Fetch(ctx, ""))
}

func TestFetchAllFailuresAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.NotFound(w, r)
			return
		}
		w.Write(testPNG(t, 10, 10))
	}))
	defer srv.Close()

	f := NewAssetFetcher(srv.Client(), zap.NewNop())
	got := f.FetchAll(context.Background(), []string{
		srv.URL + "/good",
		srv.URL + "/bad",
		srv.URL + "/good", // duplicate fetched once
		"",
	})

	assert.NotNil(t, got[srv.URL+"/good"])
	assert.Nil(t, got[srv.URL+"/bad"])
	assert.Len(t, got, 2)
}
