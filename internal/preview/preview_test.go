package preview

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRender_Dimensions(t *testing.T) {
	// 1:2 portrait at 4 cells wide gives 4 rows of two pixel rows each
	art := Render(solidImage(32, 64, color.RGBA{200, 10, 10, 255}), 4, true)

	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Equal(t, "▀▀▀▀", StripAnsi(line))
		assert.Equal(t, 4, VisibleWidth(line))
		assert.Contains(t, line, "\x1b[38;2;")
	}
}

func TestRender_Palette(t *testing.T) {
	art := Render(solidImage(8, 8, color.White), 2, false)
	assert.Contains(t, art, "\x1b[38;5;")
	assert.NotContains(t, art, "\x1b[38;2;")

	assert.Equal(t, "", Render(image.NewRGBA(image.Rect(0, 0, 0, 0)), 4, true))
}

func TestXterm256(t *testing.T) {
	assert.Equal(t, 16, xterm256(colorful.Color{}))
	assert.Equal(t, 231, xterm256(colorful.Color{R: 1, G: 1, B: 1}))
	assert.Equal(t, 196, xterm256(colorful.Color{R: 1}))
}

func TestRenderFileAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Groot.png")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solidImage(16, 16, color.RGBA{0, 128, 0, 255})))
	require.NoError(t, f.Close())

	direct, err := RenderFile(path, 8, true)
	require.NoError(t, err)

	cacheDir := filepath.Join(dir, "cache")
	cached, err := Cached(cacheDir, path, 8, true)
	require.NoError(t, err)
	assert.Equal(t, direct, cached)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Served from the cache on the second call
	again, err := Cached(cacheDir, path, 8, true)
	require.NoError(t, err)
	assert.Equal(t, cached, again)

	_, err = RenderFile(filepath.Join(dir, "missing.webp"), 8, true)
	assert.Error(t, err)

	notImage := filepath.Join(dir, "notes.webp")
	require.NoError(t, os.WriteFile(notImage, []byte("not an image"), 0644))
	_, err = RenderFile(notImage, 8, true)
	assert.Error(t, err)
}

func TestStripAnsi(t *testing.T) {
	assert.Equal(t, "ab", StripAnsi("\x1b[38;5;196ma\x1b[0mb"))
	assert.Equal(t, "plain", StripAnsi("plain"))
}
