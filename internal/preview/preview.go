// Package preview renders downloaded card artwork as ANSI half-block art.
package preview

import (
	"crypto/md5"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// DefaultWidth is the preview width in terminal cells
const DefaultWidth = 40

// Render converts an image to ANSI art width cells wide. The height follows the
// image's aspect ratio, with each cell covering two pixel rows.
func Render(img image.Image, width int, trueColor bool) string {
	if width <= 0 {
		width = DefaultWidth
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ""
	}

	height := (width*bounds.Dy() + bounds.Dx()) / (2 * bounds.Dx())
	if height < 1 {
		height = 1
	}

	// Doubled for half-block characters
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			// Top pixels as foreground, bottom pixels as background
			fg := averageColor(colorAt(resized, x, y), colorAt(resized, x+1, y))
			bg := averageColor(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))

			buffer.WriteString(cell('▀', fg, bg, trueColor))
		}
		buffer.WriteString("\n")
	}

	return buffer.String()
}

// RenderFile decodes an image file (webp, png or jpeg) and renders it
func RenderFile(path string, width int, trueColor bool) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %v", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}

	return Render(img, width, trueColor), nil
}

// Cached renders an image through an on-disk cache in cacheDir. Entries are
// keyed by path, modification time and render settings, so a re-download
// invalidates them.
func Cached(cacheDir, path string, width int, trueColor bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("image not found: %s", path)
	}

	key := fmt.Sprintf("%s|%d|%d|%d|%t", path, info.ModTime().UnixNano(), info.Size(), width, trueColor)
	cachePath := filepath.Join(cacheDir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))

	if data, err := os.ReadFile(cachePath); err == nil {
		return string(data), nil
	}

	art, err := RenderFile(path, width, trueColor)
	if err != nil {
		return "", err
	}

	// The cache is best effort
	if err := os.MkdirAll(cacheDir, 0755); err == nil {
		_ = os.WriteFile(cachePath, []byte(art), 0644)
	}

	return art, nil
}

// colorAt returns the color at a coordinate, black when out of bounds
func colorAt(img image.Image, x, y int) colorful.Color {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return colorful.Color{}
	}
	c, _ := colorful.MakeColor(img.At(x, y))
	return c
}

// averageColor calculates the average of multiple colors
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

// cell formats a character with ANSI colors, 24-bit or the xterm 256 palette
func cell(char rune, fg, bg colorful.Color, trueColor bool) string {
	if trueColor {
		r1, g1, b1 := fg.Clamped().RGB255()
		r2, g2, b2 := bg.Clamped().RGB255()
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
			r1, g1, b1, r2, g2, b2, char)
	}

	return fmt.Sprintf("\x1b[38;5;%dm\x1b[48;5;%dm%c\x1b[0m", xterm256(fg), xterm256(bg), char)
}

// xterm256 maps a color onto the 6x6x6 color cube of the 256-color palette
func xterm256(c colorful.Color) int {
	r, g, b := c.Clamped().RGB255()
	level := func(v uint8) int {
		return (int(v)*5 + 127) / 255
	}
	return 16 + 36*level(r) + 6*level(g) + level(b)
}

// StripAnsi removes ANSI escape sequences from a string
func StripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth returns the number of printed runes in s
func VisibleWidth(s string) int {
	return len([]rune(StripAnsi(s)))
}
