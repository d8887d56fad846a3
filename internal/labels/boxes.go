package labels

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/logging"
)

// LabelExt is the extension of YOLO label files
const LabelExt = ".txt"

// imageExts lists the image extensions labels are generated for
var imageExts = map[string]bool{
	".webp": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsImage reports whether name has a recognized image extension
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// LabelPath returns the label file that belongs to an image
func LabelPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + LabelExt
}

// BoundingBox is a YOLO box in normalized [0,1] image coordinates
type BoundingBox struct {
	Class   int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// FullFrame returns a box covering the whole image
func FullFrame(class int) BoundingBox {
	return BoundingBox{Class: class, XCenter: 0.5, YCenter: 0.5, Width: 1, Height: 1}
}

// String formats the box as a YOLO label line, e.g. "3 0.5 0.5 1 1"
func (b BoundingBox) String() string {
	return strings.Join([]string{
		strconv.Itoa(b.Class),
		strconv.FormatFloat(b.XCenter, 'g', -1, 64),
		strconv.FormatFloat(b.YCenter, 'g', -1, 64),
		strconv.FormatFloat(b.Width, 'g', -1, 64),
		strconv.FormatFloat(b.Height, 'g', -1, 64),
	}, " ")
}

// ParseBox parses one YOLO label line
func ParseBox(line string) (BoundingBox, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return BoundingBox{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	class, err := strconv.Atoi(fields[0])
	if err != nil || class < 0 {
		return BoundingBox{}, fmt.Errorf("invalid class index %q", fields[0])
	}

	var coords [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 || v > 1 {
			return BoundingBox{}, fmt.Errorf("invalid normalized coordinate %q", f)
		}
		coords[i] = v
	}

	return BoundingBox{Class: class, XCenter: coords[0], YCenter: coords[1], Width: coords[2], Height: coords[3]}, nil
}

// BoxResult is the outcome of labelling one card directory
type BoxResult struct {
	Card       string
	ClassIndex int
	Labels     []string // Label files written
	Errors     []error
}

// OK reports whether every step succeeded
func (r BoxResult) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the result's errors, or returns nil
func (r BoxResult) Err() error {
	return errors.Join(r.Errors...)
}

// Generator writes bounding box labels for downloaded card artwork
type Generator struct {
	DataDir     string
	ClassesPath string // Class index copied into each card directory
	Logger      *slog.Logger
}

// NewGenerator creates a generator for dataDir
func NewGenerator(dataDir, classesPath string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{DataDir: dataDir, ClassesPath: classesPath, Logger: logger}
}

// Generate writes a full-frame label for every image in the card's directory,
// then copies the class index next to them. classIndex must be the card's
// position in the class index file.
func (g *Generator) Generate(cardID string, classIndex int) BoxResult {
	result := BoxResult{Card: cardID, ClassIndex: classIndex}
	dir := filepath.Join(g.DataDir, cardID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Errors = append(result.Errors, errors.Newf("error listing card directory: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("card", cardID).
			Context("dir", dir).
			Build())
		return result
	}

	line := FullFrame(classIndex).String() + "\n"
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}

		labelPath := LabelPath(filepath.Join(dir, entry.Name()))
		if err := os.WriteFile(labelPath, []byte(line), 0644); err != nil {
			g.Logger.Debug("label write failed", "path", labelPath, "error", err)
			result.Errors = append(result.Errors, errors.Newf("error writing label: %w", err).
				Category(errors.CategoryFileIO).
				Component(component).
				Context("path", labelPath).
				Build())
			continue
		}

		g.Logger.Debug("label written", "path", labelPath, "class", classIndex)
		result.Labels = append(result.Labels, labelPath)
	}

	if err := CopyClasses(g.ClassesPath, dir); err != nil {
		g.Logger.Debug("class index copy failed", "card", cardID, "error", err)
		result.Errors = append(result.Errors, err)
	}

	return result
}
