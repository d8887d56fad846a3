// Package labels writes the files labelImg and YOLO trainers read: the ordered
// class list and one bounding box label per image.
package labels

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/snaplabel/internal/errors"
)

// ClassesFile is the per-directory copy of the class list
const ClassesFile = "classes.txt"

const component = "labels"

// WriteClasses writes one card id per line in the given order, replacing any
// existing file. The same input always produces the same bytes.
func WriteClasses(path string, names []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(names, "\n")), 0644); err != nil {
		return errors.Newf("error writing class index: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", path).
			Build()
	}
	return nil
}

// ReadClasses reads a class index file back into its ordered names
func ReadClasses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf("error reading class index: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", path).
			Build()
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// ClassIndex returns the position of id in names, or -1
func ClassIndex(names []string, id string) int {
	for i, name := range names {
		if name == id {
			return i
		}
	}
	return -1
}

// CopyClasses copies the class index file verbatim into dir as classes.txt
func CopyClasses(src, dir string) error {
	dst := filepath.Join(dir, ClassesFile)

	in, err := os.Open(src)
	if err != nil {
		return errors.Newf("error opening class index: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", src).
			Build()
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Newf("error creating class copy: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", dst).
			Build()
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return errors.Newf("error copying class index: %w", copyErr).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", dst).
			Build()
	}
	return nil
}
