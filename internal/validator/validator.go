package validator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/snaplabel/internal/dataset"
	"github.com/arcanaland/snaplabel/internal/labels"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Validator checks the layout of a data directory: the class index, the
// per-card class copies and the label files. Image content is never decoded.
type Validator struct {
	DataPath string
	Results  ValidationResults

	dataset *dataset.Dataset
	classes []string
	raw     []byte // Root class index bytes, compared against each copy
}

func NewValidator(dataPath string) *Validator {
	return &Validator{
		DataPath: dataPath,
		Results:  ValidationResults{},
	}
}

func (v *Validator) Validate() (ValidationResults, error) {
	ds, err := dataset.Load(v.DataPath)
	if err != nil {
		return v.Results, err
	}
	v.dataset = ds

	if err := v.validateClassesFile(); err != nil {
		return v.Results, err
	}

	v.validateDatasetYAML()
	for _, id := range ds.CardIDs() {
		v.validateCard(ds.Cards[id])
	}

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

// validateClassesFile checks the root class index exists and holds unique ids
func (v *Validator) validateClassesFile() error {
	path := v.dataset.ClassesPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s not found in %s", dataset.ClassesFile, v.DataPath)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", dataset.ClassesFile, err)
	}
	v.raw = raw

	classes, err := labels.ReadClasses(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", dataset.ClassesFile, err)
	}
	v.classes = classes

	if len(classes) == 0 {
		v.errorf("%s is empty", dataset.ClassesFile)
	}
	if bytes.HasSuffix(raw, []byte("\n")) {
		v.warnf("%s ends with a newline", dataset.ClassesFile)
	}

	seen := make(map[string]int, len(classes))
	for i, name := range classes {
		if strings.TrimSpace(name) == "" {
			v.errorf("%s line %d is blank", dataset.ClassesFile, i+1)
			continue
		}
		if first, ok := seen[name]; ok {
			v.errorf("%s lists %s twice (lines %d and %d)", dataset.ClassesFile, name, first+1, i+1)
			continue
		}
		seen[name] = i
	}

	return nil
}

// validateDatasetYAML checks dataset.yaml, when present, matches the class index
func (v *Validator) validateDatasetYAML() {
	path := filepath.Join(v.DataPath, labels.DatasetFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	ds, err := labels.ReadDataset(path)
	if err != nil {
		v.errorf("%v", err)
		return
	}

	if ds.Count != len(v.classes) {
		v.errorf("%s nc is %d, class index has %d classes", labels.DatasetFile, ds.Count, len(v.classes))
	}
	for i, name := range v.classes {
		if ds.Names[i] != name {
			v.errorf("%s names[%d] is %q, class index has %q", labels.DatasetFile, i, ds.Names[i], name)
		}
	}
}

// validateCard checks one card directory against the class index
func (v *Validator) validateCard(c *dataset.CardDir) {
	index := labels.ClassIndex(v.classes, c.ID)
	if index < 0 {
		if len(c.Labels) > 0 {
			v.errorf("%s has labels but is not in %s", c.ID, dataset.ClassesFile)
		} else {
			v.warnf("%s is not in %s", c.ID, dataset.ClassesFile)
		}
	}

	if len(c.Images) == 0 {
		v.warnf("%s has no images", c.ID)
	}

	v.validateClassesCopy(c)

	for _, image := range c.Images {
		label, ok := c.LabelFor(image)
		if !ok {
			v.warnf("%s/%s has no label", c.ID, image)
			continue
		}
		if index >= 0 {
			v.validateLabel(c, label, index)
		}
	}

	images := make(map[string]bool, len(c.Images))
	for _, image := range c.Images {
		images[strings.TrimSuffix(image, filepath.Ext(image))] = true
	}
	for _, label := range c.Labels {
		if !images[strings.TrimSuffix(label, labels.LabelExt)] {
			v.warnf("%s/%s has no matching image", c.ID, label)
		}
	}
}

// validateClassesCopy checks the card's classes.txt is identical to the root index
func (v *Validator) validateClassesCopy(c *dataset.CardDir) {
	if !c.HasClasses {
		if len(c.Labels) > 0 {
			v.errorf("%s has labels but no %s", c.ID, labels.ClassesFile)
		}
		return
	}

	cp, err := os.ReadFile(filepath.Join(c.Path, labels.ClassesFile))
	if err != nil {
		v.errorf("error reading %s/%s: %v", c.ID, labels.ClassesFile, err)
		return
	}
	if !bytes.Equal(cp, v.raw) {
		v.errorf("%s/%s differs from %s", c.ID, labels.ClassesFile, dataset.ClassesFile)
	}
}

// validateLabel checks a label file holds one well-formed box of the card's class
func (v *Validator) validateLabel(c *dataset.CardDir, label string, index int) {
	data, err := os.ReadFile(filepath.Join(c.Path, label))
	if err != nil {
		v.errorf("error reading %s/%s: %v", c.ID, label, err)
		return
	}

	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	if len(lines) != 1 {
		v.errorf("%s/%s has %d lines, expected 1", c.ID, label, len(lines))
		return
	}

	box, err := labels.ParseBox(lines[0])
	if err != nil {
		v.errorf("%s/%s: %v", c.ID, label, err)
		return
	}
	if box.Class != index {
		v.errorf("%s/%s has class %d, %s puts %s at %d", c.ID, label, box.Class, dataset.ClassesFile, c.ID, index)
	}
}
