package labels

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arcanaland/snaplabel/internal/errors"
)

// DatasetFile is the YOLO dataset description written next to the class index
const DatasetFile = "dataset.yaml"

// Dataset is the YOLO dataset description
type Dataset struct {
	Path  string         `yaml:"path"`
	Count int            `yaml:"nc"`
	Names map[int]string `yaml:"names"`
}

// NewDataset builds a dataset description from the ordered class names
func NewDataset(root string, names []string) Dataset {
	ds := Dataset{Path: root, Count: len(names), Names: make(map[int]string, len(names))}
	for i, name := range names {
		ds.Names[i] = name
	}
	return ds
}

// WriteDataset writes ds as YAML to path
func WriteDataset(path string, ds Dataset) error {
	data, err := yaml.Marshal(ds)
	if err != nil {
		return errors.Newf("error encoding dataset description: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Build()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Newf("error writing dataset description: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", path).
			Build()
	}
	return nil
}

// ReadDataset reads a dataset description
func ReadDataset(path string) (Dataset, error) {
	var ds Dataset
	data, err := os.ReadFile(path)
	if err != nil {
		return ds, errors.Newf("error reading dataset description: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("path", path).
			Build()
	}
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return ds, errors.Newf("error parsing dataset description: %w", err).
			Category(errors.CategoryValidation).
			Component(component).
			Context("path", path).
			Build()
	}
	return ds, nil
}
