package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arcanaland/snaplabel/internal/labels"
)

// ClassesFile is the root class index file name
const ClassesFile = "predefined_classes.txt"

// Dataset represents a local data directory of downloaded card artwork
type Dataset struct {
	Root        string
	ClassesPath string

	// Card directories by card id
	Cards map[string]*CardDir
}

// CardDir represents one card's image directory
type CardDir struct {
	ID         string
	Path       string
	Images     []string // Image file names, sorted
	Labels     []string // Label file names, sorted; classes.txt excluded
	HasClasses bool     // classes.txt present
}

// Load scans a data directory. Every subdirectory is a card.
func Load(root string) (*Dataset, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data directory not found: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("error reading data directory: %w", err)
	}

	ds := &Dataset{
		Root:        root,
		ClassesPath: filepath.Join(root, ClassesFile),
		Cards:       make(map[string]*CardDir),
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		c, err := loadCardDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("error loading card %s: %w", entry.Name(), err)
		}
		ds.Cards[c.ID] = c
	}

	return ds, nil
}

// loadCardDir lists the images and labels of a card directory
func loadCardDir(path string) (*CardDir, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	c := &CardDir{
		ID:   filepath.Base(path),
		Path: path,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		switch {
		case name == labels.ClassesFile:
			c.HasClasses = true
		case labels.IsImage(name):
			c.Images = append(c.Images, name)
		case filepath.Ext(name) == labels.LabelExt:
			c.Labels = append(c.Labels, name)
		}
	}

	sort.Strings(c.Images)
	sort.Strings(c.Labels)
	return c, nil
}

// CardIDs returns the card ids in lexical order
func (d *Dataset) CardIDs() []string {
	ids := make([]string, 0, len(d.Cards))
	for id := range d.Cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetCard gets a card directory by id
func (d *Dataset) GetCard(cardID string) (*CardDir, error) {
	c, ok := d.Cards[cardID]
	if !ok {
		return nil, fmt.Errorf("card not found: %s", cardID)
	}
	return c, nil
}

// LabelFor returns the label file name of an image and whether it exists
func (c *CardDir) LabelFor(image string) (string, bool) {
	label := filepath.Base(labels.LabelPath(image))
	i := sort.SearchStrings(c.Labels, label)
	return label, i < len(c.Labels) && c.Labels[i] == label
}

// ImagePath returns the path of the image for a variant, trying the known image
// extensions. The card's base artwork is used when variant is empty.
func (c *CardDir) ImagePath(variant string) (string, error) {
	if variant == "" {
		variant = c.ID
	}
	for _, name := range c.Images {
		if strings.TrimSuffix(name, filepath.Ext(name)) == variant {
			return filepath.Join(c.Path, name), nil
		}
	}
	return "", fmt.Errorf("no image found for variant: %s", variant)
}
