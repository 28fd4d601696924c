package annotation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ClassMap resolves Pascal VOC object names to class ids.
type ClassMap struct {
	// IDs maps canonical class names to ids.
	IDs map[string]int
	// Aliases maps misspelled or legacy names to canonical names.
	Aliases map[string]string
	// Colors holds a #rrggbb tint and outline colour per class id. It may
	// be empty.
	Colors []string
}

// DefaultClassMap is the two-class plate dataset: blue4 and red4, with the
// blue4ww labelling typo folded into blue4. Each plate class is tinted in
// its own colour.
func DefaultClassMap() ClassMap {
	return ClassMap{
		IDs:     map[string]int{"blue4": 0, "red4": 1},
		Aliases: map[string]string{"blue4ww": "blue4"},
		Colors:  []string{"#0000ff", "#ff0000"},
	}
}

// Resolve returns the canonical name and id for a raw object name.
func (m ClassMap) Resolve(name string) (string, int, error) {
	name = strings.TrimSpace(name)
	if canonical, ok := m.Aliases[name]; ok {
		name = canonical
	}
	id, ok := m.IDs[name]
	if !ok {
		return "", 0, fmt.Errorf("unknown class %q", name)
	}
	return name, id, nil
}

// Names returns the canonical class names indexed by class id. Ids with no
// name are left empty.
func (m ClassMap) Names() []string {
	names := make([]string, m.NumClasses())
	for name, id := range m.IDs {
		names[id] = name
	}
	return names
}

// NumClasses returns one more than the largest class id.
func (m ClassMap) NumClasses() int {
	n := 0
	for _, id := range m.IDs {
		n = max(n, id+1)
	}
	return n
}

// ParseVOC reads a Pascal VOC annotation document. imageDir, when not
// empty, is joined with the document's filename to form Set.File.
func ParseVOC(r io.Reader, classes ClassMap, imageDir string) (*Set, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse VOC XML: %w", err)
	}

	root := xmlquery.FindOne(doc, "/annotation")
	if root == nil {
		return nil, fmt.Errorf("missing <annotation> root element")
	}

	set := &Set{File: childText(root, "filename")}
	if imageDir != "" && set.File != "" {
		set.File = filepath.Join(imageDir, set.File)
	}

	size := xmlquery.FindOne(root, "size")
	if size == nil {
		return nil, fmt.Errorf("missing <size> element")
	}
	if set.ImageSize.Width, err = childInt(size, "width"); err != nil {
		return nil, err
	}
	if set.ImageSize.Height, err = childInt(size, "height"); err != nil {
		return nil, err
	}
	if set.ImageSize.Depth, err = childInt(size, "depth"); err != nil {
		return nil, err
	}

	for i, obj := range xmlquery.Find(root, "object") {
		name, id, err := classes.Resolve(childText(obj, "name"))
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}

		box := xmlquery.FindOne(obj, "bndbox")
		if box == nil {
			return nil, fmt.Errorf("object %d: missing <bndbox>", i)
		}
		var xmin, ymin, xmax, ymax int
		for _, f := range []struct {
			tag string
			dst *int
		}{{"xmin", &xmin}, {"ymin", &ymin}, {"xmax", &xmax}, {"ymax", &ymax}} {
			if *f.dst, err = childInt(box, f.tag); err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
		}

		a := Annotation{ClassID: id, Left: xmin, Top: ymin, Width: xmax - xmin, Height: ymax - ymin}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		set.AddCategory(Category{ClassID: id, Name: name})
		set.Annotations = append(set.Annotations, a)
	}

	return set, nil
}

// LoadVOCFile reads a Pascal VOC annotation file.
func LoadVOCFile(path string, classes ClassMap, imageDir string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VOC file: %w", err)
	}
	defer f.Close()

	set, err := ParseVOC(f, classes, imageDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return set, nil
}

func childText(n *xmlquery.Node, tag string) string {
	c := xmlquery.FindOne(n, tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.InnerText())
}

// childInt parses a numeric child element. VOC tools sometimes write
// fractional pixel values; they are truncated.
func childInt(n *xmlquery.Node, tag string) (int, error) {
	text := childText(n, tag)
	if text == "" {
		return 0, fmt.Errorf("missing <%s>", tag)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid <%s> value %q: %w", tag, text, err)
	}
	return int(v), nil
}
