package annotation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// record is the on-disk JSON layout. image_size is a one-element list.
type record struct {
	File        string       `json:"file"`
	ImageSize   []Size       `json:"image_size"`
	Categories  []Category   `json:"categories"`
	Annotations []Annotation `json:"annotations"`
}

// MarshalJSON writes s in the record layout.
func (s *Set) MarshalJSON() ([]byte, error) {
	r := record{
		File:        s.File,
		ImageSize:   []Size{s.ImageSize},
		Categories:  s.Categories,
		Annotations: s.Annotations,
	}
	if r.Categories == nil {
		r.Categories = []Category{}
	}
	if r.Annotations == nil {
		r.Annotations = []Annotation{}
	}
	return json.Marshal(r)
}

// UnmarshalJSON reads the record layout.
func (s *Set) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if len(r.ImageSize) != 1 {
		return fmt.Errorf("image_size must hold exactly one entry, got %d", len(r.ImageSize))
	}
	*s = Set{
		File:        r.File,
		ImageSize:   r.ImageSize[0],
		Categories:  r.Categories,
		Annotations: r.Annotations,
	}
	return nil
}

// ReadJSON decodes a Set from r.
func ReadJSON(r io.Reader) (*Set, error) {
	var s Set
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode annotation record: %w", err)
	}
	return &s, nil
}

// WriteJSON encodes s to w with four-space indentation.
func WriteJSON(w io.Writer, s *Set) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode annotation record: %w", err)
	}
	return nil
}

// LoadJSONFile reads a Set from a JSON file.
func LoadJSONFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// SaveJSONFile writes s to path, replacing any existing file.
func SaveJSONFile(path string, s *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create annotation file: %w", err)
	}
	if err := WriteJSON(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
