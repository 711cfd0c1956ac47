package coco

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/boxaug/pkg/errors"
)

// ReadJSON decodes a COCO document from r.
//
// The input must be a JSON object. The "images" and "annotations" arrays are
// decoded into typed records; every other top-level key is preserved as-is.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or not an object
//   - An image record has no "id"
//   - An annotation has no "image_id" or a malformed "bbox"
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedDataset, err, "decode")
	}
	return &ds, nil
}

// Import reads the COCO file at path.
func Import(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "annotation file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// WriteJSON encodes ds as JSON and writes it to w.
func WriteJSON(ds *Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Export writes ds to a JSON file at path.
func Export(ds *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(ds, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
