// Package coco reads and writes COCO-style object detection datasets.
//
// Only the fields boxaug needs are typed: image ids, file names and sizes,
// and each annotation's image_id and bbox. Every other field, at the top
// level, on images and on annotations, is kept as raw JSON and written back
// unchanged, so segmentation polygons, categories, licenses and custom keys
// survive a round trip.
//
// Annotations are validated when decoded. A missing bbox, a bbox that is not
// a four-element numeric array, or a negative width or height is rejected
// with [errors.ErrCodeMalformedAnnotation]; transforms never see a malformed
// record.
package coco

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/geom"
)

// Raw holds fields that are passed through without interpretation.
type Raw map[string]json.RawMessage

// Annotation is one object instance. BBox and ImageID are typed; all other
// fields live in Extra.
type Annotation struct {
	ImageID int64
	BBox    geom.Box
	Extra   Raw
}

// Image is one entry of the dataset's images list.
type Image struct {
	ID       int64
	FileName string
	Width    int
	Height   int
	Extra    Raw
}

// Dataset is a whole COCO document.
type Dataset struct {
	Images      []Image
	Annotations []Annotation
	Extra       Raw
}

// Clone returns a deep copy of a. Operators clone before changing a box so
// the caller's records are never mutated.
func (a Annotation) Clone() Annotation {
	a.Extra = cloneRaw(a.Extra)
	return a
}

// WithBox returns a copy of a with its bbox replaced.
func (a Annotation) WithBox(b geom.Box) Annotation {
	c := a.Clone()
	c.BBox = b
	return c
}

// ID returns the annotation id, if present and numeric.
func (a Annotation) ID() (int64, bool) {
	return rawInt(a.Extra, "id")
}

// CategoryID returns the category id, if present and numeric.
func (a Annotation) CategoryID() (int64, bool) {
	return rawInt(a.Extra, "category_id")
}

// CloneAll deep-copies a list of annotations.
func CloneAll(anns []Annotation) []Annotation {
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		out[i] = a.Clone()
	}
	return out
}

type typedAnnotation struct {
	ImageID *int64     `json:"image_id"`
	BBox    *[]float64 `json:"bbox"`
}

// UnmarshalJSON decodes an annotation and validates its bbox.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedAnnotation, err, "annotation is not an object")
	}
	var typed typedAnnotation
	if err := json.Unmarshal(data, &typed); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedAnnotation, err, "invalid image_id or bbox")
	}
	if typed.ImageID == nil {
		return errors.New(errors.ErrCodeMalformedAnnotation, "missing image_id")
	}
	if typed.BBox == nil {
		return errors.New(errors.ErrCodeMalformedAnnotation, "missing bbox")
	}
	box, ok := geom.FromSlice(*typed.BBox)
	if !ok {
		return errors.New(errors.ErrCodeMalformedAnnotation, "bbox must have 4 elements, got %d", len(*typed.BBox))
	}
	if box.W < 0 || box.H < 0 {
		return errors.New(errors.ErrCodeMalformedAnnotation, "bbox has negative size: %v", box.Slice())
	}

	delete(raw, "image_id")
	delete(raw, "bbox")
	*a = Annotation{ImageID: *typed.ImageID, BBox: box, Extra: raw}
	return nil
}

// MarshalJSON encodes the annotation with its passthrough fields.
func (a Annotation) MarshalJSON() ([]byte, error) {
	out := cloneRaw(a.Extra)
	if out == nil {
		out = Raw{}
	}
	if err := setRaw(out, "image_id", a.ImageID); err != nil {
		return nil, err
	}
	if err := setRaw(out, "bbox", a.BBox.Slice()); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

type typedImage struct {
	ID       *int64 `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// UnmarshalJSON decodes an image record.
func (im *Image) UnmarshalJSON(data []byte) error {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedDataset, err, "image is not an object")
	}
	var typed typedImage
	if err := json.Unmarshal(data, &typed); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedDataset, err, "invalid image record")
	}
	if typed.ID == nil {
		return errors.New(errors.ErrCodeMalformedDataset, "image %q has no id", typed.FileName)
	}
	for _, k := range []string{"id", "file_name", "width", "height"} {
		delete(raw, k)
	}
	*im = Image{ID: *typed.ID, FileName: typed.FileName, Width: typed.Width, Height: typed.Height, Extra: raw}
	return nil
}

// MarshalJSON encodes the image record with its passthrough fields.
func (im Image) MarshalJSON() ([]byte, error) {
	out := cloneRaw(im.Extra)
	if out == nil {
		out = Raw{}
	}
	fields := map[string]any{"id": im.ID, "file_name": im.FileName}
	if im.Width > 0 || im.Height > 0 {
		fields["width"] = im.Width
		fields["height"] = im.Height
	}
	for k, v := range fields {
		if err := setRaw(out, k, v); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a dataset document.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedDataset, err, "dataset is not an object")
	}

	var out Dataset
	if msg, ok := raw["images"]; ok {
		if err := json.Unmarshal(msg, &out.Images); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedDataset, err, "images")
		}
	}
	if msg, ok := raw["annotations"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedDataset, err, "annotations must be an array")
		}
		out.Annotations = make([]Annotation, len(items))
		for i, item := range items {
			if err := json.Unmarshal(item, &out.Annotations[i]); err != nil {
				return errors.Wrap(errors.ErrCodeMalformedAnnotation, err, "annotation %d", i)
			}
		}
	}

	delete(raw, "images")
	delete(raw, "annotations")
	out.Extra = raw
	*d = out
	return nil
}

// MarshalJSON encodes the dataset with its passthrough fields.
func (d Dataset) MarshalJSON() ([]byte, error) {
	out := cloneRaw(d.Extra)
	if out == nil {
		out = Raw{}
	}
	images := d.Images
	if images == nil {
		images = []Image{}
	}
	anns := d.Annotations
	if anns == nil {
		anns = []Annotation{}
	}
	if err := setRaw(out, "images", images); err != nil {
		return nil, err
	}
	if err := setRaw(out, "annotations", anns); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func cloneRaw(r Raw) Raw {
	if r == nil {
		return nil
	}
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = bytes.Clone(v)
	}
	return out
}

func setRaw(r Raw, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", key)
	}
	r[key] = data
	return nil
}

func rawInt(r Raw, key string) (int64, bool) {
	msg, ok := r[key]
	if !ok {
		return 0, false
	}
	var v int64
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, false
	}
	return v, true
}
