package coco

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/geom"
)

const sample = `{
  "info": {"description": "val2017 subset"},
  "licenses": [{"id": 1, "name": "CC"}],
  "categories": [{"id": 1, "name": "person"}],
  "images": [
    {"id": 139, "file_name": "000000000139.jpg", "width": 640, "height": 426, "license": 1},
    {"id": 285, "file_name": "000000000285.jpg", "width": 586, "height": 640}
  ],
  "annotations": [
    {"id": 1, "image_id": 139, "category_id": 1, "bbox": [412.8, 157.61, 53.05, 138.01], "iscrowd": 0, "segmentation": [[1,2,3,4]]},
    {"id": 2, "image_id": 285, "category_id": 1, "bbox": [0, 0, 10, 10]},
    {"id": 3, "image_id": 139, "category_id": 1, "bbox": [1, 2, 3, 4]}
  ]
}`

func TestReadJSON(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	if len(ds.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(ds.Images))
	}
	if ds.Images[0].FileName != "000000000139.jpg" || ds.Images[0].Width != 640 {
		t.Errorf("image[0] = %+v", ds.Images[0])
	}
	if len(ds.Annotations) != 3 {
		t.Fatalf("annotations = %d, want 3", len(ds.Annotations))
	}

	a := ds.Annotations[0]
	if a.ImageID != 139 {
		t.Errorf("ImageID = %d, want 139", a.ImageID)
	}
	if want := (geom.Box{X: 412.8, Y: 157.61, W: 53.05, H: 138.01}); a.BBox != want {
		t.Errorf("BBox = %v, want %v", a.BBox, want)
	}
	if id, ok := a.ID(); !ok || id != 1 {
		t.Errorf("ID() = %d, %v", id, ok)
	}
	if cat, ok := a.CategoryID(); !ok || cat != 1 {
		t.Errorf("CategoryID() = %d, %v", cat, ok)
	}
	if _, ok := ds.Extra["categories"]; !ok {
		t.Error("categories should be preserved in Extra")
	}
}

func TestRoundTripPreservesPassthrough(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(ds, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"info", "licenses", "categories", "images", "annotations"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("output missing %q", key)
		}
	}

	anns := doc["annotations"].([]any)
	first := anns[0].(map[string]any)
	if _, ok := first["segmentation"]; !ok {
		t.Error("segmentation should pass through")
	}
	if first["iscrowd"].(float64) != 0 {
		t.Errorf("iscrowd = %v", first["iscrowd"])
	}
	images := doc["images"].([]any)
	if images[0].(map[string]any)["license"].(float64) != 1 {
		t.Error("image license should pass through")
	}
}

func TestMalformedAnnotations(t *testing.T) {
	tests := []struct {
		name string
		ann  string
	}{
		{"missing bbox", `{"id": 1, "image_id": 1}`},
		{"null bbox", `{"id": 1, "image_id": 1, "bbox": null}`},
		{"three elements", `{"id": 1, "image_id": 1, "bbox": [1, 2, 3]}`},
		{"five elements", `{"id": 1, "image_id": 1, "bbox": [1, 2, 3, 4, 5]}`},
		{"strings", `{"id": 1, "image_id": 1, "bbox": ["a", "b", "c", "d"]}`},
		{"negative width", `{"id": 1, "image_id": 1, "bbox": [1, 2, -3, 4]}`},
		{"missing image_id", `{"id": 1, "bbox": [1, 2, 3, 4]}`},
		{"not an object", `[1, 2, 3, 4]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"images": [], "annotations": [` + tt.ann + `]}`
			_, err := ReadJSON(strings.NewReader(doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeMalformedAnnotation) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeMalformedAnnotation)
			}
		})
	}
}

func TestMalformedDataset(t *testing.T) {
	for _, doc := range []string{`[]`, `{"images": {}}`, `{"images": [{"file_name": "a.jpg"}]}`, `{"annotations": 3}`} {
		_, err := ReadJSON(strings.NewReader(doc))
		if !errors.Is(err, errors.ErrCodeMalformedDataset) {
			t.Errorf("ReadJSON(%s) code = %v, want %v", doc, errors.GetCode(err), errors.ErrCodeMalformedDataset)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	orig := ds.Annotations[0]
	c := orig.WithBox(geom.Box{X: 1, Y: 1, W: 1, H: 1})
	c.Extra["id"][0] = '9'

	if orig.BBox == c.BBox {
		t.Error("WithBox should not change the original box")
	}
	if id, _ := orig.ID(); id != 1 {
		t.Errorf("original id changed to %d", id)
	}
}

func TestIndex(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	idx := NewIndex(ds)

	im, anns, ok := idx.Lookup("000000000139.jpg")
	if !ok {
		t.Fatal("Lookup should find 000000000139.jpg")
	}
	if im.ID != 139 {
		t.Errorf("ID = %d, want 139", im.ID)
	}
	if len(anns) != 2 {
		t.Fatalf("annotations = %d, want 2", len(anns))
	}
	if id, _ := anns[1].ID(); id != 3 {
		t.Errorf("second annotation id = %d, want 3 (dataset order)", id)
	}

	anns[0].BBox = geom.Box{}
	if ds.Annotations[0].BBox == (geom.Box{}) {
		t.Error("Index should return clones")
	}

	if _, _, ok := idx.Lookup("missing.jpg"); ok {
		t.Error("Lookup should fail for unknown file")
	}
	if got := idx.Annotations(999); len(got) != 0 {
		t.Errorf("Annotations(999) = %v, want empty", got)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "instances.json")
	if err := os.WriteFile(in, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := Import(in)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	out := filepath.Join(dir, "out.json")
	if err := Export(ds, out); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	back, err := Import(out)
	if err != nil {
		t.Fatalf("re-Import() error: %v", err)
	}
	if len(back.Annotations) != 3 || back.Annotations[2].BBox != ds.Annotations[2].BBox {
		t.Errorf("round trip mismatch: %+v", back.Annotations)
	}

	if _, err := Import(filepath.Join(dir, "nope.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
