package coco

// Index groups a dataset's annotations by image for per-image processing.
// Lookups return clones, so callers may hand the results to transforms
// without affecting the dataset.
type Index struct {
	ds      *Dataset
	byFile  map[string]int
	byImage map[int64][]int
}

// NewIndex builds the file name and image id lookups for ds.
// If two image records share a file name, the first one wins.
func NewIndex(ds *Dataset) *Index {
	idx := &Index{
		ds:      ds,
		byFile:  make(map[string]int, len(ds.Images)),
		byImage: make(map[int64][]int),
	}
	for i, im := range ds.Images {
		if _, dup := idx.byFile[im.FileName]; !dup {
			idx.byFile[im.FileName] = i
		}
	}
	for i, a := range ds.Annotations {
		idx.byImage[a.ImageID] = append(idx.byImage[a.ImageID], i)
	}
	return idx
}

// Image returns the image record for a file name.
func (idx *Index) Image(fileName string) (Image, bool) {
	i, ok := idx.byFile[fileName]
	if !ok {
		return Image{}, false
	}
	im := idx.ds.Images[i]
	im.Extra = cloneRaw(im.Extra)
	return im, true
}

// Annotations returns clones of the annotations of imageID in dataset order.
func (idx *Index) Annotations(imageID int64) []Annotation {
	positions := idx.byImage[imageID]
	out := make([]Annotation, len(positions))
	for i, p := range positions {
		out[i] = idx.ds.Annotations[p].Clone()
	}
	return out
}

// Lookup is shorthand for Image followed by Annotations.
func (idx *Index) Lookup(fileName string) (Image, []Annotation, bool) {
	im, ok := idx.Image(fileName)
	if !ok {
		return Image{}, nil, false
	}
	return im, idx.Annotations(im.ID), true
}

// Len returns the number of image records.
func (idx *Index) Len() int { return len(idx.ds.Images) }
