package lib

import (
	"strconv"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
)

// PhotoRecord is a photo known to be in the gallery.
type PhotoRecord struct {
	FileName string
	// PhotoID is empty for photos whose ID was not reported.
	PhotoID string
}

// GallerySnapshot is the in-memory copy of the target gallery. It is loaded
// once per run and only grows: a file name is present at most once and is
// never removed.
type GallerySnapshot struct {
	ID        int64
	Title     string
	UploadURL string

	photos []PhotoRecord
	names  map[string]struct{}
}

// NewGallerySnapshot builds a snapshot from a loaded photo set. Repeated file
// names in the remote listing collapse into one record.
func NewGallerySnapshot(set *zenfolio.PhotoSet) *GallerySnapshot {
	s := &GallerySnapshot{
		ID:        set.Id,
		Title:     set.Title,
		UploadURL: set.UploadUrl,
		names:     make(map[string]struct{}, len(set.Photos)),
	}
	for _, p := range set.Photos {
		rec := PhotoRecord{FileName: p.FileName}
		if p.Id != 0 {
			rec.PhotoID = formatPhotoID(p.Id)
		}
		s.Append(rec)
	}
	return s
}

// Contains reports whether name is already uploaded. The match is exact and
// case-sensitive.
func (s *GallerySnapshot) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Append records an uploaded photo. It returns false, leaving the snapshot
// unchanged, if the file name is already present.
func (s *GallerySnapshot) Append(rec PhotoRecord) bool {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, ok := s.names[rec.FileName]; ok {
		return false
	}
	s.names[rec.FileName] = struct{}{}
	s.photos = append(s.photos, rec)
	return true
}

// Photos returns the records in the order they were added.
func (s *GallerySnapshot) Photos() []PhotoRecord {
	out := make([]PhotoRecord, len(s.photos))
	copy(out, s.photos)
	return out
}

func (s *GallerySnapshot) Len() int {
	return len(s.photos)
}

func formatPhotoID(id int64) string {
	return strconv.FormatInt(id, 10)
}
