package lib

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureTime returns the EXIF capture time of an image, or the zero time if
// the file has none.
func captureTime(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return t
}
