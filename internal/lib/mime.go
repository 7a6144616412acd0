package lib

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// imageTypes maps the accepted extensions to the MIME type sent with the upload.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".jfif": "image/jpeg",
	".jfi":  "image/jpeg",
	".jif":  "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ContentTypeForName returns the MIME type for a file name's extension.
func ContentTypeForName(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := imageTypes[ext]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// DetectContentType returns the MIME type for the file at path. The extension
// decides when it is known; otherwise the first bytes are sniffed and must
// look like an image.
func DetectContentType(path string) (string, error) {
	if t, err := ContentTypeForName(path); err == nil {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	t := http.DetectContentType(head[:n])
	if !strings.HasPrefix(t, "image/") {
		return "", fmt.Errorf("%w: %s looks like %s", ErrUnsupportedType, path, t)
	}
	return t, nil
}

// contentTyper picks the MIME type for each upload. A forced type applies to
// every file.
type contentTyper struct {
	forced string
}

func (c contentTyper) typeFor(path string) (string, error) {
	if c.forced != "" {
		return c.forced, nil
	}
	return DetectContentType(path)
}
