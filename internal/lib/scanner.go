package lib

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalFile is a file in the watched folder that is a candidate for upload.
type LocalFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// ScanResult is the outcome of one scan of the watched folder.
type ScanResult struct {
	// Files are the new, unlocked files in directory listing order.
	Files []LocalFile
	// Locked are the names skipped because another process holds them.
	Locked []string
	// Errors are per-file failures. They do not stop the scan.
	Errors []error
}

// Scanner lists the watched folder and reduces it to files the gallery does
// not have yet.
type Scanner struct {
	extensions map[string]bool
	isLocked   func(path string) (bool, error)
}

// NewScanner creates a scanner. An empty extensions list accepts every regular
// file. Extensions are matched case-insensitively and include the dot.
func NewScanner(extensions []string) *Scanner {
	s := &Scanner{isLocked: probeLock}
	if len(extensions) > 0 {
		s.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			s.extensions[strings.ToLower(ext)] = true
		}
	}
	return s
}

func (s *Scanner) accepts(name string) bool {
	if s.extensions == nil {
		return true
	}
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}

// Scan creates dir if needed and returns the files in it that are neither
// locked nor already in snap. The result is the same for the same directory
// contents and snapshot.
func (s *Scanner) Scan(dir string, snap *GallerySnapshot) (ScanResult, error) {
	var result ScanResult

	if err := os.MkdirAll(dir, 0755); err != nil {
		return result, fmt.Errorf("failed to create watch dir %s: %w", dir, err)
	}

	// Read through an open handle so entries come back in the order the
	// filesystem lists them; os.ReadDir would sort by name.
	d, err := os.Open(dir)
	if err != nil {
		return result, fmt.Errorf("failed to open watch dir %s: %w", dir, err)
	}
	entries, err := d.ReadDir(-1)
	d.Close()
	if err != nil {
		return result, fmt.Errorf("failed to read watch dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !s.accepts(name) {
			continue
		}
		if snap.Contains(name) {
			continue
		}

		path := filepath.Join(dir, name)
		locked, err := s.isLocked(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to check %s: %w", path, err))
			continue
		}
		if locked {
			logger.Debug("Skipping locked file", slog.String("file", path))
			result.Locked = append(result.Locked, name)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to stat %s: %w", path, err))
			continue
		}
		result.Files = append(result.Files, LocalFile{
			Path:    path,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return result, nil
}
