package lib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/google/uuid"
)

var ErrAlreadyUploaded = errors.New("file is already in the gallery")

// UploadFileOptions configures a single-file upload.
type UploadFileOptions struct {
	Login        string
	Password     string
	GalleryID    int64
	CollectionID int64
	Backoff      Backoff
	// ContentType is sent with the upload. Empty means detect it from the file.
	ContentType string
	// Force uploads even if the gallery has a photo with the same file name.
	Force        bool
	ShowProgress bool
}

// CheckUploadArgs validates the arguments of a single-file upload and returns
// the file and the MIME type to send. A non-empty forced type is used as is;
// otherwise the type is detected the same way the watch loop detects it.
func CheckUploadArgs(args []string, forced string) (LocalFile, string, error) {
	if len(args) < 1 {
		return LocalFile{}, "", errors.New("missing file argument")
	}
	if len(args) > 1 {
		return LocalFile{}, "", errors.New("can upload only one image at a time")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return LocalFile{}, "", fmt.Errorf("invalid path %s: %w", args[0], err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LocalFile{}, "", fmt.Errorf("file %s doesn't exist", args[0])
		}
		return LocalFile{}, "", fmt.Errorf("can't read image file %s: %w", args[0], err)
	}
	if info.IsDir() {
		return LocalFile{}, "", fmt.Errorf("cannot upload directory %s", args[0])
	}
	contentType, err := contentTyper{forced: forced}.typeFor(path)
	if err != nil {
		return LocalFile{}, "", err
	}
	return LocalFile{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, contentType, nil
}

// UploadFile logs in, loads the gallery and uploads one file to it.
func UploadFile(ctx context.Context, client GalleryClient, uploader Uploader, recorder Recorder, file LocalFile, opts UploadFileOptions) (UploadResult, error) {
	if err := loginWithBackoff(ctx, client, opts.Login, opts.Password, opts.Backoff, sleepContext); err != nil {
		return UploadResult{}, err
	}
	set, err := client.LoadGallery(ctx, opts.GalleryID, zenfolio.Level1, true)
	if err != nil {
		return UploadResult{}, err
	}
	snap := NewGallerySnapshot(set)
	if snap.Contains(file.Name) {
		if !opts.Force {
			return UploadResult{}, fmt.Errorf("%s: %w %q", file.Name, ErrAlreadyUploaded, snap.Title)
		}
		// The snapshot refuses duplicate names, so start from an empty one.
		snap = &GallerySnapshot{ID: snap.ID, Title: snap.Title, UploadURL: snap.UploadURL}
	}

	s := sender{
		client:       client,
		uploader:     uploader,
		recorder:     recorder,
		types:        contentTyper{forced: opts.ContentType},
		collectionID: opts.CollectionID,
		showProgress: opts.ShowProgress,
	}
	return s.send(ctx, uuid.NewString(), snap, file)
}
