package lib

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ccfrost/zenwatch/internal/history"
	"golang.org/x/time/rate"
)

// Recorder receives the outcome of every upload attempt.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// sender uploads one local file into a gallery snapshot. It is shared by the
// watch loop and the single-file upload.
type sender struct {
	client       GalleryClient
	uploader     Uploader
	recorder     Recorder
	types        contentTyper
	limiter      *rate.Limiter
	collectionID int64
	showProgress bool
}

// send uploads file, attaches it to the collection if one is configured, and
// appends it to snap. snap is untouched when the upload fails. A zero-byte
// file returns ErrEmptyFile without any upload attempt.
func (s *sender) send(ctx context.Context, cycleID string, snap *GallerySnapshot, file LocalFile) (UploadResult, error) {
	// Empty files are usually still being created; they stay eligible and
	// are neither uploaded nor recorded.
	if file.Size == 0 {
		logger.Debug("Skipping empty file", slog.String("file", file.Name))
		return UploadResult{}, fmt.Errorf("%s: %w", file.Name, ErrEmptyFile)
	}

	contentType, err := s.types.typeFor(file.Path)
	if err != nil {
		s.record(ctx, cycleID, snap, file, "", UploadResult{}, err)
		return UploadResult{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return UploadResult{}, err
		}
	}

	token, err := s.client.Token(ctx)
	if err != nil {
		return UploadResult{}, fmt.Errorf("no session for upload of %s: %w", file.Name, err)
	}
	target, err := BuildUploadURL(snap.UploadURL, file.Name)
	if err != nil {
		return UploadResult{}, err
	}

	progress, finishProgress := newProgressWriter(s.showProgress, file.Size, file.Name)
	res, err := s.uploader.Upload(ctx, UploadRequest{
		Path:        file.Path,
		Size:        file.Size,
		URL:         target,
		ContentType: contentType,
		Token:       token,
		Progress:    progress,
	})
	finishProgress()
	s.record(ctx, cycleID, snap, file, contentType, res, err)
	if err != nil {
		return UploadResult{}, err
	}

	if s.collectionID != 0 {
		if err := s.client.AddPhotoToCollection(ctx, s.collectionID, res.PhotoID); err != nil {
			logger.Warn("Failed to add photo to collection",
				slog.String("file", file.Name),
				slog.String("photo_id", res.PhotoID),
				slog.Int64("collection_id", s.collectionID),
				slog.String("error", err.Error()))
		}
	}

	snap.Append(PhotoRecord{FileName: file.Name, PhotoID: res.PhotoID})
	logger.Info("Uploaded photo",
		slog.String("file", file.Name),
		slog.String("photo_id", res.PhotoID),
		slog.Int64("size", res.BytesSent))
	return res, nil
}

// record writes the attempt to history. Failures are logged only.
func (s *sender) record(ctx context.Context, cycleID string, snap *GallerySnapshot, file LocalFile, contentType string, res UploadResult, uploadErr error) {
	if s.recorder == nil {
		return
	}
	e := history.Entry{
		CycleID:     cycleID,
		GalleryID:   snap.ID,
		FileName:    file.Name,
		Path:        file.Path,
		Size:        file.Size,
		ContentType: contentType,
		PhotoID:     res.PhotoID,
		Checksum:    res.ChecksumHex(),
		CapturedAt:  captureTime(file.Path),
	}
	if uploadErr != nil {
		e.Error = uploadErr.Error()
	}
	if err := s.recorder.Record(ctx, e); err != nil {
		logger.Warn("Failed to record upload history",
			slog.String("file", file.Name),
			slog.String("error", err.Error()))
	}
}
