package lib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// WatchOptions configures an Orchestrator.
type WatchOptions struct {
	Login    string
	Password string
	// GalleryID is the gallery uploads go to.
	GalleryID int64
	// CollectionID, if non-zero, also receives every uploaded photo.
	CollectionID int64
	// ImageRoot holds one folder per gallery, named after the gallery's title.
	ImageRoot    string
	PollInterval time.Duration
	Extensions   []string
	// ContentType, if set, is used for every upload instead of detecting it per file.
	ContentType      string
	UploadsPerSecond float64
	Backoff          Backoff
	WakeOnChange     bool
	ShowProgress     bool
}

// CycleReport summarizes one scan and upload pass.
type CycleReport struct {
	ID         string
	Candidates int
	Uploaded   int
	Failed     int
	Locked     int
	// Empty counts zero-byte files left for a later cycle.
	Empty  int
	Errors []error
	// AuthExpired is set when the session was rejected and the rest of the
	// batch was abandoned.
	AuthExpired bool
}

// Orchestrator runs the watch loop: log in, load the gallery, then scan the
// gallery's folder and upload new files until the context is cancelled.
//
// The gallery snapshot is loaded once and trusted from then on. Two processes
// watching the same gallery can upload the same file twice.
type Orchestrator struct {
	opts    WatchOptions
	scanner *Scanner
	sender  sender
	sleep   sleepFunc

	snapshot *GallerySnapshot
	dir      string
	wake     <-chan struct{}
}

func NewOrchestrator(client GalleryClient, uploader Uploader, recorder Recorder, opts WatchOptions) *Orchestrator {
	var limiter *rate.Limiter
	if opts.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.UploadsPerSecond), 1)
	}
	return &Orchestrator{
		opts:    opts,
		scanner: NewScanner(opts.Extensions),
		sender: sender{
			client:       client,
			uploader:     uploader,
			recorder:     recorder,
			types:        contentTyper{forced: opts.ContentType},
			limiter:      limiter,
			collectionID: opts.CollectionID,
			showProgress: opts.ShowProgress,
		},
		sleep: sleepContext,
	}
}

// Snapshot returns the gallery snapshot, or nil before Start.
func (o *Orchestrator) Snapshot() *GallerySnapshot {
	return o.snapshot
}

// Dir returns the watched folder, or "" before Start.
func (o *Orchestrator) Dir() string {
	return o.dir
}

// Start logs in and loads the gallery.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.login(ctx); err != nil {
		return err
	}
	set, err := o.loadGallery(ctx)
	if err != nil {
		return err
	}
	o.snapshot = NewGallerySnapshot(set)
	o.dir = filepath.Join(o.opts.ImageRoot, galleryDirName(set))
	logger.Info("Loaded gallery",
		slog.Int64("gallery_id", set.Id),
		slog.String("title", set.Title),
		slog.Int("photos", o.snapshot.Len()),
		slog.String("dir", o.dir))
	return nil
}

// Run starts the orchestrator and then polls until ctx is cancelled. It
// returns nil on cancellation and an error only if logging in is given up.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if o.opts.WakeOnChange {
		wake, err := watchDir(ctx, o.dir)
		if err != nil {
			logger.Warn("Cannot watch folder for changes, polling only",
				slog.String("dir", o.dir),
				slog.String("error", err.Error()))
		} else {
			o.wake = wake
		}
	}

	for {
		report := o.RunCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if report.AuthExpired {
			if err := o.login(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
		if err := o.idle(ctx); err != nil {
			return nil
		}
	}
}

// RunCycle scans the folder once and uploads what is new. Errors, including
// panics, are logged and reported but never returned.
func (o *Orchestrator) RunCycle(ctx context.Context) (report CycleReport) {
	report.ID = uuid.NewString()
	log := logger.With(slog.String("cycle", report.ID))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during cycle: %v", r)
			log.Error("Recovered from panic", slog.String("error", err.Error()))
			report.Errors = append(report.Errors, err)
		}
	}()

	scan, err := o.scanner.Scan(o.dir, o.snapshot)
	if err != nil {
		log.Error("Failed to scan folder", slog.String("dir", o.dir), slog.String("error", err.Error()))
		report.Errors = append(report.Errors, err)
		return report
	}
	report.Locked = len(scan.Locked)
	report.Candidates = len(scan.Files)
	for _, err := range scan.Errors {
		log.Error("Skipping file", slog.String("error", err.Error()))
		report.Errors = append(report.Errors, err)
	}

	for _, file := range scan.Files {
		if ctx.Err() != nil {
			break
		}
		// The listing can name a file twice if it changed mid-read.
		if o.snapshot.Contains(file.Name) {
			continue
		}
		if _, err := o.sender.send(ctx, report.ID, o.snapshot, file); err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, ErrEmptyFile) {
				report.Empty++
				continue
			}
			report.Failed++
			report.Errors = append(report.Errors, err)
			log.Error("Upload failed",
				slog.String("file", file.Name),
				slog.Int64("size", file.Size),
				slog.String("error", err.Error()))
			if errors.Is(err, zenfolio.ErrNotAuthenticated) {
				report.AuthExpired = true
				log.Warn("Session rejected, abandoning batch")
				break
			}
			continue
		}
		report.Uploaded++
	}

	attrs := []any{
		slog.Int("candidates", report.Candidates),
		slog.Int("uploaded", report.Uploaded),
		slog.Int("failed", report.Failed),
		slog.Int("locked", report.Locked),
		slog.Int("empty", report.Empty),
		slog.Duration("elapsed", time.Since(started)),
	}
	if report.Candidates > report.Empty || len(report.Errors) > 0 {
		log.Info("Cycle finished", attrs...)
	} else {
		log.Debug("Cycle finished", attrs...)
	}
	return report
}

func (o *Orchestrator) login(ctx context.Context) error {
	return loginWithBackoff(ctx, o.sender.client, o.opts.Login, o.opts.Password, o.opts.Backoff, o.sleep)
}

// loadGallery loads the target gallery with its photos, retrying per the
// login backoff and logging in again if the session is rejected.
func (o *Orchestrator) loadGallery(ctx context.Context) (*zenfolio.PhotoSet, error) {
	for attempt := 1; ; attempt++ {
		set, err := o.sender.client.LoadGallery(ctx, o.opts.GalleryID, zenfolio.Level1, true)
		if err == nil {
			return set, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("Failed to load gallery",
			slog.Int64("gallery_id", o.opts.GalleryID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if o.opts.Backoff.Exhausted(attempt) {
			return nil, fmt.Errorf("failed to load gallery %d: %w", o.opts.GalleryID, err)
		}
		if err := o.sleep(ctx, o.opts.Backoff.Delay(attempt)); err != nil {
			return nil, err
		}
		if errors.Is(err, zenfolio.ErrNotAuthenticated) {
			if err := o.login(ctx); err != nil {
				return nil, err
			}
		}
	}
}

// idle waits for the poll interval, an early wake, or cancellation.
func (o *Orchestrator) idle(ctx context.Context) error {
	t := time.NewTimer(o.opts.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	case <-o.wake:
		logger.Debug("Folder changed, scanning early", slog.String("dir", o.dir))
	}
	return nil
}

// galleryDirName turns a gallery title into a single path element.
func galleryDirName(set *zenfolio.PhotoSet) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, strings.TrimSpace(set.Title))
	if name == "" || name == "." || name == ".." {
		return strconv.FormatInt(set.Id, 10)
	}
	return name
}
