package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/manifoldco/promptui"
)

var ErrNoGalleries = errors.New("account has no galleries")

// GalleryLister lists the photo sets of an account.
type GalleryLister interface {
	ListGalleries(ctx context.Context, login string) ([]zenfolio.PhotoSet, error)
}

// Galleries returns the account's galleries, leaving out collections, which
// cannot receive uploads.
func Galleries(ctx context.Context, lister GalleryLister, login string) ([]zenfolio.PhotoSet, error) {
	sets, err := lister.ListGalleries(ctx, login)
	if err != nil {
		return nil, err
	}
	var galleries []zenfolio.PhotoSet
	for _, s := range sets {
		if s.Type == "" || s.Type == "Gallery" {
			galleries = append(galleries, s)
		}
	}
	return galleries, nil
}

// WriteGalleries prints one gallery per line: ID, title and photo count,
// separated by tabs.
func WriteGalleries(w io.Writer, galleries []zenfolio.PhotoSet) error {
	for _, g := range galleries {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\n", g.Id, g.Title, g.PhotoCount); err != nil {
			return err
		}
	}
	return nil
}

// selectGallery asks the operator to choose one of galleries and returns its index.
var selectGallery = func(galleries []zenfolio.PhotoSet) (int, error) {
	prompt := promptui.Select{
		Label: "Upload to gallery",
		Items: galleries,
		Size:  12,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "▸ {{ .Title | cyan }} ({{ .PhotoCount }})",
			Inactive: "  {{ .Title }} ({{ .PhotoCount }})",
			Selected: "Gallery: {{ .Title | green }}",
			Details:  "ID {{ .Id }}",
		},
		Searcher: func(input string, index int) bool {
			title := strings.ToLower(galleries[index].Title)
			return strings.Contains(title, strings.ToLower(strings.TrimSpace(input)))
		},
	}
	i, _, err := prompt.Run()
	return i, err
}

// PickGallery lets the operator choose the target gallery interactively.
func PickGallery(ctx context.Context, lister GalleryLister, login string) (int64, error) {
	galleries, err := Galleries(ctx, lister, login)
	if err != nil {
		return 0, fmt.Errorf("failed to list galleries: %w", err)
	}
	if len(galleries) == 0 {
		return 0, ErrNoGalleries
	}
	i, err := selectGallery(galleries)
	if err != nil {
		return 0, fmt.Errorf("gallery selection cancelled: %w", err)
	}
	return galleries[i].Id, nil
}
