//go:generate go run github.com/golang/mock/mockgen -source=${GOFILE} -destination=zz_generated_mocks_test.go -package=lib GalleryClient,Uploader

package lib

import (
	"context"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
)

// GalleryClient defines the interface for Zenfolio operations needed by the
// zenwatch commands.
type GalleryClient interface {
	Login(ctx context.Context, login, password string) (bool, error)
	LoadGallery(ctx context.Context, id int64, level zenfolio.InformationLevel, includePhotos bool) (*zenfolio.PhotoSet, error)
	AddPhotoToCollection(ctx context.Context, collectionID int64, photoID string) error
	Token(ctx context.Context) (string, error)
}

// Uploader sends one file's bytes to a gallery upload URL and returns the
// new photo's ID.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
}
