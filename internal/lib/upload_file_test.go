package lib

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUploadArgs(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"a.JPG": "123", "b.tif": "1", "c.txt": "1"})

	file, contentType, err := CheckUploadArgs([]string{filepath.Join(dir, "a.JPG")}, "")
	require.NoError(t, err)
	assert.Equal(t, "a.JPG", file.Name)
	assert.Equal(t, int64(3), file.Size)
	assert.Equal(t, "image/jpeg", contentType)
	assert.True(t, filepath.IsAbs(file.Path))

	_, contentType, err = CheckUploadArgs([]string{filepath.Join(dir, "b.tif")}, "")
	require.NoError(t, err)
	assert.Equal(t, "image/tiff", contentType)

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two files", []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.tif")}},
		{"missing file", []string{filepath.Join(dir, "nope.jpg")}},
		{"directory", []string{dir}},
		{"unsupported type", []string{filepath.Join(dir, "c.txt")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CheckUploadArgs(tt.args, "")
			assert.Error(t, err)
		})
	}

	_, _, err = CheckUploadArgs([]string{filepath.Join(dir, "c.txt")}, "")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCheckUploadArgs_MatchesWatchDetection(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{
		"scan":    "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
		"raw.dat": "not an image",
	})

	// Extensionless images are sniffed, as the watch loop does.
	file, contentType, err := CheckUploadArgs([]string{filepath.Join(dir, "scan")}, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	watchType, err := contentTyper{}.typeFor(file.Path)
	require.NoError(t, err)
	assert.Equal(t, watchType, contentType)

	// A configured type wins over detection.
	_, contentType, err = CheckUploadArgs([]string{filepath.Join(dir, "raw.dat")}, "image/x-canon-cr2")
	require.NoError(t, err)
	assert.Equal(t, "image/x-canon-cr2", contentType)
}

func TestUploadFile_SendsCheckedContentType(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"scan": "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"})
	file, contentType, err := CheckUploadArgs([]string{filepath.Join(dir, "scan")}, "")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := NewMockGalleryClient(ctrl)
	uploader := NewMockUploader(ctrl)
	client.EXPECT().Login(gomock.Any(), "me", "pw").Return(true, nil)
	client.EXPECT().LoadGallery(gomock.Any(), int64(7), zenfolio.Level1, true).Return(testGallery(), nil)
	client.EXPECT().Token(gomock.Any()).Return("tok", nil)
	uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req UploadRequest) (UploadResult, error) {
		assert.Equal(t, "image/png", req.ContentType)
		return UploadResult{PhotoID: "80", BytesSent: req.Size}, nil
	})

	opts := uploadFileOptions()
	opts.ContentType = contentType
	_, err = UploadFile(context.Background(), client, uploader, nil, file, opts)
	require.NoError(t, err)
}

func uploadFileOptions() UploadFileOptions {
	return UploadFileOptions{
		Login:     "me",
		Password:  "pw",
		GalleryID: 7,
		Backoff:   Backoff{Initial: time.Millisecond, Max: time.Millisecond},
	}
}

func TestUploadFile(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"new.png": "12345"})
	file, _, err := CheckUploadArgs([]string{filepath.Join(dir, "new.png")}, "")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := NewMockGalleryClient(ctrl)
	uploader := NewMockUploader(ctrl)
	recorder := &fakeRecorder{}

	opts := uploadFileOptions()
	opts.CollectionID = 3
	client.EXPECT().Login(gomock.Any(), "me", "pw").Return(true, nil)
	client.EXPECT().LoadGallery(gomock.Any(), int64(7), zenfolio.Level1, true).Return(testGallery("old.jpg"), nil)
	client.EXPECT().Token(gomock.Any()).Return("tok", nil)
	uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req UploadRequest) (UploadResult, error) {
		assert.Equal(t, file.Path, req.Path)
		assert.Equal(t, int64(5), req.Size)
		assert.Equal(t, "image/png", req.ContentType)
		assert.Equal(t, testUploadURL+"?filename=new.png", req.URL)
		return UploadResult{PhotoID: "77", BytesSent: 5, Chunks: 1}, nil
	})
	client.EXPECT().AddPhotoToCollection(gomock.Any(), int64(3), "77").Return(nil)

	res, err := UploadFile(context.Background(), client, uploader, recorder, file, opts)
	require.NoError(t, err)
	assert.Equal(t, "77", res.PhotoID)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "new.png", recorder.entries[0].FileName)
}

func TestUploadFile_AlreadyInGallery(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"old.jpg": "1"})
	file, _, err := CheckUploadArgs([]string{filepath.Join(dir, "old.jpg")}, "")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := NewMockGalleryClient(ctrl)
	client.EXPECT().Login(gomock.Any(), "me", "pw").Return(true, nil)
	client.EXPECT().LoadGallery(gomock.Any(), int64(7), zenfolio.Level1, true).Return(testGallery("old.jpg"), nil)

	_, err = UploadFile(context.Background(), client, NewMockUploader(ctrl), nil, file, uploadFileOptions())
	assert.ErrorIs(t, err, ErrAlreadyUploaded)
}

func TestUploadFile_Force(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"old.jpg": "1"})
	file, _, err := CheckUploadArgs([]string{filepath.Join(dir, "old.jpg")}, "")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := NewMockGalleryClient(ctrl)
	uploader := NewMockUploader(ctrl)
	client.EXPECT().Login(gomock.Any(), "me", "pw").Return(true, nil)
	client.EXPECT().LoadGallery(gomock.Any(), int64(7), zenfolio.Level1, true).Return(testGallery("old.jpg"), nil)
	client.EXPECT().Token(gomock.Any()).Return("tok", nil)
	uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(UploadResult{PhotoID: "78"}, nil)

	opts := uploadFileOptions()
	opts.Force = true
	res, err := UploadFile(context.Background(), client, uploader, nil, file, opts)
	require.NoError(t, err)
	assert.Equal(t, "78", res.PhotoID)
}

func TestUploadFile_UploadError(t *testing.T) {
	dir := createTestFiles(t, t.TempDir(), map[string]string{"new.gif": "GIF89a"})
	file, _, err := CheckUploadArgs([]string{filepath.Join(dir, "new.gif")}, "")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := NewMockGalleryClient(ctrl)
	uploader := NewMockUploader(ctrl)
	client.EXPECT().Login(gomock.Any(), "me", "pw").Return(true, nil)
	client.EXPECT().LoadGallery(gomock.Any(), int64(7), zenfolio.Level1, true).Return(testGallery(), nil)
	client.EXPECT().Token(gomock.Any()).Return("tok", nil)
	uploadErr := errors.New("broken pipe")
	uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(UploadResult{}, uploadErr)

	_, err = UploadFile(context.Background(), client, uploader, nil, file, uploadFileOptions())
	assert.ErrorIs(t, err, uploadErr)

	// The file is left in place.
	_, err = os.Stat(file.Path)
	assert.NoError(t, err)
}
