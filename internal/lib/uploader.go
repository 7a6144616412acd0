package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/cespare/xxhash/v2"
)

// DefaultChunkSize is how many bytes are read and sent at a time.
const DefaultChunkSize = 1024

var (
	// ErrFileChanged means the file's size no longer matched what was scanned.
	ErrFileChanged = errors.New("file changed during upload")
	// ErrEmptyFile is returned for zero-byte files, which are usually still
	// being created.
	ErrEmptyFile = errors.New("file is empty")
)

// UploadRequest describes one upload.
type UploadRequest struct {
	Path string
	// Size is sent as Content-Length; exactly this many bytes are streamed.
	Size        int64
	URL         string
	ContentType string
	Token       string
	// Progress, if set, receives a copy of every chunk sent.
	Progress io.Writer
}

// UploadResult describes a completed upload.
type UploadResult struct {
	PhotoID   string
	BytesSent int64
	Chunks    int
	// Checksum is the xxhash64 of the bytes sent.
	Checksum uint64
}

// ChecksumHex formats the checksum for storage.
func (r UploadResult) ChecksumHex() string {
	if r.BytesSent == 0 {
		return ""
	}
	return fmt.Sprintf("%016x", r.Checksum)
}

// BuildUploadURL appends the file name to a gallery's upload URL as the
// filename query parameter.
func BuildUploadURL(base, fileName string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid upload url %q: %w", base, err)
	}
	q := u.Query()
	q.Set("filename", fileName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StreamingUploader POSTs a file's bytes in fixed-size chunks. It does not
// retry; a failed file is picked up again by the next scan.
type StreamingUploader struct {
	client    *http.Client
	chunkSize int
	userAgent string
}

func NewStreamingUploader(client *http.Client, chunkSize int, userAgent string) *StreamingUploader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &StreamingUploader{client: client, chunkSize: chunkSize, userAgent: userAgent}
}

type copyResult struct {
	n      int64
	chunks int
	err    error
}

// Upload streams req.Path to req.URL and returns the response body as the
// photo ID. The file and the request body are released on every return path.
func (u *StreamingUploader) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if req.Size <= 0 {
		return UploadResult{}, fmt.Errorf("%s: %w", req.Path, ErrEmptyFile)
	}
	f, err := os.Open(req.Path)
	if err != nil {
		return UploadResult{}, err
	}

	hash := xxhash.New()
	sinks := []io.Writer{hash}
	if req.Progress != nil {
		sinks = append(sinks, req.Progress)
	}

	pr, pw := io.Pipe()
	done := make(chan copyResult, 1)
	go func() {
		defer f.Close()
		res := copyChunks(io.MultiWriter(append([]io.Writer{pw}, sinks...)...), f, req.Size, u.chunkSize)
		pw.CloseWithError(res.err)
		done <- res
	}()

	// finish stops the writer if it is still running and waits for it, so the
	// file is closed before Upload returns.
	var (
		finishOnce sync.Once
		copied     copyResult
	)
	finish := func() copyResult {
		finishOnce.Do(func() {
			pr.Close()
			copied = <-done
		})
		return copied
	}
	defer finish()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, pr)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.ContentLength = req.Size
	httpReq.Header.Set(zenfolio.TokenHeader, req.Token)
	httpReq.Header.Set("Content-Type", req.ContentType)
	if u.userAgent != "" {
		httpReq.Header.Set("User-Agent", u.userAgent)
	}

	resp, err := u.client.Do(httpReq)
	if err != nil {
		if res := finish(); errors.Is(res.err, ErrFileChanged) {
			return UploadResult{}, fmt.Errorf("upload of %s failed: %w", req.Path, res.err)
		}
		return UploadResult{}, fmt.Errorf("upload of %s failed: %w", req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to read upload response for %s: %w", req.Path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return UploadResult{}, fmt.Errorf("upload of %s rejected with %s: %w", req.Path, resp.Status, zenfolio.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return UploadResult{}, fmt.Errorf("upload of %s failed with %s: %s", req.Path, resp.Status, strings.TrimSpace(string(body)))
	}

	res := finish()
	if res.err != nil {
		return UploadResult{}, fmt.Errorf("upload of %s failed: %w", req.Path, res.err)
	}
	photoID := strings.TrimSpace(string(body))
	if photoID == "" {
		return UploadResult{}, fmt.Errorf("upload of %s returned an empty photo id", req.Path)
	}
	return UploadResult{
		PhotoID:   photoID,
		BytesSent: res.n,
		Chunks:    res.chunks,
		Checksum:  hash.Sum64(),
	}, nil
}

// copyChunks writes exactly size bytes of src to dst, one chunk per Write.
func copyChunks(dst io.Writer, src io.Reader, size int64, chunkSize int) copyResult {
	var res copyResult
	buf := make([]byte, chunkSize)
	for res.n < size {
		want := int64(chunkSize)
		if remain := size - res.n; remain < want {
			want = remain
		}
		n, err := io.ReadFull(src, buf[:want])
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				res.err = werr
				return res
			}
			res.n += int64(n)
			res.chunks++
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			res.err = fmt.Errorf("%w: read %d of %d bytes", ErrFileChanged, res.n, size)
			return res
		}
		if err != nil {
			res.err = err
			return res
		}
	}
	return res
}
