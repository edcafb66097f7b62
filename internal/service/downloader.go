package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/errs"
)

// errRemoteStatus marks a non-2xx answer from the remote server.
var errRemoteStatus = errors.New("remote server returned an error status")

var extensionsByMime = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/x-msvideo": "avi",
}

// Downloader fetches remote files into temporary files. Bodies larger
// than the upload limit are cut off before they reach the disk.
type Downloader struct {
	client   *http.Client
	maxBytes int64
	tmpDir   string
	now      func() time.Time
}

// NewDownloader writes to tmpDir, or the system temp dir when empty.
func NewDownloader(timeout time.Duration, maxFileSizeKB int64, tmpDir string) *Downloader {
	return &Downloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxFileSizeKB * 1024,
		tmpDir:   tmpDir,
		now:      time.Now,
	}
}

func (d *Downloader) tooLarge() error {
	return errs.NewValidationError("file",
		fmt.Sprintf("The file must not be greater than %d kilobytes.", d.maxBytes/1024))
}

// Download is a fetched file backed by a temporary file on disk.
type Download struct {
	*UploadFile
	file *os.File
}

// Close removes the temporary file.
func (d *Download) Close() error {
	name := d.file.Name()
	cerr := d.file.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return cerr
}

func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", errRemoteStatus, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, d.tooLarge()
	}

	tmp, err := os.CreateTemp(d.tmpDir, "mixpost-download-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	dl := &Download{file: tmp}

	size, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		dl.Close()
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if size > d.maxBytes {
		dl.Close()
		return nil, d.tooLarge()
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		dl.Close()
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}

	dl.UploadFile = &UploadFile{
		Name: d.fileName(rawURL, resp.Header),
		Size: size,
		Body: tmp,
	}
	return dl, nil
}

// fileName prefers the URL path, then Content-Disposition, then a
// timestamped fallback. A name without extension gets one from the
// Content-Type.
func (d *Downloader) fileName(rawURL string, header http.Header) string {
	var name string
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}

	if name == "" {
		if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
			name = path.Base(params["filename"])
			if name == "." || name == "/" {
				name = ""
			}
		}
	}

	if name == "" {
		name = "downloaded_" + strconv.FormatInt(d.now().Unix(), 10)
	}

	if !strings.Contains(name, ".") {
		name += "." + extensionFromMime(header.Get("Content-Type"))
	}
	return name
}

func extensionFromMime(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		if ext, ok := extensionsByMime[mediaType]; ok {
			return ext
		}
	}
	return "jpg"
}
