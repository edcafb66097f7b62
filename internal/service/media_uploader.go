package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	thumbConversion = "thumb"
	thumbEngine     = "ImageResize"
	sniffLength     = 262
)

// allowedExtensions lists accepted uploads by sniffed extension.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"mp4": true, "mov": true, "avi": true,
}

const allowedTypesMessage = "The file must be a file of type: jpg, jpeg, png, gif, webp, mp4, mov, avi."

type UploadFile struct {
	// Name is the client-side file name.
	Name string
	Size int64
	Body io.ReadSeeker
}

type MediaUploader interface {
	Upload(ctx context.Context, f *UploadFile) (*models.Media, error)
}

type mediaUploader struct {
	log        logrus.FieldLogger
	storage    Storage
	media      repository.MediaRepository
	maxBytes   int64
	thumbWidth int
	now        func() time.Time
}

func NewMediaUploader(log logrus.FieldLogger, storage Storage, media repository.MediaRepository, maxFileSizeKB int64, thumbWidth int) MediaUploader {
	return &mediaUploader{
		log:        log.WithField("component", "media_uploader"),
		storage:    storage,
		media:      media,
		maxBytes:   maxFileSizeKB * 1024,
		thumbWidth: thumbWidth,
		now:        time.Now,
	}
}

func (u *mediaUploader) Upload(ctx context.Context, f *UploadFile) (*models.Media, error) {
	if f.Size > u.maxBytes {
		return nil, errs.NewValidationError("file",
			fmt.Sprintf("The file must not be greater than %d kilobytes.", u.maxBytes/1024))
	}

	kind, err := sniff(f.Body)
	if err != nil {
		return nil, err
	}
	if kind == filetype.Unknown || !allowedExtensions[kind.Extension] {
		return nil, errs.NewValidationError("file", allowedTypesMessage)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating file name: %w", err)
	}
	dir := u.now().UTC().Format("2006/01")
	stored := path.Join(dir, id+"."+kind.Extension)

	size, err := u.storage.Put(ctx, stored, f.Body, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	m := &models.Media{
		UUID:        uuid.NewString(),
		Name:        f.Name,
		MimeType:    kind.MIME.Value,
		Size:        size,
		SizeTotal:   size,
		Disk:        u.storage.Disk(),
		Path:        stored,
		Conversions: []models.MediaConversion{},
	}

	if kind.MIME.Type == "image" {
		conversion, err := u.thumbnail(ctx, f.Body, path.Join(dir, id+"-"+thumbConversion), kind)
		if err != nil {
			u.log.WithError(err).WithField("path", stored).Warn("Skipping thumbnail")
		} else {
			m.Conversions = append(m.Conversions, *conversion)
			m.SizeTotal += conversion.Size
		}
	}

	if _, err := u.media.Create(ctx, m); err != nil {
		u.cleanup(ctx, m)
		return nil, fmt.Errorf("saving media: %w", err)
	}

	m.URL = u.storage.URL(m.Path)
	return m, nil
}

// cleanup removes files of a media item whose record could not be written.
func (u *mediaUploader) cleanup(ctx context.Context, m *models.Media) {
	for _, p := range m.Paths() {
		if err := u.storage.Delete(ctx, p); err != nil {
			u.log.WithError(err).WithField("path", p).Warn("Failed to remove orphaned file")
		}
	}
}

func sniff(body io.ReadSeeker) (types.Type, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return filetype.Unknown, fmt.Errorf("rewinding file: %w", err)
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return filetype.Unknown, fmt.Errorf("reading file: %w", err)
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return filetype.Unknown, fmt.Errorf("rewinding file: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil {
		return filetype.Unknown, nil
	}
	return kind, nil
}

// thumbnail scales the image down to the thumb width. Images already
// narrower keep their size.
func (u *mediaUploader) thumbnail(ctx context.Context, body io.ReadSeeker, base string, kind types.Type) (*models.MediaConversion, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding file: %w", err)
	}

	src, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	dst := resize(src, u.thumbWidth)

	var buf bytes.Buffer
	ext, mime := kind.Extension, kind.MIME.Value
	switch kind.Extension {
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		// webp has no encoder in x/image; its thumbnail is a jpeg.
		ext, mime = "jpg", "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	stored := base + "." + ext
	size, err := u.storage.Put(ctx, stored, bytes.NewReader(buf.Bytes()), mime)
	if err != nil {
		return nil, fmt.Errorf("storing thumbnail: %w", err)
	}

	return &models.MediaConversion{
		Engine: thumbEngine,
		Name:   thumbConversion,
		Disk:   u.storage.Disk(),
		Path:   stored,
		Size:   size,
	}, nil
}

func resize(src image.Image, width int) image.Image {
	b := src.Bounds()
	if width <= 0 || b.Dx() <= width {
		return src
	}

	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
