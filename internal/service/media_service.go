package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/sirupsen/logrus"
)

const msgMediaNotFound = "Media not found"

type MediaService interface {
	List(ctx context.Context, search string, page repository.Page) ([]*models.Media, int, error)
	Get(ctx context.Context, ref string) (*models.Media, error)
	Upload(ctx context.Context, file *multipart.FileHeader) (*models.Media, error)
	Download(ctx context.Context, url string) (*models.Media, error)
	Delete(ctx context.Context, ref string) error
	BulkDelete(ctx context.Context, ids []int64) (int, error)
}

type mediaService struct {
	log        logrus.FieldLogger
	media      repository.MediaRepository
	uploader   MediaUploader
	downloader *Downloader
	disks      map[string]Storage
	metrics    *metrics.Metrics
}

// NewMediaService serves files from every disk in disks; uploads go to
// whichever disk the uploader writes to.
func NewMediaService(
	log logrus.FieldLogger,
	media repository.MediaRepository,
	uploader MediaUploader,
	downloader *Downloader,
	disks []Storage,
	m *metrics.Metrics) MediaService {
	byName := make(map[string]Storage, len(disks))
	for _, d := range disks {
		byName[d.Disk()] = d
	}

	return &mediaService{
		log:        log.WithField("component", "media"),
		media:      media,
		uploader:   uploader,
		downloader: downloader,
		disks:      byName,
		metrics:    m,
	}
}

func (s *mediaService) withURL(items ...*models.Media) {
	for _, m := range items {
		if disk, ok := s.disks[m.Disk]; ok {
			m.URL = disk.URL(m.Path)
		}
	}
}

func (s *mediaService) List(ctx context.Context, search string, page repository.Page) ([]*models.Media, int, error) {
	items, total, err := s.media.List(ctx, search, page)
	if err != nil {
		return nil, 0, fmt.Errorf("listing media: %w", err)
	}
	s.withURL(items...)
	return items, total, nil
}

func (s *mediaService) Get(ctx context.Context, raw string) (*models.Media, error) {
	r, ok := parseRef(raw)
	if !ok {
		return nil, errs.NewNotFoundError(msgMediaNotFound)
	}

	var m *models.Media
	var err error
	if r.uuid != "" {
		m, err = s.media.GetByUUID(ctx, r.uuid)
	} else {
		m, err = s.media.GetByID(ctx, r.id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting media: %w", err)
	}
	if m == nil {
		return nil, errs.NewNotFoundError(msgMediaNotFound)
	}

	s.withURL(m)
	return m, nil
}

func (s *mediaService) Upload(ctx context.Context, fh *multipart.FileHeader) (*models.Media, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer file.Close()

	m, err := s.uploader.Upload(ctx, &UploadFile{Name: fh.Filename, Size: fh.Size, Body: file})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMediaStored("upload", m.Disk)
	s.log.WithFields(logrus.Fields{"media": m.UUID, "path": m.Path}).Info("Media uploaded")
	return m, nil
}

func (s *mediaService) Download(ctx context.Context, url string) (*models.Media, error) {
	dl, err := s.downloader.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, errRemoteStatus) {
			return nil, errs.NewConflictError("Failed to download file from URL")
		}
		if httpErr, ok := errs.As(err); ok {
			return nil, httpErr
		}
		return nil, errs.NewConflictError("Failed to download media: " + err.Error())
	}
	defer func() {
		if err := dl.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to remove temp file")
		}
	}()

	m, err := s.uploader.Upload(ctx, dl.UploadFile)
	if err != nil {
		if httpErr, ok := errs.As(err); ok {
			return nil, errs.NewConflictError("Failed to download media: " + httpErr.Message)
		}
		return nil, errs.NewConflictError("Failed to download media: " + err.Error())
	}

	s.metrics.RecordMediaStored("download", m.Disk)
	s.log.WithFields(logrus.Fields{"media": m.UUID, "url": url}).Info("Media downloaded")
	return m, nil
}

func (s *mediaService) Delete(ctx context.Context, ref string) error {
	m, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	return s.remove(ctx, m)
}

// remove deletes the stored files, then the record.
func (s *mediaService) remove(ctx context.Context, m *models.Media) error {
	disk, ok := s.disks[m.Disk]
	if !ok {
		return fmt.Errorf("media %d is on unknown disk %q", m.ID, m.Disk)
	}

	for _, p := range m.Paths() {
		if err := disk.Delete(ctx, p); err != nil {
			return fmt.Errorf("deleting media file: %w", err)
		}
	}

	if err := s.media.Remove(ctx, m.ID); err != nil {
		return fmt.Errorf("deleting media: %w", err)
	}

	s.log.WithField("media", m.UUID).Info("Media deleted")
	return nil
}

func (s *mediaService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	items, err := s.media.ListByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return 0, fmt.Errorf("listing media: %w", err)
	}

	deleted := 0
	for _, m := range items {
		if err := s.remove(ctx, m); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
