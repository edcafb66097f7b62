package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/sirupsen/logrus"
)

const msgTagNotFound = "Tag not found"

type TagService interface {
	List(ctx context.Context) ([]*models.Tag, error)
	Create(ctx context.Context, in *transfer.TagCreation) (*models.Tag, error)
	Update(ctx context.Context, id string, in *transfer.TagUpdate) (*models.Tag, error)
	Delete(ctx context.Context, id string) error
}

type tagService struct {
	log  logrus.FieldLogger
	tags repository.TagRepository
}

func NewTagService(log logrus.FieldLogger, tags repository.TagRepository) TagService {
	return &tagService{
		log:  log.WithField("component", "tags"),
		tags: tags,
	}
}

func duplicateName(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.NewValidationError("name", "The name has already been taken.")
	}
	return err
}

func (s *tagService) List(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

func (s *tagService) find(ctx context.Context, raw string) (*models.Tag, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errs.NewNotFoundError(msgTagNotFound)
	}

	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	if tag == nil {
		return nil, errs.NewNotFoundError(msgTagNotFound)
	}
	return tag, nil
}

func (s *tagService) Create(ctx context.Context, in *transfer.TagCreation) (*models.Tag, error) {
	tag := &models.Tag{Name: in.Name, HexColor: in.HexColor}
	if _, err := s.tags.Create(ctx, tag); err != nil {
		return nil, duplicateName(err)
	}

	s.log.WithField("tag", tag.Name).Info("Tag created")
	return tag, nil
}

func (s *tagService) Update(ctx context.Context, id string, in *transfer.TagUpdate) (*models.Tag, error) {
	tag, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		tag.Name = *in.Name
	}
	if in.HexColor != nil {
		tag.HexColor = in.HexColor
	}

	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, duplicateName(err)
	}
	return tag, nil
}

func (s *tagService) Delete(ctx context.Context, id string) error {
	tag, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.tags.Remove(ctx, tag.ID); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	s.log.WithField("tag", tag.Name).Info("Tag deleted")
	return nil
}
