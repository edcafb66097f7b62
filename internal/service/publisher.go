package service

import (
	"context"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/sirupsen/logrus"
)

// Publisher delivers one post version to one social account and returns
// the provider's id for the created post.
type Publisher interface {
	Publish(ctx context.Context, account *models.Account, version *models.PostVersion) (string, error)
}

// LogPublisher records publish attempts without contacting a provider.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log.WithField("component", "publisher")}
}

func (p *LogPublisher) Publish(_ context.Context, account *models.Account, version *models.PostVersion) (string, error) {
	blocks := 0
	if version != nil {
		blocks = len(version.Content)
	}

	p.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"provider":   account.Provider,
		"blocks":     blocks,
	}).Info("Publishing post version")
	return "", nil
}
