package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// requireHTTPError asserts err is an *errs.HTTPError with the status and
// message.
func requireHTTPError(t *testing.T, err error, status int, message string) *errs.HTTPError {
	t.Helper()
	httpErr, ok := errs.As(err)
	require.True(t, ok, "expected *errs.HTTPError, got %v", err)
	require.Equal(t, status, httpErr.Status)
	require.Equal(t, message, httpErr.Message)
	return httpErr
}

func requireValidation(t *testing.T, err error, field, message string) {
	t.Helper()
	httpErr, ok := errs.As(err)
	require.True(t, ok, "expected *errs.HTTPError, got %v", err)
	require.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	require.Contains(t, httpErr.Errors[field], message)
}

type scheduledCall struct {
	postID int64
	at     time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
	err   error
}

func (f *fakeScheduler) SchedulePost(_ context.Context, postID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scheduledCall{postID: postID, at: at})
	return nil
}
