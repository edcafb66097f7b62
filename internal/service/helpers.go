package service

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mixpost-api/internal/errs"
)

const scheduleLayout = "2006-01-02 15:04"

// ref is a path reference to a record: either its numeric id or its uuid.
type ref struct {
	id   int64
	uuid string
}

// parseRef reports false when s is neither a positive integer nor a uuid.
func parseRef(s string) (ref, bool) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ref{id: id}, id > 0
	}
	if u, err := uuid.Parse(s); err == nil {
		return ref{uuid: u.String()}, true
	}
	return ref{}, false
}

// validUUIDs drops entries that would make a uuid[] cast fail.
func validUUIDs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if u, err := uuid.Parse(v); err == nil {
			out = append(out, u.String())
		}
	}
	return out
}

// toUTC interprets a local date and clock time in loc. Both parts are
// required; it returns nil when either is empty.
func toUTC(date, clock string, loc *time.Location) (*time.Time, error) {
	if date == "" || clock == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(scheduleLayout, date+" "+clock, loc)
	if err != nil {
		return nil, errs.NewValidationError("date", "The date is not a valid date.")
	}
	utc := t.UTC()
	return &utc, nil
}

func missingIDs(want, found []int64) bool {
	seen := make(map[int64]struct{}, len(found))
	for _, id := range found {
		seen[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
