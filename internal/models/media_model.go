package models

import "time"

const (
	DiskLocal = "local"
	DiskS3    = "s3"
)

type Media struct {
	ID          int64             `db:"id" json:"id"`
	UUID        string            `db:"uuid" json:"uuid"`
	Name        string            `db:"name" json:"name"`
	MimeType    string            `db:"mime_type" json:"mime_type"`
	Size        int64             `db:"size" json:"size"`
	SizeTotal   int64             `db:"size_total" json:"size_total"`
	Disk        string            `db:"disk" json:"disk"`
	Path        string            `db:"path" json:"path"`
	URL         string            `db:"-" json:"url"`
	Conversions []MediaConversion `db:"conversions" json:"conversions"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"-"`
}

type MediaConversion struct {
	Engine string `json:"engine"`
	Name   string `json:"name"`
	Disk   string `json:"disk"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
}

// Paths lists the stored file and every conversion file.
func (m *Media) Paths() []string {
	paths := []string{m.Path}
	for _, c := range m.Conversions {
		paths = append(paths, c.Path)
	}
	return paths
}
