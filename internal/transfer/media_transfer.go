package transfer

type MediaDownload struct {
	URL string `json:"url" validate:"required,url"`
}

type MediaBulkDelete struct {
	Media []int64 `json:"media" validate:"required,min=1,dive,gt=0"`
}
