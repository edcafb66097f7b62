package transfer

type ContentBlock struct {
	Body  string  `json:"body"`
	Media []int64 `json:"media"`
}

type PostVersionInput struct {
	AccountID  *int64         `json:"account_id"`
	IsOriginal bool           `json:"is_original"`
	Content    []ContentBlock `json:"content" validate:"required,min=1"`
}

// PostInput is the body of both create and update.
type PostInput struct {
	Accounts []int64            `json:"accounts" validate:"omitempty,dive,gt=0"`
	Tags     []int64            `json:"tags" validate:"omitempty,dive,gt=0"`
	Date     string             `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     string             `json:"time" validate:"omitempty,datetime=15:04"`
	Versions []PostVersionInput `json:"versions" validate:"required,min=1,dive"`
}

type PostSchedule struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

type PostBulkDelete struct {
	Posts []string `json:"posts" validate:"required,min=1,dive,required"`
}

type PostListQuery struct {
	Status   string  `json:"status" validate:"omitempty,oneof=draft scheduled published failed"`
	Keyword  string  `json:"keyword"`
	Accounts []int64 `json:"accounts"`
	Tags     []int64 `json:"tags"`
}
