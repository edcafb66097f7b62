package transfer

type AccountUpdate struct {
	Name *string `json:"name" validate:"omitempty,max=255"`
}

type TagCreation struct {
	Name     string  `json:"name" validate:"required,max=255"`
	HexColor *string `json:"hex_color" validate:"omitempty,hex_color"`
}

type TagUpdate struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	HexColor *string `json:"hex_color" validate:"omitempty,hex_color"`
}
