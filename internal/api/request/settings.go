package request

// UpdateSetting holds the request body for writing a settings value.
type UpdateSetting struct {
	Value string `json:"value" validate:"required,max=255"`
}
