package organization

import "errors"

var (
	ErrSettingsNotFound = errors.New("organization settings not found")
	ErrOrgIDRequired    = errors.New("organization ID is required")
)
