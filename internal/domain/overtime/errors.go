package overtime

import "errors"

var (
	ErrAuthorizationNotFound = errors.New("overwork authorization not found")
	ErrDuplicateAccrual      = errors.New("time bank entry with this idempotency key already exists")
	ErrStatusConflict        = errors.New("authorization is no longer in the expected status")
)
