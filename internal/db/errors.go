package db

import "errors"

// Domain-level database error sentinels.
var (
	// Edit errors
	ErrEditNotFound      = errors.New("edit not found or already reviewed")
	ErrNoChanges         = errors.New("no changes submitted")
	ErrUnknownEntityType = errors.New("unknown entity type")

	// Entity errors
	ErrEntityNotFound = errors.New("entity not found")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)
