package repository

import "errors"

// Domain-level storage errors. Infrastructure implementations map driver
// errors onto these so services never import the driver.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)
