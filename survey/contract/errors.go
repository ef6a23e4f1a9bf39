package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrStoreWrite      = errors.New("record store write failed")
)
