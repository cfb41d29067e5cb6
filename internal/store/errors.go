package store

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrNoOpenSale          = errors.New("no open sale")
	ErrConstraintViolation = errors.New("database constraint violation")
)
