package domain

import "errors"

var (
	ErrMemberExists       = errors.New("member id already exists")
	ErrMemberNotFound     = errors.New("member not found")
	ErrInvalidCredentials = errors.New("invalid member id or password")
	ErrRecordNotFound     = errors.New("food record not found")
	ErrInvalidInput       = errors.New("invalid input")
)
