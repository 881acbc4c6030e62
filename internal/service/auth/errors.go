package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid phone or PIN")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpToken           = errors.New("expired token")
	ErrPhoneTaken         = errors.New("account with this phone already exists")
	ErrActionForbidden    = errors.New("action forbidden")
)
