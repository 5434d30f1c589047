package services

import "errors"

var (
	ErrServerExists       = errors.New("server with this type and url already exists")
	ErrConnectionExists   = errors.New("connection to this server already exists for owner")
	ErrServerNotFound     = errors.New("server not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNoCredentials      = errors.New("connection has no credentials")
	ErrForbidden          = errors.New("only the owner or an administrator may do this")
)
