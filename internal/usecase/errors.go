package usecase

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("resource not found")
	ErrAuthentication     = errors.New("provider authentication failed")
	ErrTransport          = errors.New("provider transport failure")
	ErrProvider           = errors.New("provider returned an error")
	ErrMalformedTelemetry = errors.New("malformed telemetry artifact")
	ErrStorage            = errors.New("storage failure")
	ErrRunCancelled       = errors.New("scouting run cancelled")
)
