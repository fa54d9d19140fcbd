package agent

import "errors"

var (
	// ErrMissingToken indicates no credential was supplied.
	ErrMissingToken = errors.New("authentication token is required")
	// ErrInvalidToken indicates no agent holds the supplied credential.
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrMissingCredentials indicates phone or PIN was not supplied at login.
	ErrMissingCredentials = errors.New("mobile phone and PIN are required")
	// ErrAgentNotFound indicates no agent matches the mobile phone.
	ErrAgentNotFound = errors.New("agent not found with the provided mobile phone number")
	// ErrInvalidPIN indicates the PIN does not match.
	ErrInvalidPIN = errors.New("invalid PIN")
)
