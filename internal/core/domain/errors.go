package domain

import "errors"

// Credential and directory errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredential  = errors.New("invalid phone number or PIN")
	ErrMemberNotFound     = errors.New("phone number not found")
	ErrNeedsSetup         = errors.New("PIN not set up")
	ErrTransport          = errors.New("service unavailable, please try again")
	ErrPinRejected        = errors.New("PIN update rejected")
	ErrProfileUnavailable = errors.New("PIN updated, but the profile could not be loaded; please log in")
)

// Orchestration errors.
var (
	ErrOperationInProgress = errors.New("another operation is already in progress for this phone")
	ErrOperationCancelled  = errors.New("operation cancelled")
	ErrInvalidTransition   = errors.New("invalid portal transition")
	ErrNoActiveMember      = errors.New("no member is signed in")
)

// Pause errors.
var (
	ErrPauseRestricted  = errors.New("pause requests are closed within 7 days of expiration")
	ErrPauseUnavailable = errors.New("pause requests are not configured")
)
