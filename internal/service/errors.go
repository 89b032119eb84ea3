package service

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer id or phone number already exists")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvoiceExists    = errors.New("invoice id already exists")
	ErrReferrerNotFound = errors.New("referrer not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidRange     = errors.New("invalid or missing date range")
	ErrAlreadyClaimed   = errors.New("points already claimed")
	ErrNoReferral       = errors.New("invoice has no referral points")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserDisabled        = errors.New("user is disabled")
	ErrUserExists          = errors.New("username already taken")
	ErrUserNotFound        = errors.New("user not found")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid or revoked")
)
