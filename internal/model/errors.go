package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Post/Comment related errors
	ErrPostNotFound = errors.New("post not found")

	// Downstream errors
	ErrMailDelivery = errors.New("mail delivery failed")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
