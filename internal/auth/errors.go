package auth

import "errors"

var (
	// ErrEmailRequired is returned when a user is created without an email
	ErrEmailRequired = errors.New("users must have an email address")
	// ErrEmailTaken is returned when the normalised email already exists
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers unknown email, wrong password and inactive users alike
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash
	ErrPasswordTooLong = errors.New("password is longer than 72 bytes")
)
