package auth

import (
	"errors"
	"fmt"
)

// Provider error codes, in the style of hosted identity providers.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeNotAdmin          = "auth/not-admin"
	CodeWeakPassword      = "auth/weak-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidCredential = "auth/invalid-credential"
)

var ErrUserNotFound = errors.New("user not found")

// Error is a sign-in or sign-up rejection carrying a provider code.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

var messages = map[string]string{
	CodeInvalidEmail:      "Enter a valid email address",
	CodeNotAdmin:          "Only admin emails allowed",
	CodeWeakPassword:      "Password is too weak",
	CodeEmailInUse:        "An admin account with this email already exists",
	CodeInvalidCredential: "Invalid email or password",
}

// Message maps err to the text shown to the visitor.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Detail != "" {
			return ae.Detail
		}
		if msg, ok := messages[ae.Code]; ok {
			return msg
		}
	}
	return "Authentication failed, please try again"
}
