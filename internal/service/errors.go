package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel results. ErrNotFound is a normal outcome, not a failure:
// callers branch on it to distinguish "no such row" from a transport error.
var (
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthReason identifies why an auth operation was rejected. Each reason
// maps to a distinct user-facing message at the API layer.
type AuthReason string

const (
	AuthReasonInvalidCredentials AuthReason = "invalid-credentials"
	AuthReasonUserNotFound       AuthReason = "user-not-found"
	AuthReasonEmailInUse         AuthReason = "email-already-in-use"
	AuthReasonWeakPassword       AuthReason = "weak-password"
	AuthReasonRateLimited        AuthReason = "rate-limited"
)

type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return "auth: " + string(e.Reason)
}

// ValidationError reports which fields failed the pre-write shape checks.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// GenerationParseError means the inference response was not
// shape-conformant: no JSON object found, or a required field missing
// after coercion.
type GenerationParseError struct {
	Reason string
}

func (e *GenerationParseError) Error() string {
	return "generation parse: " + e.Reason
}

// InferenceError wraps a transport or endpoint failure talking to the
// inference API. Answer quality is never validated.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// CheckoutError wraps a billing backend failure.
type CheckoutError struct {
	Err error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout: %v", e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }
