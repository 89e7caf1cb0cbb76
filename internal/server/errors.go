// Package server provides the HTTP API and WebSocket endpoint for dealbrief.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrInputTooLarge indicates the submitted memo exceeds the size cap.
// Rejected before hashing, before any record is created.
type ErrInputTooLarge struct {
	Size  int
	Limit int
}

func (e *ErrInputTooLarge) Error() string {
	return fmt.Sprintf("input too large: %d bytes exceeds the %dKB limit", e.Size, e.Limit/1024)
}

// ErrDuplicateDeal indicates a deal with the same content hash already
// exists. It carries the existing deal's id.
type ErrDuplicateDeal struct {
	ExistingID uuid.UUID
}

func (e *ErrDuplicateDeal) Error() string {
	return fmt.Sprintf("duplicate deal detected: %s", e.ExistingID)
}

// ErrDealNotFound indicates the deal id is unknown.
type ErrDealNotFound struct {
	DealID uuid.UUID
}

func (e *ErrDealNotFound) Error() string {
	return fmt.Sprintf("deal not found: %s", e.DealID)
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ErrUpstreamFetch indicates a memo-by-URL fetch failed.
type ErrUpstreamFetch struct {
	Cause error
}

func (e *ErrUpstreamFetch) Error() string {
	return fmt.Sprintf("failed to fetch memo: %v", e.Cause)
}

func (e *ErrUpstreamFetch) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case *ErrDuplicateDeal:
		return http.StatusConflict
	case *ErrDealNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrUpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
