// Package types provides type definitions for structured data used throughout the dealbrief system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DealStatus represents the pipeline state of a deal.
type DealStatus string

// Pipeline states. Transitions move forward only:
// pending → extracting → validating → completed | failed.
const (
	StatusPending    DealStatus = "pending"
	StatusExtracting DealStatus = "extracting"
	StatusValidating DealStatus = "validating"
	StatusCompleted  DealStatus = "completed"
	StatusFailed     DealStatus = "failed"
)

// IsTerminal reports whether the status is a terminal pipeline state.
func (s DealStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Deal is the persistent record tracking one submission through the pipeline.
// RawText and ContentHash never change after creation. The extracted fields
// are set together, and only when Status is completed.
type Deal struct {
	ID          uuid.UUID  `json:"id"`
	ContentHash string     `json:"content_hash"`
	RawText     string     `json:"raw_text"`
	Status      DealStatus `json:"status"`
	LastError   *string    `json:"last_error,omitempty"`

	CompanyName     *string           `json:"company_name,omitempty"`
	Founders        []string          `json:"founders,omitempty"`
	Sector          *string           `json:"sector,omitempty"`
	Geography       *string           `json:"geography,omitempty"`
	Stage           *string           `json:"stage,omitempty"`
	RoundSize       *string           `json:"round_size,omitempty"`
	Metrics         map[string]string `json:"metrics,omitempty"`
	InvestmentBrief []string          `json:"investment_brief,omitempty"`
	Tags            []string          `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExtractedDeal is the validated output schema produced by a successful
// extraction. It is merged into a Deal record, never stored on its own.
type ExtractedDeal struct {
	CompanyName     string            `json:"company_name" validate:"required,min=1"`
	Founders        []string          `json:"founders"`
	Sector          string            `json:"sector"`
	Geography       string            `json:"geography"`
	Stage           string            `json:"stage"`
	RoundSize       string            `json:"round_size"`
	Metrics         map[string]string `json:"metrics"`
	InvestmentBrief []string          `json:"investment_brief" validate:"required,min=1,max=15"`
	Tags            []string          `json:"tags"`
}

// Validate validates the ExtractedDeal field constraints using the validator.
func (e *ExtractedDeal) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}

// CreateDealRequest represents the request body for submitting raw memo text.
type CreateDealRequest struct {
	RawText string `json:"raw_text" validate:"required,min=1"`
}

// Validate validates the CreateDealRequest using the validator.
func (r *CreateDealRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CreateDealFromURLRequest represents the request body for submitting a memo by URL.
type CreateDealFromURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Validate validates the CreateDealFromURLRequest using the validator.
func (r *CreateDealFromURLRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// DealListResponse represents the response for listing deals.
type DealListResponse struct {
	Deals []Deal `json:"deals"`
}
