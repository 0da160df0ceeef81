// Package types provides the data model shared by the verification engine, its providers and its outer surfaces.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ContentType identifies how VerificationRequest.Content should be interpreted.
type ContentType string

const (
	// ContentTypeText means Content is the text to verify.
	ContentTypeText ContentType = "text"
	// ContentTypeURL means Content is a URL whose page should be extracted first.
	ContentTypeURL ContentType = "url"
)

// Region narrows evidence search toward a set of regional outlets.
type Region string

const (
	RegionGlobal  Region = "global"
	RegionNigeria Region = "nigeria"
)

// SourceType is the evidence category a caller may ask providers to prioritise.
type SourceType string

const (
	SourceTypeNews       SourceType = "news"
	SourceTypeGovernment SourceType = "government"
	SourceTypeAcademic   SourceType = "academic"
	SourceTypeMedical    SourceType = "medical"
)

// VerificationRequest is the immutable input to a verification run.
type VerificationRequest struct {
	Content     string       `json:"content" validate:"required"`
	ContentType ContentType  `json:"contentType" validate:"required,oneof=text url"`
	FocusRegion Region       `json:"focusRegion,omitempty" validate:"omitempty,oneof=global nigeria"`
	SourceTypes []SourceType `json:"sourceTypes,omitempty" validate:"omitempty,dive,oneof=news government academic medical"`
}

// Validate validates the VerificationRequest using the validator.
func (r *VerificationRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.Content) == "" {
		return &RequestError{Field: "content", Message: "must not be blank"}
	}
	if r.ContentType == ContentTypeURL && validate.Var(r.Content, "url") != nil {
		return &RequestError{Field: "content", Message: "must be a valid URL when contentType is url"}
	}
	return nil
}

// HasSourceType reports whether the request asks for the given evidence category.
func (r *VerificationRequest) HasSourceType(t SourceType) bool {
	for _, s := range r.SourceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// RequestError reports a request that passed struct validation but is still unusable.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return "invalid request: " + e.Field + " " + e.Message
}
