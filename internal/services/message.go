package services

import (
	"errors"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/validation"
)

// Message turns an error from any service call into text fit for a user.
// API errors show their detail (the server's message, or the transport error
// when no response arrived), validation errors their first field message, and
// anything else its own text. fallback covers the rest.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fallback
	}

	var validationErr *validation.Error
	if errors.As(err, &validationErr) && len(validationErr.Fields) > 0 {
		return validationErr.Fields[0].Message
	}

	var decodeErr *apiclient.DecodeError
	if errors.As(err, &decodeErr) {
		return fallback
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
