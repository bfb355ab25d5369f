// Package validation checks request payloads and configuration.
//
// Struct tags are evaluated with go-playground/validator:
//
//	type EnrollRequest struct {
//	    UserID string `json:"user_id" validate:"required,subject"`
//	}
//	err := validation.Struct(req)
//
// Programmatic checks collect every failure before returning:
//
//	err := validation.New().
//	    Unit("min_confidence", cfg.MinConfidence).
//	    OneOf("primary_service", cfg.Primary, "remote", "local").
//	    Validate()
package validation
