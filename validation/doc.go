// Package validation checks harness configuration.
//
// Struct tags are checked with go-playground/validator; cross-field rules
// are collected with the programmatic Validator.
//
//	type Message struct {
//	    Size  int    `validate:"gte=0"`
//	    Token string `validate:"required"`
//	}
//	err := validation.Validate(msg)
//
//	v := validation.New()
//	v.Custom(drain < settle, "drain_timeout", "must be shorter than settle_timeout")
//	err := v.Validate()
package validation
