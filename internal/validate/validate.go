// Package validate checks a creation draft before anything is sent to the
// registry.  Rules run in a fixed order and stop at the first failure; the
// order is part of the contract, so callers may rely on which error wins.
package validate

import (
	"errors"
	"unicode/utf8"
)

// Operator-facing messages.  The wording is fixed.
var (
	ErrNoTemplate      = errors.New("Template attr must be set")
	ErrNoName          = errors.New("name attr must be set")
	ErrNameTooShort    = errors.New("Database name too short (1)")
	ErrUnknownTemplate = errors.New("Not a valid template")
)

// Draft is an unvalidated creation intent.  A nil field means the attribute
// was not supplied at all, which is different from an empty string.
type Draft struct {
	Template *string
	Name     *string
}

// TemplateSet answers template membership from memory.
type TemplateSet interface {
	Has(name string) bool
}

// Validate returns nil when d may be submitted, or the first failing rule.
func Validate(d Draft, templates TemplateSet) error {
	if d.Template == nil {
		return ErrNoTemplate
	}
	if d.Name == nil {
		return ErrNoName
	}
	if utf8.RuneCountInString(*d.Name) <= 1 {
		return ErrNameTooShort
	}
	if templates == nil || !templates.Has(*d.Template) {
		return ErrUnknownTemplate
	}
	return nil
}
