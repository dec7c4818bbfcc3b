package validate

import (
	"errors"
	"testing"
)

type setOf map[string]bool

func (s setOf) Has(name string) bool { return s[name] }

func ptr(s string) *string { return &s }

func TestValidate_RuleOrder(t *testing.T) {
	templates := setOf{"t1": true}

	cases := []struct {
		name  string
		draft Draft
		want  error
	}{
		{"no template", Draft{Name: ptr("a")}, ErrNoTemplate},
		{"nothing at all", Draft{}, ErrNoTemplate},
		{"no name", Draft{Template: ptr("t1")}, ErrNoName},
		{"no name beats bad template", Draft{Template: ptr("bogus")}, ErrNoName},
		{"one char", Draft{Template: ptr("t1"), Name: ptr("a")}, ErrNameTooShort},
		{"empty name", Draft{Template: ptr("t1"), Name: ptr("")}, ErrNameTooShort},
		{"short beats bad template", Draft{Template: ptr("bogus"), Name: ptr("a")}, ErrNameTooShort},
		{"one multibyte rune", Draft{Template: ptr("t1"), Name: ptr("é")}, ErrNameTooShort},
		{"unknown template", Draft{Template: ptr("bogus"), Name: ptr("ab")}, ErrUnknownTemplate},
		{"empty template string", Draft{Template: ptr(""), Name: ptr("ab")}, ErrUnknownTemplate},
		{"valid", Draft{Template: ptr("t1"), Name: ptr("ab")}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.draft, templates)
			if !errors.Is(got, tc.want) || (tc.want == nil && got != nil) {
				t.Fatalf("Validate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	want := map[error]string{
		ErrNoTemplate:      "Template attr must be set",
		ErrNoName:          "name attr must be set",
		ErrNameTooShort:    "Database name too short (1)",
		ErrUnknownTemplate: "Not a valid template",
	}
	for err, msg := range want {
		if err.Error() != msg {
			t.Errorf("message = %q, want %q", err.Error(), msg)
		}
	}
}

func TestValidate_EmptyRegistryRejects(t *testing.T) {
	if err := Validate(Draft{Template: ptr("t1"), Name: ptr("ab")}, setOf{}); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("Validate = %v, want %v", err, ErrUnknownTemplate)
	}
}
