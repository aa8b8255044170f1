package honeypot

import (
	"strings"
	"testing"
)

func TestTrapMintAndValidate(t *testing.T) {
	inst := NewInstrumenter("test-secret")

	for _, kind := range []Kind{KindLink, KindHiddenField, KindChallenge} {
		trap := inst.NewTrap(kind)

		got, err := inst.Validate(trap.ID)
		if err != nil {
			t.Errorf("Validate(%q): %v", trap.ID, err)
		}
		if got != kind {
			t.Errorf("Validate kind = %q, want %q", got, kind)
		}
	}
}

func TestTrapDescriptorsLookLikeContent(t *testing.T) {
	inst := NewInstrumenter("test-secret")

	field := inst.Mint(KindHiddenField, "00000000000000aa")
	if field.FieldName == "" {
		t.Error("hidden field trap needs a plausible field name")
	}
	if strings.Contains(strings.ToLower(field.FieldName), "trap") ||
		strings.Contains(strings.ToLower(field.FieldName), "honeypot") {
		t.Errorf("field name %q betrays the trap", field.FieldName)
	}

	challenge := inst.Mint(KindChallenge, "00000000000000bb")
	if challenge.Question == "" {
		t.Error("challenge trap needs a question")
	}
}

func TestTrapMintDeterministic(t *testing.T) {
	inst := NewInstrumenter("test-secret")

	a := inst.Mint(KindChallenge, "00000000000000aa")
	b := inst.Mint(KindChallenge, "00000000000000aa")
	if a != b {
		t.Errorf("deterministic mint differs: %+v vs %+v", a, b)
	}
}

func TestTrapValidateRejectsForgeries(t *testing.T) {
	inst := NewInstrumenter("test-secret")
	trap := inst.NewTrap(KindLink)

	tests := []struct {
		name string
		id   string
	}{
		{name: "empty", id: ""},
		{name: "garbage", id: "nonsense"},
		{name: "wrong part count", id: "link.abc"},
		{name: "unknown kind", id: "popup.abc.0011223344556677"},
		{name: "tampered signature", id: trap.ID[:len(trap.ID)-1] + "x"},
		{name: "kind swapped", id: strings.Replace(trap.ID, "link.", "challenge.", 1)},
		{name: "foreign secret", id: NewInstrumenter("other-secret").NewTrap(KindLink).ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := inst.Validate(tt.id); err == nil {
				t.Errorf("Validate(%q) accepted a forgery", tt.id)
			}
		})
	}
}
