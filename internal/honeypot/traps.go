package honeypot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes the trap surfaces embedded in generated content.
type Kind string

const (
	KindLink        Kind = "link"
	KindHiddenField Kind = "hidden_field"
	KindChallenge   Kind = "challenge"
)

var validKinds = map[Kind]bool{
	KindLink:        true,
	KindHiddenField: true,
	KindChallenge:   true,
}

// ErrInvalidTrap rejects unknown, forged, or mangled trap IDs.
var ErrInvalidTrap = errors.New("invalid trap id")

// Trap is an embeddable trap descriptor. The descriptor is formatted like
// real content (a field name, a question); only its visibility styling,
// owned by the presentation layer, separates it from the genuine article.
type Trap struct {
	ID        string `json:"trap_id"`
	Kind      Kind   `json:"kind"`
	FieldName string `json:"field_name,omitempty"` // for hidden_field
	Question  string `json:"question,omitempty"`   // for challenge
}

// Instrumenter mints and validates trap descriptors. IDs are HMAC-signed so
// a reported trigger can be authenticated without any stored trap state.
type Instrumenter struct {
	secret []byte
}

func NewInstrumenter(secret string) *Instrumenter {
	return &Instrumenter{secret: []byte(secret)}
}

// NewTrap mints a fresh trap with a random nonce, for callers that want a
// unique descriptor per render.
func (t *Instrumenter) NewTrap(kind Kind) Trap {
	return t.Mint(kind, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Mint builds the trap for a given nonce. Deterministic nonce in, identical
// trap out, which keeps generated pages byte-identical.
func (t *Instrumenter) Mint(kind Kind, nonce string) Trap {
	trap := Trap{
		ID:   string(kind) + "." + nonce + "." + t.sign(string(kind), nonce),
		Kind: kind,
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(nonce))
	pick := h.Sum64()

	switch kind {
	case KindHiddenField:
		trap.FieldName = hiddenFieldNames[pick%uint64(len(hiddenFieldNames))]
	case KindChallenge:
		trap.Question = impossibleQuestions[pick%uint64(len(impossibleQuestions))]
	}
	return trap
}

// Validate authenticates a reported trap ID and returns its kind.
func (t *Instrumenter) Validate(trapID string) (Kind, error) {
	parts := strings.Split(trapID, ".")
	if len(parts) != 3 {
		return "", ErrInvalidTrap
	}
	kind, nonce, sig := Kind(parts[0]), parts[1], parts[2]
	if !validKinds[kind] || nonce == "" {
		return "", ErrInvalidTrap
	}
	expected := t.sign(string(kind), nonce)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrInvalidTrap
	}
	return kind, nil
}

func (t *Instrumenter) sign(kind, nonce string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(kind))
	mac.Write([]byte("."))
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil)[:8])
}
