package ai

import (
	"context"
	"errors"
)

// Mode identifies an interpretation style.
type Mode string

const (
	ModeClassic   Mode = "klasik"
	ModePositive  Mode = "olumlu"
	ModeNightmare Mode = "kabus"
	ModeFreud     Mode = "freud"
	ModeJung      Mode = "jung"
	ModeMystic    Mode = "arabi"
	ModeModern    Mode = "modern"
	ModeShort     Mode = "kisa"
)

// FallbackText is returned to users whenever the generator fails.
const FallbackText = "Rüya yorumlanırken bir hata oluştu. Lütfen daha sonra tekrar deneyin."

// ErrEmptyResponse reports a successful call whose body carried no generated text.
var ErrEmptyResponse = errors.New("generator returned no text")

// Profile carries the caller details used for gating and personalisation.
type Profile struct {
	DisplayName string
	Username    string
	Age         string
	Occupation  string
	Interests   string
}

// Interpretation is the tagged outcome of a generation request.
// Err is nil on success; otherwise Text holds FallbackText and Mode the requested mode.
type Interpretation struct {
	Text string
	Mode Mode
	Err  error
}

// OK reports whether the text was generated.
func (i Interpretation) OK() bool {
	return i.Err == nil
}

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
