// Package palette asks an external chat-completions model for color
// suggestions. Nothing is persisted or cached; every call is a stateless
// pass-through to the upstream API.
package palette

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoColor = errors.New("no color provided")
)

const pairingSystemPrompt = "You are a color expert. When given a hex color, return exactly 4 colors that pair well with it. " +
	"Respond ONLY with a raw JSON array — no markdown, no explanation. " +
	"Each object must have 'hex' (e.g. '#FF5733') and 'name' (e.g. 'Sunset Orange') fields."

const randomSystemPrompt = "You are a color expert. Return a random color and 4 colors that pair well with it. " +
	"Respond ONLY with a raw JSON object — no markdown, no explanation. " +
	"The object must have 'primary' (with 'hex' and 'name') and 'colors' (array of 4 objects each with 'hex' and 'name')."

type Color struct {
	Hex  string `json:"hex"`
	Name string `json:"name"`
}

type RandomPalette struct {
	Primary Color   `json:"primary"`
	Colors  []Color `json:"colors"`
}

// Client is the upstream model. Complete sends one system instruction
// plus one user message and returns the model's text reply.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Service struct {
	client Client
}

func NewService(client Client) *Service {
	return &Service{client: client}
}

// SuggestPairing returns 4 colors that pair with the given hex color.
func (s *Service) SuggestPairing(ctx context.Context, color string) ([]Color, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil, ErrNoColor
	}

	raw, err := s.client.Complete(ctx, pairingSystemPrompt,
		fmt.Sprintf("Give me 4 colors that pair well with %s", color))
	if err != nil {
		return nil, err
	}

	var colors []Color
	if err := json.Unmarshal([]byte(stripFence(raw)), &colors); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	if err := validateColors(colors); err != nil {
		return nil, err
	}

	return colors, nil
}

// SuggestRandom returns an arbitrary primary color plus 4 complementary
// ones.
func (s *Service) SuggestRandom(ctx context.Context) (*RandomPalette, error) {
	raw, err := s.client.Complete(ctx, randomSystemPrompt,
		"Give me a random color (it can be any unique color also) with 4 colors that pair well with it")
	if err != nil {
		return nil, err
	}

	var result RandomPalette
	if err := json.Unmarshal([]byte(stripFence(raw)), &result); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	if result.Primary.Hex == "" || result.Primary.Name == "" {
		return nil, errors.New("model response missing primary color")
	}
	if err := validateColors(result.Colors); err != nil {
		return nil, err
	}

	return &result, nil
}

// stripFence removes a leading ```json or ``` marker and a trailing ```
// marker. The upstream model does not reliably honor the "raw JSON only"
// instruction.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// validateColors checks the shape of every entry. The element count is
// deliberately not enforced.
func validateColors(colors []Color) error {
	if len(colors) == 0 {
		return errors.New("model response contains no colors")
	}
	for i, c := range colors {
		if c.Hex == "" || c.Name == "" {
			return fmt.Errorf("model response color %d missing hex or name", i)
		}
	}
	return nil
}
