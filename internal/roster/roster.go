package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultVoice is the hard-coded narration voice used when no character
// supplies one.
const DefaultVoice = "ember"

// Character describes one voice-cast member. Voice is the default-provider
// voice id; ElevenVoice, when set, takes priority for narration. Portrait is
// an opaque data URL and is never interpreted here.
type Character struct {
	Name        string `json:"name"`
	Notes       string `json:"notes"`
	Voice       string `json:"voice"`
	ElevenVoice string `json:"eleven"`
	Portrait    string `json:"portrait,omitempty"`
}

// Default returns the stock cast shipped with a fresh project.
func Default() []Character {
	names := []string{
		"Narrator", "Sidetracked Sally", "Darling Danielle", "Dark Dan",
		"Skater Skip", "Creative Callie", "Zen Zena", "Grumpy Gus",
	}
	out := make([]Character, len(names))
	for i, n := range names {
		out[i] = Character{Name: n, Voice: DefaultVoice}
	}
	return out
}

// Narrator picks the narration character: the one named "narrator" (case
// insensitive), else the first of the roster, else a zero Character whose
// NarrationVoice falls back to DefaultVoice.
func Narrator(chars []Character) Character {
	for _, c := range chars {
		if strings.EqualFold(strings.TrimSpace(c.Name), "narrator") {
			return c
		}
	}
	if len(chars) > 0 {
		return chars[0]
	}
	return Character{}
}

// NarrationVoice returns the character's default-provider voice id, or
// DefaultVoice when unset.
func (c Character) NarrationVoice() string {
	if v := strings.TrimSpace(c.Voice); v != "" {
		return v
	}
	return DefaultVoice
}

// LoadFile reads a roster JSON file. A missing path yields the default cast.
func LoadFile(path string) ([]Character, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var chars []Character
	if err := json.Unmarshal(b, &chars); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return chars, nil
}

// SaveFile writes the roster as indented JSON.
func SaveFile(path string, chars []Character) error {
	b, err := json.MarshalIndent(chars, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
