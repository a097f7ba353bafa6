package config

import (
	"os"
	"strings"
)

// DefaultInstructions is used when no instructions file is present.
const DefaultInstructions = "You are a helpful, friendly assistant."

// LoadInstructions reads the system-prompt file at path. A missing or empty
// file is not an error; the hardcoded default is returned instead so the bot
// can always start.
func LoadInstructions(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultInstructions
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return DefaultInstructions
	}
	return s
}
