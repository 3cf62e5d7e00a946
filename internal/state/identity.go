package state

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeID maps a peer identity to the key sessions and connections are
// registered under: surrounding space trimmed, case folded.
func NormalizeID(id string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(id))
}
