// Package knol computes the content identity of a flashcard. Cards synced
// from markdown sources carry no stable IDs, so the normalized content
// hash is what links a file entry to its database row across syncs.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/grammr/srs/internal/domain"
)

// Normalize concatenates the flashcard's content after cleaning each part.
// Each field is trimmed, lowercased and has its line endings normalized,
// so cosmetic edits in the source file do not register as new cards.
func Normalize(fc domain.Flashcard) string {
	clean := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		return strings.ReplaceAll(p, "\r\n", "\n")
	}

	// Fields are joined with a newline so adjacent words from different
	// fields cannot collide into the same hash input.
	return strings.Join([]string{
		clean(fc.Front),
		clean(fc.Translation),
		clean(fc.Notes),
	}, "\n")
}

// Hash returns the SHA-256 of the normalized flashcard as a hex string.
func Hash(fc domain.Flashcard) string {
	sum := sha256.Sum256([]byte(Normalize(fc)))
	return hex.EncodeToString(sum[:])
}
