// Package parser extracts flashcards from markdown files.
//
// A card begins at an "F:" line holding the front of the card, usually a
// word or phrase in the language being learned. A "T:" line attaches the
// translation and an optional "N:" line attaches usage notes. Blocks may
// span multiple lines; a "---" separator or the next "F:" ends the card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/grammr/srs/internal/domain"
)

const (
	frontPrefix       = "F:"
	translationPrefix = "T:"
	notesPrefix       = "N:"
)

// ParseFile reads a file from the given path and extracts all flashcards.
func ParseFile(path string) ([]domain.Flashcard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all flashcards. Cards without
// a front are dropped.
func Parse(r io.Reader) ([]domain.Flashcard, error) {
	scanner := bufio.NewScanner(r)

	var cards []domain.Flashcard
	var current domain.Flashcard
	var block []string
	var target *string

	flushBlock := func() {
		if target != nil && len(block) > 0 {
			*target = strings.Join(block, "\n")
		}
		block = nil
	}
	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.Flashcard{}
		target = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "---":
			finishCard()
		case strings.HasPrefix(line, frontPrefix):
			// A new front always starts a new card.
			finishCard()
			target = &current.Front
			block = append(block, trimPrefix(line, frontPrefix))
		case strings.HasPrefix(line, translationPrefix):
			flushBlock()
			target = &current.Translation
			block = append(block, trimPrefix(line, translationPrefix))
		case strings.HasPrefix(line, notesPrefix):
			flushBlock()
			target = &current.Notes
			block = append(block, trimPrefix(line, notesPrefix))
		case target != nil:
			block = append(block, line)
		}
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
