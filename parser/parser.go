// Package parser reads decks written as plain text:
//
//	Q: What is the capital of France?
//	A: Paris
//	C: Geography
//	---
//
// Fields may span several lines. A "---" line or a new "Q:" ends a card.
package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/adamspd/FlashMind/models"
)

type field int

const (
	none field = iota
	question
	answer
	note
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", question},
	{"A:", answer},
	{"C:", note},
}

type cardBuilder struct {
	fields  map[field][]string
	current field
}

func newCardBuilder() *cardBuilder {
	return &cardBuilder{fields: make(map[field][]string)}
}

func (b *cardBuilder) start(f field, rest string) {
	b.current = f
	b.fields[f] = append(b.fields[f][:0], strings.TrimPrefix(rest, " "))
}

func (b *cardBuilder) add(line string) {
	if b.current != none {
		b.fields[b.current] = append(b.fields[b.current], line)
	}
}

func (b *cardBuilder) text(f field) string {
	return strings.TrimSpace(strings.Join(b.fields[f], "\n"))
}

func (b *cardBuilder) empty() bool {
	return b.current == none
}

// card returns the built card. A C: block is appended to the answer as a
// note, stored cards only carry a question and an answer.
func (b *cardBuilder) card() (models.GeneratedCard, bool) {
	q := b.text(question)
	if q == "" {
		return models.GeneratedCard{}, false
	}
	a := b.text(answer)
	if c := b.text(note); c != "" {
		if a != "" {
			a += "\n\n"
		}
		a += "(" + c + ")"
	}
	return models.GeneratedCard{Question: q, Answer: a}, true
}

// Parse extracts every card with a question. Text before the first Q: is
// ignored.
func Parse(r io.Reader) ([]models.GeneratedCard, error) {
	var cards []models.GeneratedCard
	b := newCardBuilder()

	flush := func() {
		if c, ok := b.card(); ok {
			cards = append(cards, c)
		}
		b = newCardBuilder()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}

		matched := false
		for _, p := range prefixes {
			if !strings.HasPrefix(line, p.prefix) {
				continue
			}
			if p.field == question && !b.empty() {
				flush()
			}
			b.start(p.field, line[len(p.prefix):])
			matched = true
			break
		}

		if !matched {
			b.add(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func ParseString(s string) ([]models.GeneratedCard, error) {
	return Parse(strings.NewReader(s))
}
