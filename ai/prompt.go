package ai

import (
	"fmt"
	"strings"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
	"github.com/tidwall/gjson"
)

const systemPrompt = "You are a study assistant that writes flashcards. Reply with JSON only."

var difficultyHints = map[string]string{
	models.DifficultyEasy:   "Ask about the main facts and definitions stated directly in the text.",
	models.DifficultyMedium: "Mix direct facts with questions that connect two ideas from the text.",
	models.DifficultyHard:   "Prefer questions that need reasoning about details, causes and consequences.",
}

// BuildPrompt asks for a JSON array of {q, a, options, correct} objects.
func BuildPrompt(text, difficulty string) string {
	hint, ok := difficultyHints[difficulty]
	if !ok {
		difficulty = models.DifficultyEasy
		hint = difficultyHints[difficulty]
	}

	var b strings.Builder
	b.WriteString("Read the text below and pick out its key facts. ")
	b.WriteString("Turn them into quiz cards.\n")
	fmt.Fprintf(&b, "Difficulty: %s. %s\n", difficulty, hint)
	b.WriteString(`Return ONLY a JSON array of objects with the fields "q", "a", "options" and "correct". `)
	b.WriteString(`"options" holds 3 or 4 short answer choices and "correct" repeats the right one exactly.`)
	b.WriteString("\n")
	b.WriteString(`Example: [{"q": "2+2?", "a": "4", "options": ["3", "4", "5"], "correct": "4"}]`)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	return b.String()
}

// ParseCards extracts cards from a model reply. Only the span between the
// first '[' and the last ']' is read, so chatter around the array is ignored.
func ParseCards(content string) ([]models.GeneratedCard, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrNoCards)
	}

	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrNoCards)
	}

	result := gjson.Parse(raw)
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: reply is not an array", ErrNoCards)
	}

	cards := make([]models.GeneratedCard, 0)
	result.ForEach(func(_, item gjson.Result) bool {
		if card, ok := cardFromJSON(item); ok {
			cards = append(cards, card)
		}
		return true
	})

	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	return cards, nil
}

func cardFromJSON(item gjson.Result) (models.GeneratedCard, bool) {
	if !item.IsObject() {
		return models.GeneratedCard{}, false
	}

	card := models.GeneratedCard{
		Question: strings.TrimSpace(firstString(item, "q", "question")),
		Answer:   strings.TrimSpace(firstString(item, "a", "answer")),
		Correct:  strings.TrimSpace(item.Get("correct").String()),
	}
	if card.Question == "" {
		return card, false
	}

	for _, opt := range item.Get("options").Array() {
		if s := strings.TrimSpace(opt.String()); s != "" {
			card.Options = append(card.Options, s)
		}
	}

	normalizeCard(&card)

	if card.Answer == "" && card.Correct == "" {
		return card, false
	}
	return card, true
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// normalizeCard makes Correct name one of Options exactly, or drops the
// options so the card falls back to a plain flashcard.
func normalizeCard(card *models.GeneratedCard) {
	if len(card.Options) == 0 {
		if card.Answer == "" {
			card.Answer = card.Correct
		}
		card.Options = nil
		card.Correct = ""
		return
	}

	if card.Correct == "" {
		card.Correct = card.Answer
	}

	for _, opt := range card.Options {
		if utils.SameAnswer(opt, card.Correct) {
			card.Correct = opt
			if card.Answer == "" {
				card.Answer = opt
			}
			return
		}
	}

	if card.Answer == "" {
		card.Answer = card.Correct
	}
	card.Options = nil
	card.Correct = ""
}
