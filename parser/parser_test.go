package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
		},
		{
			name:          "Context is kept as a note",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedCards: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2\n\n(Basic arithmetic)",
		},
		{
			name: "Multiline answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
		},
		{
			name: "New question starts a new card",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
			expectedQ:     "First question",
			expectedA:     "First answer",
		},
		{
			name:          "Separator ends a card",
			input:         "Q: One\nA: 1\n---\nQ: Two\nA: 2\n---\n",
			expectedCards: 2,
			expectedQ:     "One",
			expectedA:     "1",
		},
		{
			name:          "Windows line endings",
			input:         "Q: One\r\nA: 1\r\n",
			expectedCards: 1,
			expectedQ:     "One",
			expectedA:     "1",
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedQ:     "Question",
			expectedA:     "Answer",
		},
		{
			name:          "Question without answer is still parsed",
			input:         "Q: Lonely question",
			expectedCards: 1,
			expectedQ:     "Lonely question",
			expectedA:     "",
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Answer without question is dropped",
			input:         "A: orphan\n---\nQ: Real\nA: yes",
			expectedCards: 1,
			expectedQ:     "Real",
			expectedA:     "yes",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}
			if tc.expectedCards == 0 {
				return
			}

			card := cards[0]
			if card.Question != tc.expectedQ {
				t.Errorf("Expected Question to be '%s', but got '%s'", tc.expectedQ, card.Question)
			}
			if card.Answer != tc.expectedA {
				t.Errorf("Expected Answer to be '%s', but got '%s'", tc.expectedA, card.Answer)
			}
			if len(card.Options) != 0 {
				t.Errorf("Imported cards should have no options, got %v", card.Options)
			}
		})
	}
}
