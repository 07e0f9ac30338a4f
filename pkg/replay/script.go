// Package replay provides a local practice server that speaks the tutor
// backend's SSE protocol from scripted transcripts. It exists for offline
// development and integration-testing of the streaming client; it is not
// the production backend.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Script is a set of canned answers the replay server cycles through, one
// per question asked.
type Script struct {
	Answers []string `json:"answers"`
}

// LoadScript reads a script from a JSON file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	var script Script
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}

	if len(script.Answers) == 0 {
		return nil, fmt.Errorf("script has no answers")
	}

	return &script, nil
}

// DemoScript returns the built-in script used when none is configured.
func DemoScript() *Script {
	return &Script{
		Answers: []string{
			"To solve 2x + 3 = 11, subtract 3 from both sides to get 2x = 8, then divide by 2. So x = 4.",
			"The derivative of x^2 is 2x. Apply the power rule: bring the exponent down and reduce it by one.",
			"A fraction is in lowest terms when the numerator and denominator share no common factor greater than 1.",
		},
	}
}

// chunks splits an answer into the streamed fragments the server emits,
// grouping a few words per chunk the way the real backend does.
func (s *Script) chunks(answer string) []string {
	const wordsPerChunk = 3

	words := strings.Fields(answer)
	if len(words) == 0 {
		return []string{answer}
	}

	var out []string
	for i := 0; i < len(words); i += wordsPerChunk {
		end := min(i+wordsPerChunk, len(words))
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		out = append(out, chunk)
	}
	return out
}
