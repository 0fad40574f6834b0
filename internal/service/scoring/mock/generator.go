// Package mock provides a canned scoring generator for tests and local runs.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Generator returns Reply when set, otherwise a well-formed report with one
// score per question mentioned in the prompt.
type Generator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}
	if g.Reply != "" {
		return g.Reply, nil
	}
	return cannedReport(countQuestions(prompt)), nil
}

// Prompts returns every prompt received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// countQuestions counts the "Qn:" lines of the rendered transcript.
func countQuestions(prompt string) int {
	n := 0
	for _, line := range strings.Split(prompt, "\n") {
		var q int
		if _, err := fmt.Sscanf(line, "Q%d:", &q); err == nil {
			n++
		}
	}
	return n
}

func cannedReport(n int) string {
	var scores []string
	for i := 1; i <= n; i++ {
		scores = append(scores, fmt.Sprintf(`{"question_number": %d, "score": 7, "justification": "Clear answer with relevant detail."}`, i))
	}
	return fmt.Sprintf("```json\n{\"question_scores\": [%s], \"overall_score\": 7, \"summary\": \"Solid, consistent answers.\"}\n```",
		strings.Join(scores, ", "))
}
