// Package suggest turns a plain-language question into a command line.
package suggest

import (
	"context"
	"fmt"
	"strings"
)

// Suggester answers a question with a single command line.
type Suggester interface {
	Suggest(ctx context.Context, question string) (string, error)
}

// Func adapts a function to Suggester.
type Func func(ctx context.Context, question string) (string, error)

// Suggest implements Suggester.
func (f Func) Suggest(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

const promptTemplate = "Provide a command line snippet for achieving the following task. Only answer with the code, nothing more.\nTask: %s?\nSnippet: `"

// Prompt renders the completion prompt for question. The prompt ends inside
// an open backtick so the model answers with bare code.
func Prompt(question string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimRight(strings.TrimSpace(question), "?"))
}

// Clean reduces a model answer to one command line: code fences and
// backticks are dropped and only the first non-empty line is kept.
func Clean(answer string) string {
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimSpace(strings.Trim(line, "`"))
		line = strings.TrimPrefix(line, "$ ")
		if line != "" {
			return line
		}
	}
	return ""
}
