// Package gpt builds few-shot prompts and sends them to text-generation
// engines. Every Generator returns a JSON document with a "generation" key so
// callers can treat engines interchangeably.
package gpt

import "strings"

// DefaultTemperature is the configured temperature when none is given.
// Requests send Temperature unchanged, zero included.
const DefaultTemperature = 0.8

// Example is one few-shot pair. Either side may be empty.
type Example struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Request describes one generation call.
type Request struct {
	Task        string
	Text        string
	InputDesc   string
	OutputDesc  string
	Examples    []Example
	Temperature float64
}

// FormatPrompt renders r as a plain-text few-shot prompt:
//
//	Correct grammar mistakes.
//
//	Original: Where do you went?
//	Standard American English: Where did you go?
//	Original: Where is you?
//	Standard American English:
func FormatPrompt(r Request) string {
	var b strings.Builder
	if r.Task != "" {
		b.WriteString(r.Task)
		b.WriteString("\n\n")
	}
	line := func(desc, value string) {
		if desc != "" {
			b.WriteString(desc)
			b.WriteString(": ")
		}
		b.WriteString(value)
		b.WriteString("\n")
	}
	for _, ex := range r.Examples {
		if ex.Input != "" {
			line(r.InputDesc, ex.Input)
		}
		// outputs alone are allowed, e.g. a bare list of sample values
		if ex.Output != "" {
			line(r.OutputDesc, ex.Output)
		}
	}
	if r.Text != "" {
		line(r.InputDesc, r.Text)
	}
	if r.OutputDesc != "" {
		b.WriteString(r.OutputDesc)
		b.WriteString(":")
	}
	return b.String()
}
