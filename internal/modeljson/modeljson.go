// Package modeljson recovers a JSON value from free-form model replies. A Chain tries
// each Strategy in order and decodes the first candidate that parses.
package modeljson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecoverable is returned when no strategy yields a decodable candidate.
var ErrUnrecoverable = errors.New("no JSON value could be recovered from model reply")

// Strategy proposes a JSON candidate cut from a raw reply.
type Strategy interface {
	Name() string
	Candidate(raw string) (string, bool)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	Label string
	Fn    func(raw string) (string, bool)
}

func (s StrategyFunc) Name() string                        { return s.Label }
func (s StrategyFunc) Candidate(raw string) (string, bool) { return s.Fn(raw) }

// Strict uses the reply as is.
var Strict Strategy = StrategyFunc{Label: "strict", Fn: func(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}}

// CodeFence strips a leading ``` or ```json line and a trailing ``` marker.
var CodeFence Strategy = StrategyFunc{Label: "code_fence", Fn: stripCodeFence}

// BraceSpan keeps the text from the first '{' to the last '}'.
var BraceSpan Strategy = StrategyFunc{Label: "brace_span", Fn: func(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}}

func stripCodeFence(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	idx := strings.Index(s, "\n")
	if idx == -1 {
		return "", false
	}
	s = s[idx+1:]
	if end := strings.LastIndex(s, "```"); end != -1 {
		s = s[:end]
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Chain is an ordered list of strategies.
type Chain []Strategy

// DefaultChain returns strict parsing followed by fence stripping and brace extraction.
func DefaultChain() Chain {
	return Chain{Strict, CodeFence, BraceSpan}
}

// With returns a copy of c with extra strategies appended.
func (c Chain) With(more ...Strategy) Chain {
	out := make(Chain, 0, len(c)+len(more))
	out = append(out, c...)
	return append(out, more...)
}

// Decode unmarshals the first candidate that parses into v and returns the name of the
// strategy that produced it.
func (c Chain) Decode(raw string, v any) (string, error) {
	var lastErr error
	for _, s := range c {
		candidate, ok := s.Candidate(raw)
		if !ok {
			continue
		}
		// Syntax check first so a bad candidate never touches v.
		var checked json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &checked); err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal(checked, v); err != nil {
			lastErr = err
			continue
		}
		return s.Name(), nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecoverable, lastErr)
	}
	return "", ErrUnrecoverable
}
