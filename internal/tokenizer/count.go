package tokenizer

import (
	"errors"
	"strings"
)

var errNilCounter = errors.New("nil tokenizer counter")

// CountResult captures the outcome of counting a set of strings.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountStrings counts the concatenation of parts using counter.
func CountStrings(counter Counter, parts ...string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	tokens, err := counter.CountString(strings.Join(parts, ""))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}
