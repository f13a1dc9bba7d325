package tokenizer

import (
	"errors"
	"strings"
	"testing"
)

type testCounter struct{}

func (testCounter) Name() string { return "stub" }

func (testCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(string) (int, error) { return 0, errors.New("boom") }

func TestEstimateTokens(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "single character", input: "a", expected: 1},
		{name: "exact multiple", input: "abcdefgh", expected: 2},
		{name: "rounds up", input: "abcdefghi", expected: 3},
		{name: "counts characters not bytes", input: strings.Repeat("é", 8), expected: 2},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := EstimateTokens(testCase.input); got != testCase.expected {
				t.Fatalf("expected %d tokens, got %d", testCase.expected, got)
			}
		})
	}
}

func TestCountStrings(t *testing.T) {
	result, err := CountStrings(testCounter{}, "hel", "lo")
	if err != nil {
		t.Fatalf("CountStrings error: %v", err)
	}
	if !result.Counted || result.Tokens != 5 {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, err := CountStrings(nil, "x"); err == nil {
		t.Fatalf("expected error for nil counter")
	}
	if _, err := CountStrings(failingCounter{}, "x"); err == nil {
		t.Fatalf("expected counter error to propagate")
	}
}

func TestHeuristicCounter(t *testing.T) {
	counter := HeuristicCounter{}
	tokens, err := counter.CountString("twelve chars")
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens != 3 {
		t.Fatalf("expected 3 tokens, got %d", tokens)
	}
	if counter.Name() != heuristicName {
		t.Fatalf("unexpected name %q", counter.Name())
	}
}

func TestNewCounterDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("tiktoken vocabularies may need to be downloaded")
	}
	counter, model, err := NewCounter(Config{Model: "gpt-4o"})
	if err != nil {
		t.Skipf("tiktoken vocabulary unavailable: %v", err)
	}
	if model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %q", model)
	}
	tokens, err := counter.CountString("hello world")
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens <= 0 {
		t.Fatalf("expected positive token count, got %d", tokens)
	}
}
