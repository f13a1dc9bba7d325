package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestToggleFlagParsesLiterals(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		arguments []string
		expected  bool
		remaining []string
	}{
		{name: "defaults_to_false", arguments: []string{}, expected: false},
		{name: "bare_flag_enables", arguments: []string{"--feature"}, expected: true},
		{name: "equals_literal", arguments: []string{"--feature=off"}, expected: false},
		{name: "separate_no_literal", arguments: []string{"--feature", "no"}, expected: false},
		{name: "separate_yes_literal", arguments: []string{"--feature", "yes"}, expected: true},
		{name: "path_after_flag_is_positional", arguments: []string{"--feature", "src"}, expected: true, remaining: []string{"src"}},
		{name: "terminator_stops_rewrite", arguments: []string{"--", "--feature", "no"}, expected: false, remaining: []string{"--feature", "no"}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "toggle-test"}
			var enabled bool
			addToggleFlag(command.Flags(), &enabled, "feature", "", "toggle feature")
			if parseErr := command.ParseFlags(joinToggleArguments(command, testCase.arguments)); parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if enabled != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, enabled)
			}
			remaining := command.Flags().Args()
			if len(remaining) != len(testCase.remaining) {
				t.Fatalf("expected positional arguments %v, got %v", testCase.remaining, remaining)
			}
			for index := range remaining {
				if remaining[index] != testCase.remaining[index] {
					t.Fatalf("expected positional arguments %v, got %v", testCase.remaining, remaining)
				}
			}
		})
	}
}

func TestToggleFlagRejectsUnknownLiteral(t *testing.T) {
	t.Parallel()
	command := &cobra.Command{Use: "toggle-test"}
	var enabled bool
	addToggleFlag(command.Flags(), &enabled, "feature", "f", "toggle feature")
	if parseErr := command.ParseFlags([]string{"--feature=maybe"}); parseErr == nil {
		t.Fatalf("expected an error for an unknown literal")
	}
	if parseErr := command.ParseFlags([]string{"-f"}); parseErr != nil {
		t.Fatalf("unexpected parse error for shorthand: %v", parseErr)
	}
	if !enabled {
		t.Fatalf("expected shorthand to enable the toggle")
	}
}
