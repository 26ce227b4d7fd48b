package tui

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantNil  bool
		wantName string
		wantArgs string
	}{
		{"/help", false, "help", ""},
		{"/model openai/gpt-4-turbo", false, "model", "openai/gpt-4-turbo"},
		{"/MODEL foo", false, "model", "foo"},
		{"  /quit  ", false, "quit", ""},
		{"/save runs/out.json", false, "save", "runs/out.json"},
		{"hello", true, "", ""},
		{"", true, "", ""},
		{"not /a command", true, "", ""},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.input)
		if tt.wantNil {
			if got != nil {
				t.Errorf("ParseCommand(%q) = %+v, want nil", tt.input, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("ParseCommand(%q) = nil, want command", tt.input)
			continue
		}
		if got.Name != tt.wantName || got.Args != tt.wantArgs {
			t.Errorf("ParseCommand(%q) = {%q %q}, want {%q %q}",
				tt.input, got.Name, got.Args, tt.wantName, tt.wantArgs)
		}
	}
}

func TestHelpTextListsCommands(t *testing.T) {
	help := HelpText()
	for _, cmd := range []string{"/help", "/models", "/model", "/cost", "/save", "/reset"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("help text missing %s", cmd)
		}
	}
}
