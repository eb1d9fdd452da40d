package commands

import (
	"strings"
	"testing"
)

func TestParse_NonSlashCommand(t *testing.T) {
	tests := []string{
		"hello world",
		"",
		"   ",
		"help",
		"all broadcast without slash",
		"this is not a command",
	}

	for _, input := range tests {
		result := Parse(input)
		if result != nil {
			t.Errorf("Parse(%q) = %v, want nil", input, result)
		}
	}
}

func TestParse_Help(t *testing.T) {
	tests := []string{
		"/help",
		"/HELP",
		"/Help",
		"  /help  ",
		"/help extra args ignored",
	}

	for _, input := range tests {
		result := Parse(input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want Help{}", input)
			continue
		}
		if _, ok := result.(Help); !ok {
			t.Errorf("Parse(%q) = %T, want Help", input, result)
		}
		if result.Type() != "help" {
			t.Errorf("Parse(%q).Type() = %q, want %q", input, result.Type(), "help")
		}
	}
}

func TestParse_ToggleModels(t *testing.T) {
	result := Parse("/models")
	if _, ok := result.(ToggleModels); !ok {
		t.Fatalf("Parse(/models) = %T, want ToggleModels", result)
	}
}

func TestParse_SelectModel(t *testing.T) {
	tests := []struct {
		input  string
		wantID string
	}{
		{"/select deepseek-chat", "deepseek-chat"},
		{"/SELECT o4-mini", "o4-mini"},
		{"  /select  gpt-4o  ", "gpt-4o"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		cmd, ok := result.(SelectModel)
		if !ok {
			t.Errorf("Parse(%q) = %T, want SelectModel", tt.input, result)
			continue
		}
		if cmd.ID != tt.wantID {
			t.Errorf("Parse(%q).ID = %q, want %q", tt.input, cmd.ID, tt.wantID)
		}
	}
}

func TestParse_SelectModelMissingID(t *testing.T) {
	result := Parse("/select")
	perr, ok := result.(ParseError)
	if !ok {
		t.Fatalf("Parse(/select) = %T, want ParseError", result)
	}
	if !strings.Contains(perr.Message, "model id") {
		t.Errorf("ParseError.Message = %q, want mention of model id", perr.Message)
	}
}

func TestParse_Broadcast(t *testing.T) {
	tests := []struct {
		input    string
		wantText string
	}{
		{"/all hello everyone", "hello everyone"},
		{"/ALL shared question", "shared question"},
		{"  /all  one two three  ", "one two three"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		cmd, ok := result.(Broadcast)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Broadcast", tt.input, result)
			continue
		}
		if cmd.Text != tt.wantText {
			t.Errorf("Parse(%q).Text = %q, want %q", tt.input, cmd.Text, tt.wantText)
		}
	}
}

func TestParse_BroadcastMissingText(t *testing.T) {
	result := Parse("/all")
	if _, ok := result.(ParseError); !ok {
		t.Fatalf("Parse(/all) = %T, want ParseError", result)
	}
}

func TestParse_GenerateImage(t *testing.T) {
	result := Parse("/image a lighthouse at dusk")
	cmd, ok := result.(GenerateImage)
	if !ok {
		t.Fatalf("Parse(/image ...) = %T, want GenerateImage", result)
	}
	if cmd.Prompt != "a lighthouse at dusk" {
		t.Errorf("Prompt = %q, want %q", cmd.Prompt, "a lighthouse at dusk")
	}

	if _, ok := Parse("/image").(ParseError); !ok {
		t.Error("Parse(/image) without a prompt should be a ParseError")
	}
}

func TestParse_Attach(t *testing.T) {
	result := Parse("/attach ~/pics/diagram v2.png")
	cmd, ok := result.(Attach)
	if !ok {
		t.Fatalf("Parse(/attach ...) = %T, want Attach", result)
	}
	if cmd.Path != "~/pics/diagram v2.png" {
		t.Errorf("Path = %q, want %q", cmd.Path, "~/pics/diagram v2.png")
	}

	if _, ok := Parse("/attach").(ParseError); !ok {
		t.Error("Parse(/attach) without a path should be a ParseError")
	}
}

func TestParse_Speak(t *testing.T) {
	tests := []struct {
		input    string
		wantText string
	}{
		{"/tts", ""},
		{"/tts read this aloud", "read this aloud"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		cmd, ok := result.(Speak)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Speak", tt.input, result)
			continue
		}
		if cmd.Text != tt.wantText {
			t.Errorf("Parse(%q).Text = %q, want %q", tt.input, cmd.Text, tt.wantText)
		}
	}
}

func TestParse_Export(t *testing.T) {
	tests := []struct {
		input     string
		wantModel string
	}{
		{"/export", ""},
		{"/export deepseek-chat", "deepseek-chat"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		cmd, ok := result.(Export)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Export", tt.input, result)
			continue
		}
		if cmd.Model != tt.wantModel {
			t.Errorf("Parse(%q).Model = %q, want %q", tt.input, cmd.Model, tt.wantModel)
		}
	}
}

func TestParse_ClearAndQuit(t *testing.T) {
	if _, ok := Parse("/clear").(ClearChat); !ok {
		t.Error("Parse(/clear) should return ClearChat")
	}
	if _, ok := Parse("/quit").(Quit); !ok {
		t.Error("Parse(/quit) should return Quit")
	}
	if _, ok := Parse("/exit").(Quit); !ok {
		t.Error("Parse(/exit) should return Quit")
	}
}

func TestParse_UnknownCommand(t *testing.T) {
	result := Parse("/bogus")
	perr, ok := result.(ParseError)
	if !ok {
		t.Fatalf("Parse(/bogus) = %T, want ParseError", result)
	}
	if !strings.Contains(perr.Message, "/bogus") {
		t.Errorf("ParseError.Message = %q, want it to name the command", perr.Message)
	}
}

func TestHelpText(t *testing.T) {
	text := HelpText()
	for _, cmd := range []string{"/help", "/models", "/select", "/all", "/image", "/attach", "/tts", "/export", "/clear", "/quit"} {
		if !strings.Contains(text, cmd) {
			t.Errorf("HelpText() missing %q", cmd)
		}
	}
}
