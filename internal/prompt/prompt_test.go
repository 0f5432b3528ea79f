package prompt

import (
	"strings"
	"testing"

	"codeassist/internal/builder"
)

func TestBuild_IncludesContext(t *testing.T) {
	out := Build(Context{
		Tree:    "app/\n└── main.go",
		History: "USER: hi",
		Files:   []builder.File{{Path: "main.go", Content: "package main"}},
		Query:   `add "hello"`,
	})

	for _, want := range []string{
		"app/\n└── main.go",
		"USER: hi",
		"File: main.go\n```\npackage main\n```",
		`User Request: "add \"hello\""`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(out, "must match this schema") {
		t.Error("schema section should be omitted when empty")
	}
}

func TestBuild_NoFilesAndSchema(t *testing.T) {
	out := Build(Context{Tree: "x/", History: "No previous conversation history.", Query: "q", Schema: `{"type":"object"}`})

	if !strings.Contains(out, "No specific files were provided for context.") {
		t.Error("expected placeholder for missing files")
	}
	if !strings.Contains(out, `{"type":"object"}`) {
		t.Error("expected schema text")
	}
}
