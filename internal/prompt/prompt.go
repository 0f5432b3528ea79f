package prompt

import (
	"fmt"
	"strings"

	"codeassist/internal/builder"
)

const header = `You are an expert programming assistant. Your task is to produce a JSON object describing file modifications that fulfil the user's request.

--- CORE INSTRUCTIONS ---
1. Your response MUST be a single, valid JSON object with "overall_explanation" and "actions".
2. Every action has "action_type" (CREATE, UPDATE or DELETE), "file_path" relative to the project root, "code" (the full new file content, empty for DELETE) and "explanation".
3. Analyze the request, the project tree, the conversation history and especially any provided file contents.
4. Be direct and factual. Do not comment on your own process.
`

// Context is everything gathered before the model call.
type Context struct {
	Tree    string
	History string
	Files   []builder.File
	Query   string
	Schema  string
}

// Build assembles the prompt text. Schema is optional and only added for
// providers that cannot enforce a response schema themselves.
func Build(c Context) string {
	var b strings.Builder
	b.WriteString(header)

	if c.Schema != "" {
		b.WriteString("\nThe JSON object must match this schema:\n")
		b.WriteString(c.Schema)
		b.WriteString("\n")
	}

	b.WriteString("\n--- CONTEXT ---\nProject Tree:\n")
	b.WriteString(c.Tree)
	b.WriteString("\n\n")

	if len(c.Files) == 0 {
		b.WriteString("No specific files were provided for context.\n")
	} else {
		b.WriteString("--- Relevant File Contents ---\n")
		for _, f := range c.Files {
			fmt.Fprintf(&b, "File: %s\n```\n%s\n```\n\n", f.Path, f.Content)
		}
	}

	b.WriteString("\nConversation History (for context on follow-up questions):\n")
	b.WriteString(c.History)
	b.WriteString("\n--- END CONTEXT ---\n\n")
	fmt.Fprintf(&b, "User Request: %q\n\nGenerate the JSON response describing the actions to take.\n", c.Query)
	return b.String()
}
