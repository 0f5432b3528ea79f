package response

import (
	"encoding/json"

	"google.golang.org/genai"

	"codeassist/internal/model"
)

// Schema describes Response for Gemini structured output.
func Schema() *genai.Schema {
	action := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action_type": {
				Type: genai.TypeString,
				Enum: []string{
					string(model.ActionCreate),
					string(model.ActionUpdate),
					string(model.ActionDelete),
				},
			},
			"file_path": {
				Type:        genai.TypeString,
				Description: "Path relative to the project root.",
			},
			"code": {
				Type:        genai.TypeString,
				Description: "Full file content for CREATE and UPDATE. Empty for DELETE.",
			},
			"explanation": {
				Type:        genai.TypeString,
				Description: "Why this change is needed.",
			},
		},
		Required:         actionKeys,
		PropertyOrdering: actionKeys,
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overall_explanation": {
				Type:        genai.TypeString,
				Description: "High-level summary of the plan.",
			},
			"actions": {
				Type:  genai.TypeArray,
				Items: action,
			},
		},
		Required:         responseKeys,
		PropertyOrdering: responseKeys,
	}
}

// JSONSchema is the same contract as a plain JSON Schema document, for providers
// that only accept a schema as text in the prompt.
func JSONSchema() string {
	doc := map[string]any{
		"type":     "object",
		"required": responseKeys,
		"properties": map[string]any{
			"overall_explanation": map[string]any{"type": "string"},
			"actions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": actionKeys,
					"properties": map[string]any{
						"action_type": map[string]any{
							"type": "string",
							"enum": []string{"CREATE", "UPDATE", "DELETE"},
						},
						"file_path":   map[string]any{"type": "string"},
						"code":        map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
	b, _ := json.MarshalIndent(doc, "", "  ")
	return string(b)
}
