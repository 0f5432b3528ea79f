package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"codeassist/internal/model"
)

var (
	ErrNoJSON          = errors.New("no JSON object found")
	ErrInvalidJSON     = errors.New("invalid JSON")
	ErrMissingKeys     = errors.New("missing required keys")
	ErrMalformedAction = errors.New("malformed action")
)

var (
	responseKeys = []string{"overall_explanation", "actions"}
	actionKeys   = []string{"action_type", "file_path", "code", "explanation"}
)

// ParseError keeps the raw model output next to the failure so it can be shown to the user.
type ParseError struct {
	Kind   error
	Detail string
	Raw    string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *ParseError) Unwrap() error { return e.Kind }

// Parse extracts the outermost {...} block from text and validates it as a Response.
// Model output usually arrives wrapped in prose or code fences, so the whole string
// is never decoded directly. Nothing is returned unless every action is well formed.
func Parse(text string) (*model.Response, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ParseError{Kind: ErrNoJSON, Raw: text}
	}
	block := []byte(text[start : end+1])

	var top map[string]json.RawMessage
	if err := json.Unmarshal(block, &top); err != nil {
		return nil, &ParseError{Kind: ErrInvalidJSON, Detail: err.Error(), Raw: text}
	}

	if missing := missingKeys(top, responseKeys); len(missing) > 0 {
		return nil, &ParseError{
			Kind:   ErrMissingKeys,
			Detail: strings.Join(missing, ", "),
			Raw:    text,
		}
	}

	rawActions := bytes.TrimSpace(top["actions"])
	if bytes.Equal(rawActions, []byte("null")) {
		return nil, &ParseError{Kind: ErrMalformedAction, Detail: "actions is null", Raw: text}
	}
	var actions []json.RawMessage
	if err := json.Unmarshal(rawActions, &actions); err != nil {
		return nil, &ParseError{Kind: ErrMalformedAction, Detail: "actions is not an array", Raw: text}
	}

	for i, raw := range actions {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, &ParseError{
				Kind:   ErrMalformedAction,
				Detail: fmt.Sprintf("action %d is not an object: %s", i, compact(raw)),
				Raw:    text,
			}
		}
		if missing := missingKeys(fields, actionKeys); len(missing) > 0 {
			return nil, &ParseError{
				Kind:   ErrMalformedAction,
				Detail: fmt.Sprintf("action %d missing %s: %s", i, strings.Join(missing, ", "), compact(raw)),
				Raw:    text,
			}
		}
	}

	var resp model.Response
	if err := json.Unmarshal(block, &resp); err != nil {
		return nil, &ParseError{Kind: ErrMalformedAction, Detail: err.Error(), Raw: text}
	}
	if resp.Actions == nil {
		resp.Actions = []model.CodeAction{}
	}
	return &resp, nil
}

func missingKeys(obj map[string]json.RawMessage, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// StripRootPrefix rewrites paths the model wrote as "<root>/file" into "file".
// The model sees the tree rendered with the root folder as its first line and
// often copies it into file_path.
func StripRootPrefix(resp *model.Response, rootName string) {
	if resp == nil || rootName == "" {
		return
	}
	prefix := rootName + "/"
	for i := range resp.Actions {
		p := strings.ReplaceAll(resp.Actions[i].FilePath, "\\", "/")
		if strings.HasPrefix(p, prefix) {
			resp.Actions[i].FilePath = resp.Actions[i].FilePath[len(prefix):]
		}
	}
}
