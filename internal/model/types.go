package model

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var ErrInvalidRole = errors.New("role must be 'user' or 'model'")

// Message is one turn of the conversation fed back into the prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewMessage(role Role, content string) (Message, error) {
	if role != RoleUser && role != RoleModel {
		return Message{}, fmt.Errorf("%w: got %q", ErrInvalidRole, role)
	}
	return Message{Role: role, Content: content}, nil
}

type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// CodeAction is a single file mutation requested by the model.
// Code is ignored for DELETE.
type CodeAction struct {
	ActionType  ActionType `json:"action_type"`
	FilePath    string     `json:"file_path"`
	Code        string     `json:"code"`
	Explanation string     `json:"explanation"`
}

func (a CodeAction) String() string {
	return fmt.Sprintf("%s %s", a.ActionType, a.FilePath)
}

type Response struct {
	OverallExplanation string       `json:"overall_explanation"`
	Actions            []CodeAction `json:"actions"`
}

type Scripts struct {
	Test  string `yaml:"test,omitempty" json:"test,omitempty"`
	Build string `yaml:"build,omitempty" json:"build,omitempty"`
}

// Config is built once at startup and handed to each component.
type Config struct {
	Root            string   `yaml:"root" json:"root"`
	Ignore          []string `yaml:"ignore" json:"ignore"`
	UseIgnoreFiles  bool     `yaml:"use_ignore_files" json:"use_ignore_files"`
	Provider        string   `yaml:"provider" json:"provider"`
	Model           string   `yaml:"model" json:"model"`
	APIKeys         []string `yaml:"api_keys" json:"api_keys"`
	Temperature     float32  `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int      `yaml:"max_output_tokens" json:"max_output_tokens"`
	ModelTimeout    string   `yaml:"model_timeout" json:"model_timeout"`
	HistoryWindow   int      `yaml:"history_window" json:"history_window"`
	RelevantBudget  int      `yaml:"relevant_budget" json:"relevant_budget"`
	Journal         string   `yaml:"journal" json:"journal"`
	LogLevel        string   `yaml:"log_level" json:"log_level"`
	Scripts         Scripts  `yaml:"scripts" json:"scripts"`
}
