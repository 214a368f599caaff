package agent

import (
	"fmt"
	"strings"
	"text/template"
)

const promptTemplate = `You are a support agent. Task title: {{.Title}}. Description: {{.Description}}. Provide a concise response.` +
	`{{if .Input}} Additional input: {{.Input}}{{end}}`

var prompt = template.Must(template.New("prompt").Parse(promptTemplate))

type promptData struct {
	Title       string
	Description string
	Input       string
}

// RenderPrompt fills the prompt template. Input is appended only when it is
// not blank.
func RenderPrompt(title, description, input string) (string, error) {
	var b strings.Builder
	err := prompt.Execute(&b, promptData{
		Title:       title,
		Description: description,
		Input:       strings.TrimSpace(input),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
