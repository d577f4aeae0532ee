package gemini

import "context"

// Generator turns a prompt into free-form text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// GenerateResponse mirrors only the fields the client reads. Pointers let a
// missing level be told apart from an empty one.
type GenerateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

// FirstText returns candidates[0].content.parts[0].text.
func (r *GenerateResponse) FirstText() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].Text == nil {
		return "", false
	}
	return *content.Parts[0].Text, true
}

// NewUserRequest wraps prompt as one user-role content item.
func NewUserRequest(prompt string) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: prompt}},
		}},
	}
}
