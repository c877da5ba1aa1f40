package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

const labelPrompt = `This image is one square cut from a bingo card.
Transcribe the text printed in it exactly as written, joining lines with single spaces.
If the square holds no text, answer with an empty string.
Reply with the text only, without quotes or commentary.`

// GeminiLabeler reads square text with Gemini on Vertex AI.
type GeminiLabeler struct {
	client *genai.Client
	model  string
}

// NewGeminiLabeler creates a labeler using Application Default
// Credentials. Empty region and model select the defaults.
func NewGeminiLabeler(ctx context.Context, projectID, region, model string) (*GeminiLabeler, error) {
	if projectID == "" {
		return nil, fmt.Errorf("gemini labeler needs a GCP project")
	}
	if region == "" {
		region = defaultRegion
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiLabeler{client: client, model: model}, nil
}

// Close implements Labeler.
func (g *GeminiLabeler) Close() error {
	return nil
}

// Label implements Labeler.
func (g *GeminiLabeler) Label(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode square: %w", err)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: labelPrompt},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: buf.Bytes()}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
			TopP:        genai.Ptr(float32(1)),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return Clean(unquote(resp.Text())), nil
}

// unquote strips one pair of surrounding quotes the model sometimes adds.
func unquote(s string) string {
	s = Clean(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
