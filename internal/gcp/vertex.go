package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Screening Model Prompts ---
const ScreeningSystemPrompt = "You are an admissions office assistant. You read documents submitted by school applicants and write short, factual notes for the staff member who reviews them. You never make admission or hiring decisions."
const ScreeningUserPrompt = `The attached file was uploaded by an applicant as their "%s".

Write at most three sentences for the reviewer:
1. State whether the file appears to be that kind of document.
2. Note the name printed on it, and any issue date or expiry date you can read.
3. Mention anything that makes it hard to review (unreadable pages, missing signatures, cropped content).

Return plain text only. Do not add headings or a preamble.`

// ScreeningClient wraps the generative model used to pre-read requirement files.
type ScreeningClient struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewScreeningClient creates the screening model client.
func NewScreeningClient(ctx context.Context, projectID, region, modelName string) (*ScreeningClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewScreeningClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ScreeningSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: genai.Ptr[int32](256),
	}

	return &ScreeningClient{model: model, baseClient: baseClient}, nil
}

// Summarize asks the model for reviewer notes about the file at gcsURI.
func (c *ScreeningClient) Summarize(ctx context.Context, gcsURI, mimeType, requirementLabel string) (string, error) {
	filePart := genai.FileData{MIMEType: mimeType, FileURI: gcsURI}
	prompt := genai.Text(fmt.Sprintf(ScreeningUserPrompt, requirementLabel))

	resp, err := c.model.GenerateContent(ctx, filePart, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate screening notes: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *ScreeningClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
