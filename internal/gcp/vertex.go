package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// AltTextSystemPrompt instructs the model to describe an uploaded site image.
const AltTextSystemPrompt = "You write alt text for images on an engineering consultancy's marketing website. Describe what the image shows in one plain sentence of at most 20 words. Do not start with 'Image of' or 'Picture of'."

const altTextUserPrompt = "Write the alt text for this image."

// AltTextModel suggests alt text for images stored in Cloud Storage.
type AltTextModel struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewAltTextModel creates a Gemini model configured for short image descriptions.
func NewAltTextModel(ctx context.Context, projectID, region, modelName string) (*AltTextModel, error) {
	if projectID == "" || region == "" || modelName == "" {
		return nil, fmt.Errorf("NewAltTextModel: projectID, region and modelName cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AltTextSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: genai.Ptr[int32](64),
	}

	return &AltTextModel{model: model, baseClient: baseClient}, nil
}

// Describe returns a one-sentence description of the object at gcsURI.
func (m *AltTextModel) Describe(ctx context.Context, gcsURI, mimeType string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.FileData{MIMEType: mimeType, FileURI: gcsURI}, genai.Text(altTextUserPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate alt text: %w", err)
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

func (m *AltTextModel) Close() error {
	if m.baseClient != nil {
		return m.baseClient.Close()
	}
	return nil
}
