// Package llm adapts Gemini for the pipeline: plain text, strict JSON, and
// multimodal video calls. Live graph stages call these once and degrade on
// failure; the batch generation commands wrap them with pkg/retry.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	qamodel "github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Model is the adapter contract consumed by the graph stages and the batch
// commands. All calls may fail with a generic error.
type Model interface {
	CallText(ctx context.Context, prompt string) (string, error)
	CallJSON(ctx context.Context, prompt string) (map[string]any, error)
	CallVideo(ctx context.Context, prompt, remoteURI string) (string, error)
	CallVideoWithImage(ctx context.Context, prompt, remoteURI, imagePath string) (string, error)
}

// Gemini implements Model. Text and JSON calls go through the eino gemini
// chat model; video calls use the genai client directly because FileData
// parts are not expressible through the chat path.
type Gemini struct {
	chat   *gemini.ChatModel
	client *genai.Client
	model  string
}

// NewGemini builds the client against Vertex AI when a project is
// configured (required for gs:// video URIs) and the Gemini API otherwise.
func NewGemini(ctx context.Context, cfg qamodel.LLMConfig) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{}
	if cfg.Project != "" {
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	} else {
		clientCfg.Backend = genai.BackendGeminiAPI
		clientCfg.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	logx.Info().Str("model", cfg.Model).Msg("Initialized Gemini adapter")
	return &Gemini{chat: chat, client: client, model: cfg.Model}, nil
}

func (g *Gemini) CallText(ctx context.Context, prompt string) (string, error) {
	out, err := g.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("text call: %w", err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("text call: empty response")
	}
	return strings.TrimSpace(out.Content), nil
}

func (g *Gemini) CallJSON(ctx context.Context, prompt string) (map[string]any, error) {
	jsonPrompt := prompt + "\n\nIMPORTANT: Return ONLY valid JSON. No prose, no explanations, no markdown formatting."
	text, err := g.CallText(ctx, jsonPrompt)
	if err != nil {
		return nil, err
	}
	obj, err := ExtractJSONObject(text)
	if err != nil {
		logx.Warn().Err(err).Msg("Model returned unparseable JSON")
		return nil, fmt.Errorf("json call: %w", err)
	}
	return obj, nil
}

func (g *Gemini) CallVideo(ctx context.Context, prompt, remoteURI string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(remoteURI, "video/mp4"),
		genai.NewPartFromText(prompt),
	}
	return g.generateParts(ctx, parts)
}

func (g *Gemini) CallVideoWithImage(ctx context.Context, prompt, remoteURI, imagePath string) (string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read reference image: %w", err)
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(img, imageMIME(imagePath)),
		genai.NewPartFromURI(remoteURI, "video/mp4"),
	}
	return g.generateParts(ctx, parts)
}

func (g *Gemini) generateParts(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("video call: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("video call: empty response")
	}
	return text, nil
}

func imageMIME(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
