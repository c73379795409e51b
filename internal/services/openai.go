package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/RagnarAgustsson/HandritiB/internal/config"
	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// OpenAIService wraps the transcription and summarization capabilities
// the pipeline depends on.
type OpenAIService struct {
	client          *openai.Client
	transcribeModel string
	notesModel      string
	language        string
}

func NewOpenAIService(cfg config.Config) *OpenAIService {
	return &OpenAIService{
		client:          openai.NewClient(cfg.OpenAIAPIKey),
		transcribeModel: cfg.OpenAIModelTranscribe,
		notesModel:      cfg.OpenAIModelNotes,
		language:        cfg.TranscribeLanguage,
	}
}

// Transcribe sends one audio piece to the speech model and returns the
// recognized text. The service tolerates partial container fragments, so
// byte-sliced pieces are acceptable input.
func (s *OpenAIService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.transcribeModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: s.language,
		Prompt:   transcribeGuidance,
	})
	if err != nil {
		return "", fmt.Errorf("create transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// notesPayload is the JSON contract the notes completion must follow.
// "notes" may arrive as an array of items or as one pre-joined string.
type notesPayload struct {
	Notes          json.RawMessage `json:"notes"`
	RollingSummary string          `json:"rollingSummary"`
}

// GenerateNotes runs the structured notes completion for one transcript,
// with up to ContextWindow prior transcripts as context. It returns the
// bulleted note text and the cumulative rolling summary.
func (s *OpenAIService) GenerateNotes(ctx context.Context, transcript string, profile domain.Profile, prior []string) (string, string, error) {
	var parts []string
	if ctxBlock := ContextBlock(prior); ctxBlock != "" {
		parts = append(parts, ctxBlock)
	}
	parts = append(parts, latestMarker+"\n"+strings.TrimSpace(transcript))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.notesModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: notesSystemPrompt(profile)},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(parts, contextSeparator)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", "", fmt.Errorf("create notes completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", errors.New("no choices in notes completion")
	}

	var payload notesPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return "", "", fmt.Errorf("parse notes payload: %w", err)
	}

	notes, err := renderNotes(payload.Notes)
	if err != nil {
		return "", "", err
	}
	return notes, payload.RollingSummary, nil
}

// renderNotes normalizes the "notes" field into one bulleted string.
func renderNotes(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, "• "+item)
		}
		return strings.Join(lines, "\n"), nil
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return joined, nil
	}
	return "", fmt.Errorf("notes field is neither array nor string: %s", string(raw))
}

// GenerateFinalSummary runs one free-text completion over all transcripts
// of a finished session. Unlike per-chunk notes the input is not windowed.
func (s *OpenAIService) GenerateFinalSummary(ctx context.Context, transcripts []string, profile domain.Profile) (string, error) {
	clean := SanitizeTranscripts(transcripts)
	if len(clean) == 0 {
		return "", nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.notesModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: finalSummarySystemPrompt(profile)},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(clean, "\n\n")},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("create final summary completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in final summary completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
