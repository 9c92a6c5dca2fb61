package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
	"github.com/sahlastore/assistant-server-go/internal/model"
)

// Config holds the AI collaborator configuration.
type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	TranscribeModel string
	SpeechModel     string
	SpeechVoice     string
	Timeout         time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		ChatModel:       "gpt-4o-mini",
		TranscribeModel: "whisper-1",
		SpeechModel:     "tts-1",
		SpeechVoice:     "alloy",
		Timeout:         20 * time.Second,
	}
}

// Client wraps the OpenAI API behind the narrow collaborator contracts the
// router depends on. Single attempt per call: the turn-level policy is
// fallback-on-failure, never retry.
type Client struct {
	client *openai.Client
	config *Config
}

func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = "whisper-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "tts-1"
	}
	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = "alloy"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

const classifyPrompt = `You label customer-service messages for an online store.
Reply with exactly one of these labels and nothing else:
order_query, product_query, complaint, social_link, general

order_query: asking about an existing order or delivery
product_query: asking about products, prices or availability
complaint: unhappy about an order, product or the service
social_link: the message is mainly a social media link
general: anything else`

// Classify returns the raw intent label for an utterance. Mapping to the
// closed intent set (and the degrade-to-general rule) stays with the caller.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("classifier", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.CollaboratorUnavailable("classifier", fmt.Errorf("empty response"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const conversePrompt = `You are the customer-service assistant of an online store.
Answer briefly and helpfully, in the customer's language. If you do not know
something store-specific, say so and offer to connect a human agent.`

// Converse produces a conversational reply, seeding the exchange with the
// customer's recent history.
func (c *Client) Converse(ctx context.Context, text string, history []model.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: conversePrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.config.ChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("converse", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.CollaboratorUnavailable("converse", fmt.Errorf("empty response"))
	}

	return resp.Choices[0].Message.Content, nil
}

// Describe returns a short textual description of the image at the given URL.
func (c *Client) Describe(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Describe what the customer sent in this image, in one or two sentences. If it shows a product, name it.",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		MaxTokens: 120,
	})
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("vision", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.CollaboratorUnavailable("vision", fmt.Errorf("empty response"))
	}

	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts downloaded audio bytes to text. fileName is a hint for
// the codec (e.g. "voice.ogg").
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.config.TranscribeModel,
		Reader:   bytes.NewReader(audio),
		FilePath: fileName,
	})
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("transcriber", err)
	}

	return resp.Text, nil
}

// Synthesize converts reply text to audio bytes (mp3).
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.config.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.config.SpeechVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, apperrors.CollaboratorUnavailable("speech", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, apperrors.CollaboratorUnavailable("speech", err)
	}

	return audio, nil
}
