// Package nlu turns driver utterances into validated intent classifications
// and answers free-form questions through the chat completion API.
package nlu

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

const (
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.1
)

type Classifier struct {
	client      openai.Client
	model       string
	temperature float64
	system      string
}

func NewClassifier(client openai.Client, model string, names []string) *Classifier {
	if model == "" {
		model = DefaultModel
	}
	return &Classifier{
		client:      client,
		model:       model,
		temperature: DefaultTemperature,
		system:      classifyPrompt(names),
	}
}

// Classify maps an utterance to its categories. Output that is not a JSON
// object yields ErrMalformedIntent.
func (c *Classifier) Classify(ctx context.Context, utterance string) (Classification, error) {
	content, err := c.complete(ctx, c.system, utterance)
	if err != nil {
		return Classification{}, err
	}

	log.Debug("Classified", "data", content)

	return ParseClassification(content)
}

// PlaceType reduces a request like "where can I buy bread" to a short place type.
func (c *Classifier) PlaceType(ctx context.Context, utterance, hint string) (string, error) {
	if hint == "" {
		hint = utterance
	}

	content, err := c.complete(ctx, placeTypePrompt(hint), utterance)
	if err != nil {
		return "", err
	}

	place := cleanPlaceType(content)
	if place == "" {
		return "", fmt.Errorf("empty place type (raw: %s)", content)
	}
	return place, nil
}

// Chat answers the utterance with the assistant persona.
func (c *Classifier) Chat(ctx context.Context, utterance string) (string, error) {
	return c.complete(ctx, persona, utterance)
}

func (c *Classifier) complete(ctx context.Context, system, utterance string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(delimit(utterance)),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}

	return content, nil
}

func cleanPlaceType(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "A:")
	s = strings.Trim(s, " \t\r\n\"'.")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
