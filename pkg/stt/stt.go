// Package stt converts recorded speech to text.
package stt

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel      = "whisper"
	DefaultLanguage   = "en"
	DefaultAPIVersion = "2023-09-01-preview"
)

// Transcriber returns the best-effort transcript of an audio file.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// Remote transcribes through a hosted Whisper deployment.
type Remote struct {
	client   openai.Client
	model    string
	language string
}

func NewRemote(client openai.Client, model, language string) *Remote {
	if model == "" {
		model = DefaultModel
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &Remote{client: client, model: model, language: language}
}

// NewAzureClient builds a client for an Azure OpenAI resource. The model
// name passed to NewRemote is the deployment name.
func NewAzureClient(endpoint, apiKey, apiVersion string, httpClient *http.Client) (openai.Client, error) {
	if endpoint == "" || apiKey == "" {
		return openai.Client{}, errors.New("azure whisper endpoint and key are required")
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return openai.NewClient(opts...), nil
}

func (r *Remote) TranscribeFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	res, err := r.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     f,
		Model:    openai.AudioModel(r.model),
		Language: openai.String(r.language),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(res.Text)
	log.Info("Transcribed", "text", text)
	return text, nil
}
