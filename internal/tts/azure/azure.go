// Package azure speaks through Azure neural voices on the default speaker.
package azure

import (
	"context"
	"fmt"
	log "log/slog"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"rita/internal/tts"
)

const DefaultVoice = "en-US-AvaNeural"

type Speaker struct {
	key    string
	region string
	voice  string
}

func New(key, region, voice string) *Speaker {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Speaker{key: key, region: region, voice: voice}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if s.key == "" || s.region == "" {
		return fmt.Errorf("azure speech key or region: %w", tts.ErrMissingCredentials)
	}
	if text == "" {
		return nil
	}

	cfg, err := speech.NewSpeechConfigFromSubscription(s.key, s.region)
	if err != nil {
		return fmt.Errorf("speech config: %w", err)
	}
	defer cfg.Close()

	if err := cfg.SetSpeechSynthesisVoiceName(s.voice); err != nil {
		return fmt.Errorf("set voice %s: %w", s.voice, err)
	}

	out, err := audio.NewAudioConfigFromDefaultSpeakerOutput()
	if err != nil {
		return fmt.Errorf("speaker output: %w", err)
	}
	defer out.Close()

	synth, err := speech.NewSpeechSynthesizerFromConfig(cfg, out)
	if err != nil {
		return fmt.Errorf("synthesizer: %w", err)
	}
	defer synth.Close()

	var outcome speech.SpeechSynthesisOutcome
	select {
	case outcome = <-synth.SpeakTextAsync(text):
	case <-ctx.Done():
		return ctx.Err()
	}
	defer outcome.Close()

	if outcome.Error != nil {
		return fmt.Errorf("speak: %w", outcome.Error)
	}

	switch outcome.Result.Reason {
	case common.SynthesizingAudioCompleted:
		log.Info("Speech synthesized", "engine", "azure", "voice", s.voice, "chars", len(text))
		return nil

	case common.Canceled:
		details, err := speech.NewCancellationDetailsFromSpeechSynthesisResult(outcome.Result)
		if err != nil {
			return fmt.Errorf("speech synthesis canceled: %w", err)
		}
		if details.Reason == common.Error && details.ErrorDetails != "" {
			return fmt.Errorf("speech synthesis canceled: %s", details.ErrorDetails)
		}
		return fmt.Errorf("speech synthesis canceled: %v", details.Reason)
	}

	return fmt.Errorf("unexpected synthesis result: %v", outcome.Result.Reason)
}
