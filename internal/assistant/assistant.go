package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"rita/internal/hmi"
	"rita/internal/nlu"
	"rita/internal/tts"
)

const (
	DefaultPause = time.Second
	inboxSize    = 8
)

// ErrBadInput marks a control-socket input that could not be turned into an
// utterance. The turn is dropped and the loop keeps running.
var ErrBadInput = errors.New("bad injected input")

type Recorder interface {
	Record(ctx context.Context, path string) error
}

type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, utterance string) (nlu.Classification, error)
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Chime interface {
	Play(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, m hmi.Message) error
}

// Input overrides the microphone for one turn. Text skips transcription,
// Path transcribes an existing file.
type Input struct {
	Text string
	Path string
}

// Deps are the collaborators of a turn. Ducker, Chime and HMI are optional.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Classifier  Classifier
	Router      *Router
	Speaker     tts.Speaker
	Ducker      Ducker
	Chime       Chime
	HMI         Publisher
}

type Options struct {
	File  string
	Pause time.Duration
}

// Assistant runs the listen, classify, route and speak cycle.
type Assistant struct {
	Deps
	file  string
	pause time.Duration
	inbox chan Input
}

func New(d Deps, opt Options) *Assistant {
	if opt.File == "" {
		opt.File = "my_recording.wav"
	}
	if opt.Pause <= 0 {
		opt.Pause = DefaultPause
	}
	return &Assistant{
		Deps:  d,
		file:  opt.File,
		pause: opt.Pause,
		inbox: make(chan Input, inboxSize),
	}
}

// Submit queues an input for the next turn. It reports false when the queue
// is full.
func (a *Assistant) Submit(in Input) bool {
	select {
	case a.inbox <- in:
		return true
	default:
		log.Warn("Input queue full, dropping", "text", in.Text, "path", in.Path)
		return false
	}
}

// Run loops until ctx is done or a turn fails with an unrecoverable error.
func (a *Assistant) Run(ctx context.Context) error {
	fmt.Println("Press Ctrl+C to exit")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := a.Turn(ctx, a.next()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.pause):
		}
	}
}

func (a *Assistant) next() Input {
	select {
	case in := <-a.inbox:
		return in
	default:
		return Input{}
	}
}

// Turn handles one utterance. Recoverable failures are logged and swallowed.
func (a *Assistant) Turn(ctx context.Context, in Input) error {
	utterance, err := a.listen(ctx, in)
	if err != nil {
		return err
	}
	if utterance == "" {
		log.Info("Nothing heard")
		return nil
	}
	log.Info("You said", "text", utterance)

	reply, err := a.Respond(ctx, utterance)
	if err != nil {
		if Recoverable(err) {
			log.Warn("Dropping utterance", "err", err)
			return nil
		}
		return err
	}
	log.Info("RITA", "text", reply.Text, "action", reply.Action.Kind)

	a.publish(ctx, utterance, reply)
	a.speak(ctx, reply.Text)
	return nil
}

// Respond classifies the utterance and routes it.
func (a *Assistant) Respond(ctx context.Context, utterance string) (Reply, error) {
	c, err := a.Classifier.Classify(ctx, utterance)
	if err != nil {
		return Reply{}, err
	}
	if c.Empty() {
		log.Debug("No known category, falling back to chat")
	}
	return a.Router.Route(ctx, utterance, c)
}

func (a *Assistant) listen(ctx context.Context, in Input) (string, error) {
	switch {
	case in.Text != "":
		return in.Text, nil
	case in.Path != "":
		text, err := a.Transcriber.TranscribeFile(ctx, in.Path)
		if err != nil && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %s: %w", ErrBadInput, in.Path, err)
		}
		return text, err
	}

	if a.Chime != nil {
		if err := a.Chime.Play(ctx); err != nil {
			log.Warn("Chime failed", "err", err)
		}
	}

	restore := a.duck(ctx)
	err := a.Recorder.Record(ctx, a.file)
	restore()
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	return a.Transcriber.TranscribeFile(ctx, a.file)
}

func (a *Assistant) speak(ctx context.Context, text string) {
	if text == "" || a.Speaker == nil {
		return
	}

	restore := a.duck(ctx)
	defer restore()

	if err := a.Speaker.Speak(ctx, text); err != nil {
		if errors.Is(err, tts.ErrMissingCredentials) {
			log.Warn("Speech skipped", "err", err)
			return
		}
		log.Error("Failed to voice out", "err", err)
	}
}

func (a *Assistant) publish(ctx context.Context, utterance string, r Reply) {
	if a.HMI == nil {
		return
	}
	if err := a.HMI.Publish(ctx, hmi.Turn(utterance, string(r.Action.Kind), r.Text)); err != nil {
		log.Warn("HMI publish failed", "err", err)
	}
}

func (a *Assistant) duck(ctx context.Context) func() {
	if a.Ducker == nil {
		return func() {}
	}
	if err := a.Ducker.Duck(ctx); err != nil {
		log.Warn("Duck failed", "err", err)
	}
	return func() {
		if err := a.Ducker.Restore(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Restore volume failed", "err", err)
		}
	}
}
