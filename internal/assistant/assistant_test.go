package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rita/internal/nlu"
	"rita/internal/tts"
)

type pipeline struct {
	*fixture
	rec     *mockRecorder
	stt     *mockTranscriber
	cls     *mockClassifier
	speaker *mockSpeaker
	ducker  *mockDucker
	chime   *mockChime
	hmi     *mockHMI
	a       *Assistant
}

func newPipeline(t *testing.T) *pipeline {
	p := &pipeline{
		fixture: newFixture(t),
		rec:     &mockRecorder{},
		stt:     &mockTranscriber{text: "hi, I'm Vito"},
		cls:     &mockClassifier{raw: `{"welcome command Vito": true}`},
		speaker: &mockSpeaker{},
		ducker:  &mockDucker{},
		chime:   &mockChime{},
		hmi:     &mockHMI{},
	}
	p.a = New(Deps{
		Recorder:    p.rec,
		Transcriber: p.stt,
		Classifier:  p.cls,
		Router:      p.router,
		Speaker:     p.speaker,
		Ducker:      p.ducker,
		Chime:       p.chime,
		HMI:         p.hmi,
	}, Options{File: "turn.wav", Pause: time.Millisecond})
	return p
}

func TestTurn_Microphone(t *testing.T) {
	p := newPipeline(t)

	require.NoError(t, p.a.Turn(context.Background(), Input{}))

	assert.Equal(t, 1, p.chime.played)
	assert.Equal(t, []string{"turn.wav"}, p.rec.paths)
	assert.Equal(t, []string{"turn.wav"}, p.stt.paths)
	assert.Equal(t, []string{"hi, I'm Vito"}, p.cls.inputs)
	require.Len(t, p.seat.applied, 1)
	assert.Equal(t, "Vito", p.seat.applied[0].Name)

	want := fmt.Sprintf(MsgWelcome, "Vito")
	assert.Equal(t, []string{want}, p.speaker.said)
	assert.Equal(t, []string{"duck", "restore", "duck", "restore"}, p.ducker.calls)

	require.Len(t, p.hmi.sent, 1)
	assert.Equal(t, "hi, I'm Vito", p.hmi.sent[0].Transcript)
	assert.Equal(t, "welcome", p.hmi.sent[0].Action)
	assert.Equal(t, want, p.hmi.sent[0].Content)
}

func TestTurn_TextSkipsCapture(t *testing.T) {
	p := newPipeline(t)
	p.cls.raw = `{"entertainment command": true}`

	require.NoError(t, p.a.Turn(context.Background(), Input{Text: "play some jazz"}))

	assert.Empty(t, p.rec.paths)
	assert.Empty(t, p.stt.paths)
	assert.Zero(t, p.chime.played)
	assert.Equal(t, []string{"play some jazz"}, p.lang.chatInputs)
	assert.Equal(t, []string{"Sure, here is a podcast."}, p.speaker.said)
}

func TestTurn_FileSkipsRecording(t *testing.T) {
	p := newPipeline(t)

	require.NoError(t, p.a.Turn(context.Background(), Input{Path: "/tmp/clip.ogg"}))

	assert.Empty(t, p.rec.paths)
	assert.Equal(t, []string{"/tmp/clip.ogg"}, p.stt.paths)
	assert.Len(t, p.speaker.said, 1)
}

func TestTurn_RecoverableErrorsAreSwallowed(t *testing.T) {
	tests := []struct {
		name string
		cls  *mockClassifier
		prep func(p *pipeline)
	}{
		{
			name: "malformed classifier output",
			cls:  &mockClassifier{raw: "I am not JSON"},
		},
		{
			name: "no places",
			cls:  &mockClassifier{raw: `{"service location command": "pharmacy"}`},
			prep: func(p *pipeline) {
				p.lang.placeType = "pharmacy"
				p.places.places = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			p.a.Classifier = tt.cls
			if tt.prep != nil {
				tt.prep(p)
			}

			require.NoError(t, p.a.Turn(context.Background(), Input{Text: "hello"}))
			assert.Empty(t, p.speaker.said)
			assert.Empty(t, p.hmi.sent)
		})
	}
}

func TestTurn_FatalErrorsPropagate(t *testing.T) {
	p := newPipeline(t)
	p.cls.err = errors.New("llm unreachable")

	err := p.a.Turn(context.Background(), Input{Text: "hello"})
	assert.ErrorContains(t, err, "llm unreachable")
}

func TestTurn_FileErrorIsDropped(t *testing.T) {
	p := newPipeline(t)
	_, openErr := os.Open(filepath.Join(t.TempDir(), "nope.wav"))
	p.stt.err = openErr

	err := p.a.Turn(context.Background(), Input{Path: "/nope.wav"})
	assert.NoError(t, err)
	assert.Empty(t, p.cls.inputs)
	assert.Empty(t, p.speaker.said)
}

func TestRun_SurvivesBadInjectedFile(t *testing.T) {
	p := newPipeline(t)
	p.cls.raw = `{"route command": true}`
	p.a.Submit(Input{Path: "/nope.wav"})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p.a.Transcriber = transcriberFunc(func(_ context.Context, path string) (string, error) {
		calls++
		if path == "/nope.wav" {
			return "", errors.New("open /nope.wav: no such file or directory")
		}
		cancel()
		return "take me home", nil
	})

	require.NoError(t, p.a.Run(ctx))
	assert.Equal(t, 2, calls)
}

func TestTurn_RecordFailure(t *testing.T) {
	p := newPipeline(t)
	p.rec.err = errors.New("no input device")

	err := p.a.Turn(context.Background(), Input{})
	assert.ErrorContains(t, err, "no input device")
	assert.Empty(t, p.stt.paths)
	assert.Equal(t, []string{"duck", "restore"}, p.ducker.calls)
}

func TestTurn_SpeechErrorsAreNotFatal(t *testing.T) {
	for _, err := range []error{tts.ErrMissingCredentials, errors.New("speaker busy")} {
		p := newPipeline(t)
		p.speaker.err = err

		assert.NoError(t, p.a.Turn(context.Background(), Input{Text: "hello"}))
		assert.Len(t, p.hmi.sent, 1)
	}
}

func TestTurn_EmptyTranscript(t *testing.T) {
	p := newPipeline(t)
	p.stt.text = ""

	require.NoError(t, p.a.Turn(context.Background(), Input{}))
	assert.Empty(t, p.cls.inputs)
}

func TestTurn_OptionalCollaborators(t *testing.T) {
	p := newPipeline(t)
	a := New(Deps{
		Recorder:    p.rec,
		Transcriber: p.stt,
		Classifier:  p.cls,
		Router:      p.router,
		Speaker:     p.speaker,
	}, Options{})

	require.NoError(t, a.Turn(context.Background(), Input{}))
	assert.Equal(t, []string{"my_recording.wav"}, p.rec.paths)
	assert.Len(t, p.speaker.said, 1)
}

func TestRespond(t *testing.T) {
	p := newPipeline(t)
	p.cls.raw = `{"route command": true}`

	reply, err := p.a.Respond(context.Background(), "let's go")
	require.NoError(t, err)
	assert.Equal(t, KindRoute, reply.Action.Kind)
	assert.Equal(t, MsgRouteReady, reply.Text)
}

func TestSubmit_QueueBound(t *testing.T) {
	p := newPipeline(t)
	for i := 0; i < inboxSize; i++ {
		assert.True(t, p.a.Submit(Input{Text: "x"}))
	}
	assert.False(t, p.a.Submit(Input{Text: "overflow"}))
}

func TestRun_ConsumesQueuedInputFirst(t *testing.T) {
	p := newPipeline(t)
	p.cls.raw = `{"route command": true}`
	p.a.Submit(Input{Text: "take me home"})

	ctx, cancel := context.WithCancel(context.Background())
	p.a.Transcriber = transcriberFunc(func(context.Context, string) (string, error) {
		cancel()
		return "", nil
	})

	require.NoError(t, p.a.Run(ctx))
	assert.Equal(t, "take me home", p.cls.inputs[0])
	assert.Equal(t, []string{MsgRouteReady}, p.speaker.said)
}

func TestRun_StopsOnFatalError(t *testing.T) {
	p := newPipeline(t)
	p.cls.err = errors.New("connection refused")

	err := p.a.Run(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestRun_ReturnsNilWhenCanceled(t *testing.T) {
	p := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, p.a.Run(ctx))
	assert.Empty(t, p.rec.paths)
}

func TestRecoverableIsNotMaskedByWrapping(t *testing.T) {
	err := fmt.Errorf("classify: %w", nlu.ErrMalformedIntent)
	assert.True(t, Recoverable(err))
}

type transcriberFunc func(ctx context.Context, path string) (string, error)

func (f transcriberFunc) TranscribeFile(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}
