package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"rita/internal/assistant"
	"rita/internal/audio"
	"rita/internal/config"
	"rita/internal/geo"
	"rita/internal/hmi"
	"rita/internal/ipc"
	"rita/internal/notify"
	"rita/internal/nlu"
	"rita/internal/proxy"
	"rita/internal/seat"
	"rita/internal/tts"
	"rita/internal/tts/azure"
	"rita/internal/tts/espeak"
	"rita/pkg/stt"
	"rita/pkg/stt/whisper"
	"rita/pkg/vss"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configFile := cli.StringP("config", "c", "", "Config file path (default: search ., ./config, $HOME/.rita)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	os.Exit(run(*envFile, *configFile))
}

// run returns the process exit code.
func run(envFile, configFile string) int {
	log.Info("Booting up")

	cfg, err := config.Load(envFile, configFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		return 1
	}

	store, err := cfg.Store()
	if err != nil {
		log.Error("Bad profiles", "err", err)
		return 1
	}
	log.Debug("Loaded profiles", "names", store.Names())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 0)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		return 1
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.Key),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	llm := openai.NewClient(opts...)
	classifier := nlu.NewClassifier(llm, cfg.OpenAI.Model, store.Names())

	places, err := geo.NewGoogle(cfg.Maps.APIKey, httpClient)
	if err != nil {
		log.Error("Failed to init maps client", "err", err)
		return 1
	}

	// dialed on the first seat write
	bus := vss.NewLazy(vss.Config{
		URL:     cfg.Kuksa.Address,
		Token:   cfg.Kuksa.Token,
		Timeout: cfg.Kuksa.Timeout,
	})
	defer bus.Close()

	router := assistant.NewRouter(store,
		seat.NewActuator(bus, cfg.Seat.Paths(), cfg.Seat.Pace),
		classifier, places, cfg.Maps.Radius)

	transcriber, closeSTT, err := newTranscriber(cfg, llm, httpClient)
	if err != nil {
		log.Error("Failed to init speech recognition", "backend", cfg.Whisper.Backend, "err", err)
		return 1
	}
	defer closeSTT()

	rec := audio.NewRecorder(audio.RecorderConfig{
		Duration:   cfg.Recorder.Duration,
		SampleRate: cfg.Recorder.SampleRate,
	})
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		return 1
	}
	defer rec.Close()

	deps := assistant.Deps{
		Recorder:    rec,
		Transcriber: transcriber,
		Classifier:  classifier,
		Router:      router,
		Speaker:     newSpeaker(cfg.Speech),
	}
	if cfg.Duck.Enabled {
		deps.Ducker = audio.NewDucker([]string{"rita", "espeak"}, cfg.Duck.Factor, cfg.Duck.MinVolume, cfg.Duck.Fade)
	}
	if cfg.Chime != "" {
		deps.Chime = notify.NewChime(cfg.Chime)
	}
	if cfg.HMI.URL != "" {
		display := hmi.NewBus(cfg.HMI.URL)
		defer display.Close()
		deps.HMI = display
	}

	rita := assistant.New(deps, assistant.Options{
		File:  cfg.Recorder.File,
		Pause: cfg.Pause,
	})

	if _, err := ipc.Listen(ctx, cfg.Control.Socket, func(req ipc.Request) {
		switch req.Cmd {
		case ipc.CmdAsk:
			rita.Submit(assistant.Input{Text: req.Text})
		case ipc.CmdListen:
			rita.Submit(assistant.Input{Path: req.Path})
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		return 1
	}

	log.Info("Boot up - successful")

	if err := rita.Run(ctx); err != nil {
		log.Error("Assistant stopped", "err", err)
		return 1
	}
	log.Info("Bye")
	return 0
}

func newTranscriber(cfg *config.Config, llm openai.Client, httpClient *http.Client) (stt.Transcriber, func(), error) {
	w := cfg.Whisper
	switch w.Backend {
	case config.BackendAzure:
		client, err := stt.NewAzureClient(w.Endpoint, w.Key, w.APIVersion, httpClient)
		if err != nil {
			return nil, nil, err
		}
		return stt.NewRemote(client, w.Model, w.Language), func() {}, nil
	case config.BackendOpenAI:
		return stt.NewRemote(llm, w.Model, w.Language), func() {}, nil
	case config.BackendLocal:
		t, err := whisper.New(w.ModelPath, whisper.Options{Language: w.Language})
		if err != nil {
			return nil, nil, err
		}
		return t, func() { t.Close() }, nil
	}
	return nil, nil, errors.New("unknown backend")
}

func newSpeaker(cfg config.SpeechConfig) tts.Speaker {
	var chain tts.Chain
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderAzure:
			chain = append(chain, azure.New(cfg.Key, cfg.Region, cfg.Voice))
		case config.ProviderEspeak:
			chain = append(chain, espeak.New(cfg.EspeakLang, cfg.EspeakRate))
		}
	}
	return chain
}
