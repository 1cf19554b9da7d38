package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"jarvis/internal/audio"
	"jarvis/internal/config"
	"jarvis/internal/ipc"
	"jarvis/internal/jarvis"
	"jarvis/internal/logging"
	"jarvis/internal/metrics"
	"jarvis/internal/notify"
	"jarvis/internal/proxy"
	"jarvis/internal/speech"
	"jarvis/internal/sysexec"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "YAML config file")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for OpenAI calls")
	textMode := cli.BoolP("text", "t", false, "Read utterances from stdin instead of the microphone")
	files := cli.StringSliceP("file", "f", nil, "Replay audio files instead of the microphone")
	metricsAddr := cli.StringP("metrics", "m", "", "Serve Prometheus metrics on this address")
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Control socket path")
	cli.Parse()

	logging.Setup(os.Stdout, *logLevel, false)

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, options{
		proxy:   *proxyAddr,
		text:    *textMode,
		files:   *files,
		metrics: *metricsAddr,
		socket:  *socket,
	}); err != nil {
		log.Error("JARVIS failed", "err", err)
		os.Exit(1)
	}
}

type options struct {
	proxy   string
	text    bool
	files   []string
	metrics string
	socket  string
}

func run(ctx context.Context, cfg *config.Config, opt options) error {
	var res closers
	defer res.Close()

	var client *openai.Client
	if cfg.OpenAIKey != "" {
		httpClient, err := proxy.NewSocksClient(opt.proxy)
		if err != nil {
			return err
		}
		c := openai.NewClient(
			option.WithAPIKey(cfg.OpenAIKey),
			option.WithHTTPClient(httpClient),
		)
		client = &c
		log.Debug("Loaded OpenAI client", "proxy", opt.proxy)
	}

	mixer := audio.NewMixer(sysexec.ExecRunner, []string{"jarvis"}, 5)

	synth, synthName, err := selectFirst(ctx, synthesizers(cfg, client, mixer, &res), cfg.Voice.Providers)
	if err != nil {
		return err
	}
	log.Info("Voice ready", "provider", synthName)

	transcriber, err := newTranscriber(ctx, cfg, client, opt, &res)
	if err != nil {
		return err
	}

	settings := jarvis.DefaultSettings()
	settings.WakeWord = cfg.Speech.WakeWord
	settings.ExitKeywords = cfg.Speech.ExitKeywords
	settings.GreetingPhrases = cfg.Speech.GreetingPhrases
	settings.StartupMessage = cfg.Messages.Startup
	settings.GreetingMessage = cfg.Messages.Greeting
	settings.GoodbyeMessage = cfg.Messages.Goodbye

	o := jarvis.New(settings,
		jarvis.WithClassifier(newClassifier(cfg.Classifier)),
		jarvis.WithTranscriber(transcriber),
		jarvis.WithSynthesizer(synth),
		jarvis.WithActuator(newActuator(cfg, mixer)),
		jarvis.WithWakeCue(notify.New(cfg.Voice.Chime, sysexec.ExecRunner).WakeCue),
	)

	log.Info("Boot up - successful")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if err := o.Run(gctx); err != nil && !errors.Is(err, jarvis.ErrStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := ipc.Serve(gctx, opt.socket, o); err != nil {
			log.Warn("Control socket disabled", "err", err)
		}
		return nil
	})
	if opt.metrics != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, opt.metrics)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newTranscriber(ctx context.Context, cfg *config.Config, client *openai.Client, opt options, res *closers) (jarvis.Transcriber, error) {
	if opt.text {
		log.Info("Text mode, reading stdin")
		return speech.NewTextTranscriber(os.Stdin), nil
	}

	engine, name, err := selectFirst(ctx, engines(cfg, client, res), cfg.Speech.Engines)
	if err != nil {
		return nil, err
	}
	log.Info("Speech engine ready", "engine", name)

	if len(opt.files) > 0 {
		return speech.NewFileTranscriber(engine, audio.DecodeOptions{}, opt.files...), nil
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return nil, err
	}
	res.add(rec)

	return speech.NewMicTranscriber(rec, engine, audio.Limits{
		Timeout:     cfg.Speech.Timeout,
		PhraseLimit: cfg.Speech.PhraseTimeLimit,
	}), nil
}
