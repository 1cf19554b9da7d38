package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"jarvis/internal/actuator"
	"jarvis/internal/audio"
	"jarvis/internal/bus"
	"jarvis/internal/config"
	"jarvis/internal/jarvis"
	"jarvis/internal/logging"
	"jarvis/internal/proxy"
	"jarvis/internal/sysexec"
	"jarvis/internal/tts"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "YAML config file")
	url := cli.StringP("url", "u", "", "Url of hub (defaults to $BUS_URL)")
	shard := cli.String("shard", "jarvis", "Shard name on the bus")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for OpenAI calls")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logging.Setup(os.Stdout, *logLevel, false)
	log.Info("Starting JARVIS shard")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	wsURL := *url
	if wsURL == "" {
		wsURL = os.Getenv("BUS_URL")
	}
	if wsURL == "" {
		wsURL = "ws://localhost:8092/ws"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []jarvis.Option{
		jarvis.WithActuator(actuator.New(actuator.Options{
			Applications: cfg.System.Applications,
			SearchURL:    cfg.System.WebSearchEngine,
			Opener:       cfg.System.Opener,
			MediaPlayer:  cfg.System.MediaPlayer,
			VolumeStep:   cfg.System.VolumeStep,
			Volume:       audio.NewMixer(sysexec.ExecRunner, nil, 0),
		})),
	}

	// with a key, replies carry rendered speech
	if cfg.OpenAIKey != "" {
		httpClient, err := proxy.NewSocksClient(*proxyAddr)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey), option.WithHTTPClient(httpClient))
		opts = append(opts, jarvis.WithSynthesizer(tts.NewOpenAI(client, tts.OpenAIOptions{
			Model: cfg.Voice.OpenAIModel,
			Voice: cfg.Voice.OpenAIVoice,
		})))
	}

	settings := jarvis.DefaultSettings()
	settings.WakeWord = cfg.Speech.WakeWord
	o := jarvis.New(settings, opts...)

	b, err := bus.Dial(ctx, bus.Config{Shard: *shard, URL: wsURL, Reconn: time.Second})
	if err != nil {
		log.Error("Failed to connect to bus", "err", err)
		os.Exit(1)
	}

	if err := b.Run(ctx, o); err != nil {
		log.Error("Bus failed", "err", err)
		os.Exit(1)
	}
	log.Info("JARVIS shard stopped")
}
