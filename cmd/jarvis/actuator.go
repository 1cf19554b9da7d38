package main

import (
	"jarvis/internal/actuator"
	"jarvis/internal/audio"
	"jarvis/internal/config"
)

func newActuator(cfg *config.Config, mixer *audio.Mixer) *actuator.System {
	return actuator.New(actuator.Options{
		Applications: cfg.System.Applications,
		SearchURL:    cfg.System.WebSearchEngine,
		Opener:       cfg.System.Opener,
		MediaPlayer:  cfg.System.MediaPlayer,
		VolumeStep:   cfg.System.VolumeStep,
		Volume:       mixer,
	})
}
