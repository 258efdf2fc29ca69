package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the startup parameters. Environment variables supply the
// defaults, command-line flags override them.
type Config struct {
	OSCListen   string `env:"OSCBRIDGE_OSC_LISTEN" envDefault:"127.0.0.1:9001"`
	OSCSendHost string `env:"OSCBRIDGE_OSC_SEND_HOST" envDefault:"127.0.0.1"`
	OSCSendPort int    `env:"OSCBRIDGE_OSC_SEND_PORT" envDefault:"9000"`
	HTTPAddr    string `env:"OSCBRIDGE_HTTP" envDefault:"127.0.0.1:8080"`
	AvatarDir   string `env:"OSCBRIDGE_AVATAR_DIR" envDefault:"."`
	Verbose     bool   `env:"OSCBRIDGE_VERBOSE"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
