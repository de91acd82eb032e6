package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config carries everything the server needs to run one game. Port,
// SmallBlind and StartMoney come from the CLI; the remaining tunables have
// defaults and can be overridden from an HCL file.
type Config struct {
	Port       int
	SmallBlind uint64
	StartMoney uint64

	// TurnTimeout is the wall-clock budget for a single decision. The
	// default is effectively unbounded; the timeout-means-fold contract
	// holds at any value.
	TurnTimeout time.Duration

	// RevealPause is how long showdown cards stay on screen before the pot
	// moves. EarlyEndPause is the shorter pause when a hand ends by folds.
	RevealPause   time.Duration
	EarlyEndPause time.Duration

	// BroadcastPace is a short delay after every broadcast so slow client
	// readers do not coalesce frames.
	BroadcastPace time.Duration

	LogLevel string
}

// DefaultConfig returns the tunable defaults; the CLI fills in the rest.
func DefaultConfig() Config {
	return Config{
		Port:          8080,
		SmallBlind:    1,
		StartMoney:    1000,
		TurnTimeout:   10000 * time.Second,
		RevealPause:   10 * time.Second,
		EarlyEndPause: 7 * time.Second,
		BroadcastPace: 100 * time.Millisecond,
		LogLevel:      "info",
	}
}

// fileConfig is the HCL schema of the optional config file:
//
//	server {
//	  turn_timeout_seconds = 30
//	  reveal_pause_seconds = 10
//	  log_level            = "debug"
//	}
type fileConfig struct {
	Server *serverBlock `hcl:"server,block"`
}

type serverBlock struct {
	TurnTimeoutSeconds   *int    `hcl:"turn_timeout_seconds,optional"`
	RevealPauseSeconds   *int    `hcl:"reveal_pause_seconds,optional"`
	EarlyEndPauseSeconds *int    `hcl:"early_end_pause_seconds,optional"`
	BroadcastPaceMillis  *int    `hcl:"broadcast_pace_millis,optional"`
	LogLevel             *string `hcl:"log_level,optional"`
}

// LoadConfig overlays the HCL file at path onto cfg. A missing file is not
// an error; the defaults stand.
func LoadConfig(path string, cfg Config) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("parse config %s: %s", path, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return cfg, fmt.Errorf("decode config %s: %s", path, diags.Error())
	}
	if fc.Server == nil {
		return cfg, nil
	}

	if v := fc.Server.TurnTimeoutSeconds; v != nil {
		cfg.TurnTimeout = time.Duration(*v) * time.Second
	}
	if v := fc.Server.RevealPauseSeconds; v != nil {
		cfg.RevealPause = time.Duration(*v) * time.Second
	}
	if v := fc.Server.EarlyEndPauseSeconds; v != nil {
		cfg.EarlyEndPause = time.Duration(*v) * time.Second
	}
	if v := fc.Server.BroadcastPaceMillis; v != nil {
		cfg.BroadcastPace = time.Duration(*v) * time.Millisecond
	}
	if v := fc.Server.LogLevel; v != nil {
		cfg.LogLevel = *v
	}
	return cfg, nil
}

// Validate rejects configurations the game cannot run with.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SmallBlind == 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.StartMoney < 2*c.SmallBlind {
		return fmt.Errorf("start money %d cannot cover the big blind %d", c.StartMoney, 2*c.SmallBlind)
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive")
	}
	return nil
}
