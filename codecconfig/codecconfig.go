package codecconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"xdao.co/codec/compliance"
	"xdao.co/codec/registry"
)

const (
	DefaultListen           = "127.0.0.1:7878"
	DefaultPunycodeMaxRunes = 4096
	DefaultLogLevel         = "info"
)

// Config describes how the codec daemon serves registered codecs.
//
// Files ending in .yaml or .yml are read as YAML; anything else as JSON.
// Unknown keys are rejected.
//
// Example:
//
//	{
//	  "listen": "127.0.0.1:7878",
//	  "mode": "strict",
//	  "punycode_max_runes": 1024,
//	  "codecs": ["base32", "base64", "punycode"]
//	}
//
// PunycodeMaxRunes of 0 selects the default; -1 disables the cap.
// MaxInputBytes caps Base-N payloads; 0 disables it.
type Config struct {
	Listen           string   `json:"listen,omitempty" yaml:"listen,omitempty"`
	MaxMsgBytes      int      `json:"max_msg_bytes,omitempty" yaml:"max_msg_bytes,omitempty"`
	MaxInputBytes    int      `json:"max_input_bytes,omitempty" yaml:"max_input_bytes,omitempty"`
	PunycodeMaxRunes int      `json:"punycode_max_runes,omitempty" yaml:"punycode_max_runes,omitempty"`
	Mode             string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	LogLevel         string   `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Codecs           []string `json:"codecs,omitempty" yaml:"codecs,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:           DefaultListen,
		PunycodeMaxRunes: DefaultPunycodeMaxRunes,
		Mode:             compliance.Permissive.String(),
		LogLevel:         DefaultLogLevel,
	}
}

func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("codecconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("codecconfig: %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("codecconfig: %s: %w", path, err)
		}
	}
	cfg = cfg.withDefaults()
	return cfg, cfg.Validate()
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.PunycodeMaxRunes == 0 {
		c.PunycodeMaxRunes = d.PunycodeMaxRunes
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	return c
}

func (c Config) Validate() error {
	if c.MaxMsgBytes < 0 {
		return fmt.Errorf("codecconfig: max_msg_bytes must be >= 0, got %d", c.MaxMsgBytes)
	}
	if c.MaxInputBytes < 0 {
		return fmt.Errorf("codecconfig: max_input_bytes must be >= 0, got %d", c.MaxInputBytes)
	}
	if c.PunycodeMaxRunes < -1 {
		return fmt.Errorf("codecconfig: punycode_max_runes must be >= -1, got %d", c.PunycodeMaxRunes)
	}
	if _, err := compliance.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("codecconfig: %w", err)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	_, err := c.Enabled()
	return err
}

// ComplianceMode returns the parsed mode. Call Validate first.
func (c Config) ComplianceMode() compliance.Mode {
	m, _ := compliance.ParseMode(c.Mode)
	return m
}

// Enabled returns the codecs to serve: the configured subset in file order,
// or every registered codec when none is listed.
func (c Config) Enabled() ([]registry.Codec, error) {
	if len(c.Codecs) == 0 {
		return registry.List(), nil
	}
	out := make([]registry.Codec, 0, len(c.Codecs))
	seen := make(map[string]struct{}, len(c.Codecs))
	for _, name := range c.Codecs {
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("codecconfig: duplicate codec %q", name)
		}
		seen[name] = struct{}{}
		rc, ok := registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("codecconfig: %w %q", registry.ErrUnknownCodec, name)
		}
		out = append(out, rc)
	}
	return out, nil
}

// Options returns the registry.Options a codec is opened with.
func (c Config) Options(codec string) registry.Options {
	opts := registry.Options{Mode: c.ComplianceMode(), MaxInput: c.MaxInputBytes}
	if codec == "punycode" {
		opts.MaxInput = c.PunycodeMaxRunes
		if opts.MaxInput < 0 {
			opts.MaxInput = 0
		}
	}
	return opts
}

func (c Config) level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("codecconfig: invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// ZapConfig returns a production zap configuration at the configured level.
func (c Config) ZapConfig() zap.Config {
	zc := zap.NewProductionConfig()
	lvl, err := c.level()
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc
}
