package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "FLASHMIND_"

type cliConfig struct {
	Server    string        `koanf:"server"`
	TokenFile string        `koanf:"token_file"`
	Timeout   time.Duration `koanf:"timeout"`
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "flashmind")
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("flashmind", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.String("config", filepath.Join(defaultConfigDir(), "config.yaml"), "path to the YAML config file")
	flags.String("server", "http://localhost:8000", "FlashMind API base URL")
	flags.String("token-file", filepath.Join(defaultConfigDir(), "token"), "where the login token is kept")
	flags.Duration("timeout", 90*time.Second, "HTTP timeout per request")
	return flags
}

// loadConfig layers the YAML file, FLASHMIND_* variables and flags, later
// sources winning. Flags only override when set explicitly.
func loadConfig(flags *pflag.FlagSet) (*cliConfig, error) {
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	err = k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}

	var cfg cliConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Server == "" {
		return nil, errors.New("server must not be empty")
	}
	if cfg.TokenFile == "" {
		return nil, errors.New("token_file must not be empty")
	}
	return &cfg, nil
}
