// Package config resolves client settings from defaults, an optional YAML
// file, the environment (including a .env file) and command line flags, in
// that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "GOCHESS_"

type ReconnectConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type Config struct {
	ServerURL       string          `yaml:"server_url"`
	APIURL          string          `yaml:"api_url"`
	StatusAddr      string          `yaml:"status_addr"`
	StatusAPIKeys   []string        `yaml:"status_api_keys"`
	CredentialsPath string          `yaml:"credentials_path"`
	Debug           bool            `yaml:"debug"`
	Reconnect       ReconnectConfig `yaml:"reconnect"`
	WriteWait       time.Duration   `yaml:"write_wait"`
	PongWait        time.Duration   `yaml:"pong_wait"`
}

// Default returns the settings used when nothing else is configured
func Default() Config {
	return Config{
		ServerURL:       "ws://127.0.0.1:5000/ws",
		APIURL:          "http://127.0.0.1:5000",
		CredentialsPath: defaultCredentialsPath(),
		Reconnect: ReconnectConfig{
			MaxRetries:  5,
			BaseDelay:   time.Second,
			MaxDelay:    5 * time.Second,
			DialTimeout: 20 * time.Second,
		},
		WriteWait: 10 * time.Second,
		PongWait:  60 * time.Second,
	}
}

// Load registers the config flags on fs, parses args and resolves the final
// configuration. Callers may register their own flags on fs beforehand.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	configPath := fs.String("config", "", "path to a YAML config file")
	envFile := fs.String("env", ".env", "path to a .env file")

	cfg := Default()
	fs.String("server", cfg.ServerURL, "game server websocket URL")
	fs.String("api", cfg.APIURL, "auth service URL")
	fs.String("status-addr", cfg.StatusAddr, "address of the local status server (empty disables it)")
	fs.String("credentials", cfg.CredentialsPath, "credentials file")
	fs.Bool("debug", cfg.Debug, "enable debug logging")
	fs.Int("max-retries", cfg.Reconnect.MaxRetries, "reconnection attempts before giving up")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if err := cfg.applyFlag(f); err != nil && flagErr == nil {
			flagErr = err
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot work with
func (c *Config) Validate() error {
	if err := checkURL(c.ServerURL, "ws", "wss"); err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if err := checkURL(c.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("api url: %w", err)
	}
	if c.Reconnect.MaxRetries < 0 {
		return errors.New("reconnect max_retries must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"reconnect base_delay":   c.Reconnect.BaseDelay,
		"reconnect max_delay":    c.Reconnect.MaxDelay,
		"reconnect dial_timeout": c.Reconnect.DialTimeout,
		"write_wait":             c.WriteWait,
		"pong_wait":              c.PongWait,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return errors.New("reconnect max_delay must not be below base_delay")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("SERVER_URL"); ok {
		c.ServerURL = v
	}
	if v, ok := lookupEnv("API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := lookupEnv("STATUS_ADDR"); ok {
		c.StatusAddr = v
	}
	if v, ok := lookupEnv("STATUS_API_KEYS"); ok {
		c.StatusAPIKeys = splitList(v)
	}
	if v, ok := lookupEnv("CREDENTIALS_PATH"); ok {
		c.CredentialsPath = v
	}
	if v, ok := lookupEnv("DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", envPrefix, err)
		}
		c.Debug = debug
	}
	if v, ok := lookupEnv("MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_RETRIES: %w", envPrefix, err)
		}
		c.Reconnect.MaxRetries = n
	}
	return nil
}

func (c *Config) applyFlag(f *flag.Flag) error {
	value := f.Value.String()
	switch f.Name {
	case "server":
		c.ServerURL = value
	case "api":
		c.APIURL = value
	case "status-addr":
		c.StatusAddr = value
	case "credentials":
		c.CredentialsPath = value
	case "debug":
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		c.Debug = debug
	case "max-retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Reconnect.MaxRetries = n
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%q must use %s", raw, strings.Join(schemes, " or "))
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gochess-credentials.yaml"
	}
	return filepath.Join(dir, "gochess", "credentials.yaml")
}
