package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-tokwalk/internal/bpe"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Encoding  EncodingConfig  `mapstructure:"encoding"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Traversal TraversalConfig `mapstructure:"traversal"`
	Text      TextConfig      `mapstructure:"text"`
	Server    ServerConfig    `mapstructure:"server"`
}

// EncodingConfig holds the default resolution hints and the rank-file source.
type EncodingConfig struct {
	Model  string `mapstructure:"model"`
	Name   string `mapstructure:"name"`
	Loader string `mapstructure:"loader"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

type TraversalConfig struct {
	Recursive       bool     `mapstructure:"recursive"`
	Quiet           bool     `mapstructure:"quiet"`
	ExitOnListError bool     `mapstructure:"exit_on_list_error"`
	Workers         int      `mapstructure:"workers"`
	ExcludeDirs     []string `mapstructure:"exclude_dirs"`
}

type TextConfig struct {
	FallbackCodecs []string `mapstructure:"fallback_codecs"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	Workers         int    `mapstructure:"workers"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Encoding: EncodingConfig{
			Loader: bpe.LoaderDefault,
		},
		Cache: CacheConfig{
			Dir: defaultCacheDir(),
		},
		Traversal: TraversalConfig{
			Recursive:       true,
			Quiet:           false,
			ExitOnListError: true,
			Workers:         1,
			ExcludeDirs:     []string{},
		},
		Text: TextConfig{
			FallbackCodecs: []string{},
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    1 << 20,
			RequestTimeout:  30,
			Workers:         4,
			ShutdownTimeout: 10,
		},
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return ".tokwalk-cache"
	}

	return filepath.Join(base, "tokwalk")
}

// flagKeys maps config keys to the flags RegisterFlags defines for them.
var flagKeys = []struct {
	key  string
	flag string
}{
	{"log_level", "log-level"},
	{"encoding.model", "model"},
	{"encoding.name", "encoding"},
	{"encoding.loader", "loader"},
	{"cache.dir", "cache-dir"},
	{"traversal.quiet", "quiet"},
	{"traversal.workers", "workers"},
	{"traversal.exclude_dirs", "exclude-dir"},
	{"text.fallback_codecs", "fallback-codec"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.max_text_bytes", "server-max-text-bytes"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.workers", "server-workers"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringP("model", "m", defaults.Encoding.Model, "Model name to resolve the encoding from")
	fs.StringP("encoding", "e", defaults.Encoding.Name, "Encoding name (e.g. cl100k_base)")
	fs.String("loader", defaults.Encoding.Loader, "BPE rank source (default|offline|cache)")
	fs.String("cache-dir", defaults.Cache.Dir, "Directory holding fetched BPE rank files")
	fs.BoolP("quiet", "q", defaults.Traversal.Quiet, "Suppress progress output and skip warnings")
	fs.Int("workers", defaults.Traversal.Workers, "Concurrent file reads per directory")
	fs.StringSlice("exclude-dir", defaults.Traversal.ExcludeDirs, "Directory names never descended into")
	fs.StringSlice("fallback-codec", defaults.Text.FallbackCodecs, "Text codecs tried after UTF-8 and UTF-16 (e.g. windows-1252)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent tokenize requests")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TOKWALK")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tokwalk")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	loader, err := bpe.NormalizeLoader(cfg.Encoding.Loader)
	if err != nil {
		return Config{}, err
	}
	cfg.Encoding.Loader = loader

	if cfg.Traversal.Workers < 1 {
		cfg.Traversal.Workers = 1
	}

	return cfg, nil
}

// bindFlags binds each known flag under its nested config key, so a flag the
// user set wins over env and config file while an unset flag does not mask them.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", fk.flag, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("encoding.model", c.Encoding.Model)
	v.SetDefault("encoding.name", c.Encoding.Name)
	v.SetDefault("encoding.loader", c.Encoding.Loader)
	v.SetDefault("cache.dir", c.Cache.Dir)
	v.SetDefault("traversal.recursive", c.Traversal.Recursive)
	v.SetDefault("traversal.quiet", c.Traversal.Quiet)
	v.SetDefault("traversal.exit_on_list_error", c.Traversal.ExitOnListError)
	v.SetDefault("traversal.workers", c.Traversal.Workers)
	v.SetDefault("traversal.exclude_dirs", c.Traversal.ExcludeDirs)
	v.SetDefault("text.fallback_codecs", c.Text.FallbackCodecs)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
}
