package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/panelkit/panel/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Settings is the fully resolved panel configuration.
type Settings struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Extensions ExtensionsConfig `mapstructure:"extensions" yaml:"extensions"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the gorm dialector and its DSN.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // sqlite, postgres, mysql
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// CacheConfig points at the redis instance. An empty Addr disables the cache.
type CacheConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string   `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format      string   `mapstructure:"format" yaml:"format"` // json, console
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// ExtensionsConfig holds extension platform settings.
type ExtensionsConfig struct {
	// AssetsDir holds per-extension payload directories (<AssetsDir>/<identifier>/)
	// that export packs next to the manifest.
	AssetsDir string `mapstructure:"assets_dir" yaml:"assets_dir"`
}

var (
	v          = viper.New()
	loadedPath string
)

// Dir returns the path to the panel config directory (~/.panel/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the default config file path (~/.panel/config.yaml).
// PANEL_CONFIG overrides it.
func FilePath() string {
	if p := os.Getenv(branding.EnvVar("CONFIG")); p != "" {
		return p
	}
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Defaults returns the settings used when neither the file nor the
// environment provides a value.
func Defaults() Settings {
	return Settings{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(Dir(), "panel.db"),
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Extensions: ExtensionsConfig{
			AssetsDir: filepath.Join(Dir(), "extensions"),
		},
	}
}

func setDefaults(vp *viper.Viper) {
	d := Defaults()
	vp.SetDefault("server.addr", d.Server.Addr)
	vp.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	vp.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	vp.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	vp.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	vp.SetDefault("database.driver", d.Database.Driver)
	vp.SetDefault("database.dsn", d.Database.DSN)
	vp.SetDefault("cache.addr", d.Cache.Addr)
	vp.SetDefault("cache.password", d.Cache.Password)
	vp.SetDefault("cache.db", d.Cache.DB)
	vp.SetDefault("log.level", d.Log.Level)
	vp.SetDefault("log.format", d.Log.Format)
	vp.SetDefault("log.output_paths", d.Log.OutputPaths)
	vp.SetDefault("extensions.assets_dir", d.Extensions.AssetsDir)
}

// Load reads settings from path (FilePath() when empty) layered over the
// defaults and PANEL_* environment variables. A missing file is not an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = FilePath()
	}

	vp := viper.New()
	setDefaults(vp)
	vp.SetConfigFile(path)
	vp.SetConfigType(fileType)
	vp.SetEnvPrefix(branding.EnvPrefix())
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var s Settings
	if err := vp.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	v = vp
	loadedPath = path
	return &s, nil
}

// Get returns a config value by key from the last Load. Returns empty string
// if not set.
func Get(key string) string {
	return v.GetString(key)
}

// Set writes a config key-value pair and saves the config file that the last
// Load read from.
func Set(key, value string) error {
	configFile := loadedPath
	if configFile == "" {
		configFile = FilePath()
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", filepath.Dir(configFile), err)
	}

	v.Set(key, value)

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
