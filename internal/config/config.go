package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "zenwatch"

// DefaultExtensions are the image types Zenfolio accepts for upload.
var DefaultExtensions = []string{".jpg", ".jpeg", ".jpe", ".jfif", ".jfi", ".jif", ".tif", ".tiff", ".png", ".gif"}

// ZenfolioConfig defines the configuration specific to the Zenfolio account and gallery.
type ZenfolioConfig struct {
	Login         string        `mapstructure:"login"`
	Password      string        `mapstructure:"password"`
	APIURL        string        `mapstructure:"api_url"`
	GalleryID     int64         `mapstructure:"gallery_id"`
	CollectionID  int64         `mapstructure:"collection_id"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// WatchConfig defines the watched folder and the poll loop.
type WatchConfig struct {
	ImageRoot string `mapstructure:"image_root"`
	// PollInterval is in seconds.
	PollInterval     int      `mapstructure:"poll_interval"`
	Extensions       []string `mapstructure:"extensions"`
	ContentType      string   `mapstructure:"content_type"`
	WakeOnChange     bool     `mapstructure:"wake_on_change"`
	ChunkSize        int      `mapstructure:"chunk_size"`
	UploadsPerSecond float64  `mapstructure:"uploads_per_second"`
}

func (c *WatchConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// LoginConfig bounds the login retry loop.
type LoginConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RPCTimeout        time.Duration `mapstructure:"rpc_timeout"`
	RetryMax          int           `mapstructure:"retry_max"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type HistoryConfig struct {
	// Path of the sqlite database; "-" disables history.
	Path string `mapstructure:"path"`
}

func (c *HistoryConfig) Enabled() bool {
	return c.Path != "-"
}

// ZenwatchConfig defines the configuration for Zenwatch.
type ZenwatchConfig struct {
	Zenfolio ZenfolioConfig `mapstructure:"zenfolio"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Login    LoginConfig    `mapstructure:"login"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	History  HistoryConfig  `mapstructure:"history"`

	path string `mapstructure:"-"`
}

// Path returns the file the config was loaded from.
func (c *ZenwatchConfig) Path() string {
	return c.path
}

func (c *ZenfolioConfig) Validate() error {
	if c.Login == "" {
		return fmt.Errorf("missing zenfolio login")
	}
	if c.APIURL == "" {
		return fmt.Errorf("missing zenfolio api_url")
	}
	if c.GalleryID < 0 || c.CollectionID < 0 {
		return fmt.Errorf("zenfolio gallery_id and collection_id must not be negative")
	}
	// Allow empty Password (prompted) and zero GalleryID (picked).
	return nil
}

func (c *WatchConfig) Validate() error {
	if c.ImageRoot == "" {
		return fmt.Errorf("missing watch image_root")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("watch poll_interval must be positive, got %d", c.PollInterval)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("watch chunk_size must be positive, got %d", c.ChunkSize)
	}
	// Zero turns the upload limiter off.
	if c.UploadsPerSecond < 0 {
		return fmt.Errorf("watch uploads_per_second must not be negative, got %g", c.UploadsPerSecond)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch extension %q must start with '.'", ext)
		}
	}
	return nil
}

func (c *LoginConfig) Validate() error {
	if c.InitialDelay <= 0 {
		return fmt.Errorf("login initial_delay must be positive")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("login max_delay (%s) is less than initial_delay (%s)", c.MaxDelay, c.InitialDelay)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("login max_attempts must not be negative")
	}
	return nil
}

func (c *HTTPConfig) Validate() error {
	// Timeouts must be explicit, a stalled endpoint would otherwise hang the loop.
	if c.Timeout <= 0 || c.RPCTimeout <= 0 {
		return fmt.Errorf("http timeout and rpc_timeout must be positive")
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("http retry_max must not be negative")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("http requests_per_second must be positive")
	}
	return nil
}

func (c *ZenwatchConfig) Validate() error {
	if err := c.Zenfolio.Validate(); err != nil {
		return fmt.Errorf("invalid zenfolio config (%s): %w", c.path, err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("invalid watch config (%s): %w", c.path, err)
	}
	if err := c.Login.Validate(); err != nil {
		return fmt.Errorf("invalid login config (%s): %w", c.path, err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("invalid http config (%s): %w", c.path, err)
	}
	if c.History.Path == "" {
		return fmt.Errorf("missing history path (%s)", c.path)
	}
	return nil
}

// DefaultConfigPath returns the default path for the Zenwatch config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// DefaultHistoryPath returns where upload history is kept when not configured.
func DefaultHistoryPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appName, "history.db")
	}
	return filepath.Join(os.TempDir(), appName, "history.db")
}

// getConfigPath determines where to read the config file from.
func getConfigPath(configPathFlag string) (string, error) {
	// Prefer user-specific config file path if specified.
	if configPathFlag != "" {
		return configPathFlag, nil
	}
	return DefaultConfigPath()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("zenfolio.login", "")
	v.SetDefault("zenfolio.password", "")
	v.SetDefault("zenfolio.api_url", "https://api.zenfolio.com/api/1.8/zfapi.asmx")
	v.SetDefault("zenfolio.gallery_id", 0)
	v.SetDefault("zenfolio.collection_id", 0)
	v.SetDefault("zenfolio.token_lifetime", time.Duration(0))
	v.SetDefault("zenfolio.user_agent", appName)

	v.SetDefault("watch.image_root", "")
	v.SetDefault("watch.poll_interval", 30)
	v.SetDefault("watch.extensions", DefaultExtensions)
	v.SetDefault("watch.content_type", "")
	v.SetDefault("watch.wake_on_change", false)
	v.SetDefault("watch.chunk_size", 1024)
	v.SetDefault("watch.uploads_per_second", 2.0)

	v.SetDefault("login.initial_delay", time.Second)
	v.SetDefault("login.max_delay", 5*time.Minute)
	v.SetDefault("login.max_attempts", 0)

	v.SetDefault("http.timeout", 10*time.Minute)
	v.SetDefault("http.rpc_timeout", time.Minute)
	v.SetDefault("http.retry_max", 4)
	v.SetDefault("http.requests_per_second", 5.0)

	v.SetDefault("history.path", DefaultHistoryPath())
}

// LoadConfig reads the config file.
func LoadConfig(configPathFlag string) (ZenwatchConfig, error) {
	path, err := getConfigPath(configPathFlag)
	if err != nil {
		return ZenwatchConfig{}, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	// Allow users to override config values with environment variables.
	// In particular, may be desired for the Zenfolio password.
	v.SetEnvPrefix("ZENWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return ZenwatchConfig{}, fmt.Errorf("error reading (%s): %w", path, err)
	}
	config := ZenwatchConfig{path: path}
	if err := v.Unmarshal(&config); err != nil {
		return ZenwatchConfig{}, fmt.Errorf("error unmarshaling (%s): %w", path, err)
	}
	for i, ext := range config.Watch.Extensions {
		config.Watch.Extensions[i] = strings.ToLower(ext)
	}
	return config, nil
}
