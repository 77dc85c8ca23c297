// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/xnested/internal/display"
)

// Config represents the application configuration
type Config struct {
	Host    HostConfig    `mapstructure:"host"`
	Output  OutputConfig  `mapstructure:"output"`
	Screen  ScreenConfig  `mapstructure:"screen"`
	Input   InputConfig   `mapstructure:"input"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HostConfig selects the host display
type HostConfig struct {
	Display   string `mapstructure:"display"`    // Empty means $DISPLAY
	XauthFile string `mapstructure:"xauth_file"` // Empty means $XAUTHORITY
}

// OutputConfig picks a host output whose geometry the nested screen takes
type OutputConfig struct {
	Name       string `mapstructure:"name"`
	Enable     bool   `mapstructure:"enable"`      // Turn the output on if it is off
	RelativeTo string `mapstructure:"relative_to"` // Anchor output when enabling
	Relation   string `mapstructure:"relation"`    // right, left, above, below
}

// ScreenConfig describes the nested screen
type ScreenConfig struct {
	NestedDisplay string `mapstructure:"nested_display"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	X             int    `mapstructure:"x"`
	Y             int    `mapstructure:"y"`
	Depth         int    `mapstructure:"depth"` // 0 means the host root depth
	BitsPerPixel  int    `mapstructure:"bpp"`
	Fullscreen    bool   `mapstructure:"fullscreen"`
	Input         bool   `mapstructure:"input"`
	DisableShm    bool   `mapstructure:"disable_shm"`
}

// InputConfig selects where nested input goes
type InputConfig struct {
	Uinput     bool   `mapstructure:"uinput"`
	UinputPath string `mapstructure:"uinput_path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Output: OutputConfig{
			Relation: "right",
		},
		Screen: ScreenConfig{
			NestedDisplay: "1",
			Width:         1280,
			Height:        1024,
			BitsPerPixel:  32,
			Input:         true,
		},
		Input: InputConfig{
			UinputPath: "/dev/uinput",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("xnested")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/xnested")

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/xnested", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "xnested"))
		}

		viper.AddConfigPath(".")
	}

	// XNESTED_SCREEN_WIDTH overrides screen.width and so on
	viper.SetEnvPrefix("XNESTED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setValues(viper.SetDefault, &DefaultConfig)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// setValues applies every key of c through set, e.g. viper.SetDefault.
// Individual keys are needed for file values and defaults to merge.
func setValues(set func(key string, value any), c *Config) {
	set("host.display", c.Host.Display)
	set("host.xauth_file", c.Host.XauthFile)

	set("output.name", c.Output.Name)
	set("output.enable", c.Output.Enable)
	set("output.relative_to", c.Output.RelativeTo)
	set("output.relation", c.Output.Relation)

	set("screen.nested_display", c.Screen.NestedDisplay)
	set("screen.width", c.Screen.Width)
	set("screen.height", c.Screen.Height)
	set("screen.x", c.Screen.X)
	set("screen.y", c.Screen.Y)
	set("screen.depth", c.Screen.Depth)
	set("screen.bpp", c.Screen.BitsPerPixel)
	set("screen.fullscreen", c.Screen.Fullscreen)
	set("screen.input", c.Screen.Input)
	set("screen.disable_shm", c.Screen.DisableShm)

	set("input.uinput", c.Input.Uinput)
	set("input.uinput_path", c.Input.UinputPath)

	set("logging.log_level", c.Logging.LogLevel)
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Update replaces the configuration and writes it to file.
func Update(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	setValues(viper.Set, c)
	cfg = c
	return Save()
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/xnested/xnested.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/xnested/xnested.toml"
	}
	return filepath.Join(home, ".config", "xnested", "xnested.toml")
}

var validDepths = map[int]bool{0: true, 1: true, 4: true, 8: true, 15: true, 16: true, 24: true, 30: true, 32: true}

// Validate checks the screen geometry and the output relation.
func (c *Config) Validate() error {
	var errs []error
	s := c.Screen

	if s.Width < 1 || s.Width > 0x7fff || s.Height < 1 || s.Height > 0x7fff {
		errs = append(errs, fmt.Errorf("screen size %dx%d out of range", s.Width, s.Height))
	}
	if s.X < -0x8000 || s.X > 0x7fff || s.Y < -0x8000 || s.Y > 0x7fff {
		errs = append(errs, fmt.Errorf("screen position %d,%d out of range", s.X, s.Y))
	}
	if !validDepths[s.Depth] {
		errs = append(errs, fmt.Errorf("unsupported depth %d", s.Depth))
	}
	switch s.BitsPerPixel {
	case 0, 1, 4, 8, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("unsupported bits per pixel %d", s.BitsPerPixel))
	}
	if s.NestedDisplay == "" {
		errs = append(errs, errors.New("nested display number is required"))
	}

	if _, err := display.ParseRelation(c.Output.Relation); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Enable && c.Output.Name == "" {
		errs = append(errs, errors.New("output.enable needs output.name"))
	}
	if c.Output.RelativeTo != "" && c.Output.RelativeTo == c.Output.Name {
		errs = append(errs, fmt.Errorf("output %s cannot be placed relative to itself", c.Output.Name))
	}

	return errors.Join(errs...)
}

// Relation returns the parsed output relation.
func (c *Config) Relation() display.Relation {
	r, err := display.ParseRelation(c.Output.Relation)
	if err != nil {
		return display.RightOf
	}
	return r
}
