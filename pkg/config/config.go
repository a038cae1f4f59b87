package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	ModeDirect = "direct"
	ModeChroot = "chroot"

	DefaultChrootPath = "/host"
)

// Config holds the application configuration
type Config struct {
	// Mode is direct (commands from PATH) or chroot (commands run inside ChrootPath)
	Mode       string `yaml:"mode"`
	ChrootPath string `yaml:"chroot_path"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Commands, without the chroot prefix
	ZFSCmd   []string `yaml:"zfs_cmd"`
	ZPoolCmd []string `yaml:"zpool_cmd"`
}

func defaults(mode string) *Config {
	return &Config{
		Mode:       mode,
		ChrootPath: DefaultChrootPath,
		LogLevel:   "info",
		LogFormat:  "text",
		ZFSCmd:     []string{"zfs"},
		ZPoolCmd:   []string{"zpool"},
	}
}

// Load layers the configuration: defaults, then the YAML file at path, then
// envFile, then the process environment. Variables already set in the
// environment win over envFile. Empty paths are skipped.
func Load(path, envFile string) (*Config, error) {
	cfg := defaults(ModeDirect)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Mode = getEnv("ZFSKIT_MODE", c.Mode)
	c.ChrootPath = getEnv("ZFSKIT_CHROOT", c.ChrootPath)
	c.LogLevel = getEnv("ZFSKIT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("ZFSKIT_LOG_FORMAT", c.LogFormat)
	c.ZFSCmd = getEnvAsCommand("ZFS_CMD", c.ZFSCmd)
	c.ZPoolCmd = getEnvAsCommand("ZPOOL_CMD", c.ZPoolCmd)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error
	if c.Mode != ModeDirect && c.Mode != ModeChroot {
		err = multierr.Append(err, fmt.Errorf("invalid mode %q: must be one of: direct, chroot", c.Mode))
	}
	if c.Mode == ModeChroot && c.ChrootPath == "" {
		err = multierr.Append(err, fmt.Errorf("chroot mode needs a chroot path"))
	}
	if c.LogLevel != "info" && c.LogLevel != "debug" {
		err = multierr.Append(err, fmt.Errorf("invalid log level %q: must be one of: info, debug", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		err = multierr.Append(err, fmt.Errorf("invalid log format %q: must be one of: text, json", c.LogFormat))
	}
	if len(c.ZFSCmd) == 0 {
		err = multierr.Append(err, fmt.Errorf("zfs command is empty"))
	}
	if len(c.ZPoolCmd) == 0 {
		err = multierr.Append(err, fmt.Errorf("zpool command is empty"))
	}
	return err
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// ZFSCommand returns the argv prefix used to run zfs
func (c *Config) ZFSCommand() []string {
	return c.command(c.ZFSCmd)
}

// ZPoolCommand returns the argv prefix used to run zpool
func (c *Config) ZPoolCommand() []string {
	return c.command(c.ZPoolCmd)
}

func (c *Config) command(cmd []string) []string {
	if c.Mode != ModeChroot {
		return slices.Clone(cmd)
	}
	return append([]string{"chroot", c.ChrootPath}, cmd...)
}

// getEnv reads an environment variable or returns the default value if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsCommand reads an environment variable as a shell quoted argv,
// or returns the default value if not set or unparsable
func getEnvAsCommand(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	argv, err := shellquote.Split(valueStr)
	if err != nil || len(argv) == 0 {
		return defaultValue
	}

	return argv
}
