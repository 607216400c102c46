package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalidPort    = errors.New("port must be between 0 and 65535")
	ErrInvalidRoot    = errors.New("root must be an existing directory")
	ErrInvalidTimeout = errors.New("timeouts must not be negative")
)

// Config is the server configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Files     FilesConfig     `toml:"files"`
	AccessLog AccessLogConfig `toml:"access_log"`
}

type ServerConfig struct {
	Address string `toml:"address"`
	Port    int    `toml:"port"`
	Root    string `toml:"root"`

	// Timeouts are in seconds.
	ShutdownTimeout   int `toml:"shutdown_timeout"`
	ReadHeaderTimeout int `toml:"read_header_timeout"`
	IdleTimeout       int `toml:"idle_timeout"`
}

type FilesConfig struct {
	Index   []string `toml:"index"`
	Listing bool     `toml:"listing"`
}

type AccessLogConfig struct {
	Database string `toml:"database"`
}

// Default returns the configuration used when no file or flags are given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              8000,
			ShutdownTimeout:   5,
			ReadHeaderTimeout: 10,
			IdleTimeout:       60,
		},
		Files: FilesConfig{
			Index:   []string{"index.html", "index.htm"},
			Listing: true,
		},
	}
}

// Load reads a TOML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve validates the configuration and returns a copy whose root is an
// absolute, symlink-free path. An empty root means the directory holding the
// running executable.
func (c Config) Resolve() (Config, error) {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return c, fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 || c.Server.ReadHeaderTimeout < 0 || c.Server.IdleTimeout < 0 {
		return c, ErrInvalidTimeout
	}

	root := c.Server.Root
	if root == "" {
		exe, err := os.Executable()
		if err != nil {
			return c, fmt.Errorf("failed to locate executable: %w", err)
		}
		root = filepath.Dir(exe)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return c, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return c, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}

	resolved := c
	resolved.Server.Root = abs
	resolved.Files.Index = append([]string(nil), c.Files.Index...)
	return resolved, nil
}

// Addr returns the host:port the listener binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

func (c Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeout) * time.Second
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeout) * time.Second
}
