package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/TBXark/optional-go"
	"github.com/go-sphere/confstore"
	"github.com/go-sphere/confstore/codec"
	"github.com/go-sphere/confstore/provider/file"
	"github.com/joho/godotenv"
)

const (
	defaultServerName    = "wordpress-mcp-server"
	defaultServerVersion = "1.0.0"
	defaultAddr          = ":8000"
)

var defaultTrustedHosts = []string{"localhost", "127.0.0.1", "::1"}

type Options struct {
	AuthTokens  []string             `json:"authTokens,omitempty"`
	LogEnabled  optional.Field[bool] `json:"logEnabled,omitempty"`
	CORSEnabled optional.Field[bool] `json:"corsEnabled,omitempty"`
	RESTEnabled optional.Field[bool] `json:"restEnabled,omitempty"`
}

type ServerConfig struct {
	Name              string   `json:"name,omitempty"`
	Version           string   `json:"version,omitempty"`
	Addr              string   `json:"addr,omitempty"`
	TrustedHosts      []string `json:"trustedHosts,omitempty"`
	ToolOverridesPath string   `json:"toolOverridesPath,omitempty"`
	SnapshotHistory   int      `json:"snapshotHistory,omitempty"`
	Options           *Options `json:"options,omitempty"`
}

type WordPressConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Server    *ServerConfig    `json:"server,omitempty"`
	WordPress *WordPressConfig `json:"wordpress,omitempty"`
}

func (o *Options) logEnabled() bool {
	if v, ok := envBool("WPMCP_LOG"); ok {
		return v
	}
	if o == nil {
		return true
	}
	return o.LogEnabled.OrElse(true)
}

func (o *Options) corsEnabled() bool {
	if o == nil {
		return true
	}
	return o.CORSEnabled.OrElse(true)
}

func (o *Options) restEnabled() bool {
	if o == nil {
		return true
	}
	return o.RESTEnabled.OrElse(true)
}

// load reads .env, the optional config file and the environment, in that
// order of increasing precedence.
func load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("<config> ignoring .env: %v", err)
	}

	conf := &Config{}
	if path == "" {
		candidate := filepath.Join(configHome(), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		loaded, err := confstore.Load[Config](file.New(path), codec.JsonCodec())
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		conf = loaded
		log.Printf("<config> loaded %s", path)
	}

	applyEnv(conf)
	applyDefaults(conf)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func applyEnv(conf *Config) {
	if conf.WordPress == nil {
		conf.WordPress = &WordPressConfig{}
	}
	if conf.Server == nil {
		conf.Server = &ServerConfig{}
	}
	if v := strings.TrimSpace(os.Getenv("WORDPRESS_URL")); v != "" {
		conf.WordPress.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("WORDPRESS_USERNAME")); v != "" {
		conf.WordPress.Username = v
	}
	if v := os.Getenv("WORDPRESS_PASSWORD"); v != "" {
		conf.WordPress.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("WPMCP_ADDR")); v != "" {
		conf.Server.Addr = v
	}
	if hosts := envList("WPMCP_TRUSTED_HOSTS"); len(hosts) > 0 {
		conf.Server.TrustedHosts = hosts
	}
	if tokens := envList("WPMCP_AUTH_TOKENS"); len(tokens) > 0 {
		if conf.Server.Options == nil {
			conf.Server.Options = &Options{}
		}
		conf.Server.Options.AuthTokens = tokens
	}
	conf.Server.SnapshotHistory = envInt("WPMCP_SNAPSHOT_HISTORY", conf.Server.SnapshotHistory)
}

func applyDefaults(conf *Config) {
	if conf.Server.Name == "" {
		conf.Server.Name = defaultServerName
	}
	if conf.Server.Version == "" {
		conf.Server.Version = defaultServerVersion
	}
	if conf.Server.Addr == "" {
		conf.Server.Addr = defaultAddr
	}
	if len(conf.Server.TrustedHosts) == 0 {
		conf.Server.TrustedHosts = append([]string(nil), defaultTrustedHosts...)
	}
	if conf.Server.Options == nil {
		conf.Server.Options = &Options{}
	}
	conf.WordPress.URL = strings.TrimRight(conf.WordPress.URL, "/")
}

func (c *Config) validate() error {
	var missing []string
	if c.WordPress.URL == "" {
		missing = append(missing, "WORDPRESS_URL")
	}
	if c.WordPress.Username == "" {
		missing = append(missing, "WORDPRESS_USERNAME")
	}
	if c.WordPress.Password == "" {
		missing = append(missing, "WORDPRESS_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	u, err := url.Parse(c.WordPress.URL)
	if err != nil {
		return fmt.Errorf("invalid WORDPRESS_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid WORDPRESS_URL %q: want an absolute http(s) URL", c.WordPress.URL)
	}
	return nil
}
