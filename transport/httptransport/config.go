package httptransport

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the configuration of a transport, as loaded from configuration
// files and environment variables.
type Config struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Cookie   string        `mapstructure:"cookie"`
}

// EnvPrefix is the prefix of environment variables read by LoadConfig().
const EnvPrefix = "RPCPOST"

// LoadConfig reads a transport configuration from v.
//
// Environment variables named RPCPOST_URL, RPCPOST_TIMEOUT, RPCPOST_USER,
// RPCPOST_PASSWORD and RPCPOST_COOKIE take precedence over any configuration
// already read by v. If v is nil a new viper instance is used.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("url", DefaultURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("cookie", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal transport configuration: %w", err)
	}

	if cfg.Cookie != "" && cfg.User != "" {
		return Config{}, fmt.Errorf("cookie and user authentication are mutually exclusive")
	}

	return cfg, nil
}

// Builder returns a builder configured according to c.
//
// It returns an error if c.URL is invalid.
func (c Config) Builder() (*Builder, error) {
	b, err := NewBuilder().
		Timeout(c.Timeout).
		URL(c.URL)
	if err != nil {
		return nil, err
	}

	if c.Cookie != "" {
		b.CookieAuth(c.Cookie)
	} else if c.User != "" {
		b.Auth(c.User, c.Password)
	}

	return b, nil
}
