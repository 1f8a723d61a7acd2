// Package config parses engine-level client defaults from a YAML or JSON
// file and turns them into client options. Per-request settings on a
// descriptor always take precedence over these defaults.
package config

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/avlberg/wsclient/ws"
)

// Config is the engine-default configuration surface.
//
// Example YAML:
//
//	baseUrl: "https://api.example.com"
//	userAgent: "myapp/1.0"
//	timeouts:
//	  connect: 5s
//	  request: 30s
//	followRedirects: true
//	compression: true
//	tls:
//	  insecureSkipVerify: false
//	throttle:
//	  rps: 50
//	  burst: 10
type Config struct {
	BaseURL         string          `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	UserAgent       string          `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Timeouts        TimeoutConfig   `json:"timeouts,omitempty" yaml:"timeouts,omitempty"`
	FollowRedirects *bool           `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	Compression     *bool           `json:"compression,omitempty" yaml:"compression,omitempty"`
	TLS             *TLSConfig      `json:"tls,omitempty" yaml:"tls,omitempty"`
	Throttle        *ThrottleConfig `json:"throttle,omitempty" yaml:"throttle,omitempty"`
}

// TimeoutConfig holds the engine default timeouts.
type TimeoutConfig struct {
	Connect Duration `json:"connect,omitempty" yaml:"connect,omitempty"`
	Request Duration `json:"request,omitempty" yaml:"request,omitempty"`
}

// TLSConfig holds transport TLS settings.
type TLSConfig struct {
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`
	ServerName         string `json:"serverName,omitempty" yaml:"serverName,omitempty"`
}

// ThrottleConfig holds outbound rate-limit settings.
type ThrottleConfig struct {
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// Duration wraps time.Duration so YAML/JSON values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Validate checks the configuration for values the client would reject.
func (c *Config) Validate() error {
	if c.Timeouts.Connect < 0 {
		return fmt.Errorf("timeouts.connect must not be negative")
	}
	if c.Timeouts.Request < 0 {
		return fmt.Errorf("timeouts.request must not be negative")
	}
	if c.Throttle != nil {
		if c.Throttle.RPS <= 0 {
			return fmt.Errorf("throttle.rps must be greater than zero")
		}
		if c.Throttle.Burst <= 0 {
			return fmt.Errorf("throttle.burst must be greater than zero")
		}
	}
	return nil
}

// Options converts the configuration into client options.
func (c *Config) Options() []ws.Option {
	var opts []ws.Option
	if c.BaseURL != "" {
		opts = append(opts, ws.WithBaseURL(c.BaseURL))
	}
	if c.UserAgent != "" {
		opts = append(opts, ws.WithUserAgent(c.UserAgent))
	}
	if c.Timeouts.Connect > 0 {
		opts = append(opts, ws.WithConnectTimeout(time.Duration(c.Timeouts.Connect)))
	}
	if c.Timeouts.Request > 0 {
		opts = append(opts, ws.WithRequestTimeout(time.Duration(c.Timeouts.Request)))
	}
	if c.FollowRedirects != nil {
		opts = append(opts, ws.WithFollowRedirects(*c.FollowRedirects))
	}
	if c.Compression != nil {
		opts = append(opts, ws.WithCompression(*c.Compression))
	}
	if c.TLS != nil {
		opts = append(opts, ws.WithTLSConfig(&tls.Config{
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
			ServerName:         c.TLS.ServerName,
		}))
	}
	if c.Throttle != nil {
		opts = append(opts, ws.WithThrottle(c.Throttle.RPS, c.Throttle.Burst))
	}
	return opts
}
