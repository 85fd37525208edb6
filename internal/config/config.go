package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the config file base name looked up in "." and /etc/auction.
const FileName = "auction"

// Configuration is the full server configuration.
type Configuration struct {
	Server  Server  `mapstructure:"server"`
	Auction Auction `mapstructure:"auction"`
	Gateway Gateway `mapstructure:"gateway"`
	Feed    Feed    `mapstructure:"feed"`
	Log     Log     `mapstructure:"log"`
}

type Server struct {
	Port              int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type Auction struct {
	// Duration is how long after startup the seeded auctions end.
	Duration time.Duration `mapstructure:"duration" validate:"gt=0"`
	// EnforceClose rejects bids on auctions past their end time.
	EnforceClose bool `mapstructure:"enforce_close"`
}

type Gateway struct {
	BufferSize     int           `mapstructure:"buffer_size" validate:"gte=1"`
	PingInterval   time.Duration `mapstructure:"ping_interval" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Feed configures the optional Kafka mirror of accepted bids.
type Feed struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
}

// Enabled reports whether the bid feed should run.
func (f Feed) Enabled() bool {
	return len(f.Brokers) > 0
}

// Address returns the listen address for the HTTP server.
func (s Server) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SetupViper registers defaults, config file lookup and environment bindings.
// Environment variables use the AUCTION_ prefix with dots replaced by
// underscores (AUCTION_GATEWAY_BUFFER_SIZE); PORT is honoured for server.port.
func SetupViper(v *viper.Viper, filename string) {
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/auction")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("auction.duration", 24*time.Hour)
	v.SetDefault("auction.enforce_close", false)
	v.SetDefault("gateway.buffer_size", 64)
	v.SetDefault("gateway.ping_interval", 30*time.Second)
	v.SetDefault("gateway.write_timeout", 10*time.Second)
	v.SetDefault("gateway.allowed_origins", []string{})
	v.SetDefault("feed.brokers", []string{})
	v.SetDefault("feed.topic", "auction.bid-updates")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "AUCTION_SERVER_PORT", "PORT")
}

// New reads the optional config file and decodes v into a validated Configuration.
func New(v *viper.Viper) (*Configuration, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every field constraint.
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
