package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port    string `mapstructure:"port"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey        string `mapstructure:"secret_key"`
		AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
		ActionTTLMinutes int    `mapstructure:"action_ttl_minutes"`
		LeewaySeconds    int    `mapstructure:"leeway_seconds"`
	} `mapstructure:"jwt"`
	Sweeper struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
		RetentionDays   int `mapstructure:"retention_days"`
		BatchSize       int `mapstructure:"batch_size"`
	} `mapstructure:"sweeper"`
	Mail struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		From     string `mapstructure:"from"`
		FromName string `mapstructure:"from_name"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"mail"`
	RateLimit struct {
		MePerMinute int `mapstructure:"me_per_minute"`
	} `mapstructure:"ratelimit"`
}

// AccessTokenTTL returns the access token lifetime as a duration.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLDays) * 24 * time.Hour
}

// ActionTokenTTL returns the lifetime of email-confirmation and
// password-reset tokens.
func (c *Config) ActionTokenTTL() time.Duration {
	return time.Duration(c.JWT.ActionTTLMinutes) * time.Minute
}

// ClockLeeway returns the tolerated clock skew for token validation.
func (c *Config) ClockLeeway() time.Duration {
	return time.Duration(c.JWT.LeewaySeconds) * time.Second
}

// SweeperInterval returns how often the token sweeper runs.
func (c *Config) SweeperInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalMinutes) * time.Minute
}

// SweeperRetention returns how long revoked rows are kept before purge.
func (c *Config) SweeperRetention() time.Duration {
	return time.Duration(c.Sweeper.RetentionDays) * 24 * time.Hour
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("jwt.access_ttl_minutes", 15)
	viper.SetDefault("jwt.refresh_ttl_days", 7)
	viper.SetDefault("jwt.action_ttl_minutes", 60)
	viper.SetDefault("jwt.leeway_seconds", 30)
	viper.SetDefault("sweeper.interval_minutes", 60)
	viper.SetDefault("sweeper.retention_days", 7)
	viper.SetDefault("sweeper.batch_size", 1000)
	viper.SetDefault("ratelimit.me_per_minute", 10)
}
