package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	LogPretty                     bool          `mapstructure:"LOG_PRETTY"`
	SupabaseURL                   string        `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey               string        `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseTable                 string        `mapstructure:"SUPABASE_TABLE"`
	RemoteTimeout                 time.Duration `mapstructure:"REMOTE_TIMEOUT"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	AdminPasscode                 string        `mapstructure:"ADMIN_PASSCODE"`
	SummaryAPIURL                 string        `mapstructure:"SUMMARY_API_URL"`
	SummaryAPIKey                 string        `mapstructure:"SUMMARY_API_KEY"`
	SummaryModel                  string        `mapstructure:"SUMMARY_MODEL"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	EnableCORS                    bool          `mapstructure:"ENABLE_CORS"`
	CORSOrigins                   []string      `mapstructure:"CORS_ORIGINS"`
}

// LoadConfig reads the configuration from the environment. Setting
// DATABASE_PATH to the empty string disables local persistence.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "registrations.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("SUPABASE_TABLE", "registrations")
	v.SetDefault("REMOTE_TIMEOUT", 10*time.Second)
	v.SetDefault("ADMIN_PASSCODE", "admin")
	v.SetDefault("SUMMARY_API_URL", "https://api.openai.com/v1")
	v.SetDefault("SUMMARY_MODEL", "gpt-4o-mini")
	v.SetDefault("ENABLE_CORS", false)
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:5173"})

	for _, key := range []string{
		"SUPABASE_URL",
		"SUPABASE_ANON_KEY",
		"JWT_SECRET",
		"SUMMARY_API_KEY",
		"DISCORD_BOT_TOKEN",
		"DISCORD_NOTIFICATIONS_CHANNEL_ID",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &config, nil
}
