package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Notification Notification
	Timer        Timer
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Notification struct {
	// FeedSize bounds the per-recipient in-memory notification feed.
	FeedSize int
	// FetchWindow is how many recent rows are re-fetched after a dropped
	// subscription or on feed startup.
	FetchWindow int
}

type Timer struct {
	// TickSeconds is the attempt countdown recompute cadence.
	TickSeconds int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("NOTIFICATION_FEED_SIZE", 50)
	viper.SetDefault("NOTIFICATION_FETCH_WINDOW", 50)
	viper.SetDefault("TIMER_TICK_SECONDS", 1)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Notification.FeedSize = viper.GetInt("NOTIFICATION_FEED_SIZE")
	config.Notification.FetchWindow = viper.GetInt("NOTIFICATION_FETCH_WINDOW")
	config.Timer.TickSeconds = viper.GetInt("TIMER_TICK_SECONDS")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}
