package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the application-level configuration
type AppConfig struct {
	Port            int           `mapstructure:"port"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	MaxFileSize     int64         `mapstructure:"max_file_size"`
	MaxBufferSize   int64         `mapstructure:"max_buffer_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	TempDir         string        `mapstructure:"temp_dir"`
	PublicDir       string        `mapstructure:"public_dir"`
	LogDir          string        `mapstructure:"log_dir"`
	HistoryDBPath   string        `mapstructure:"history_db_path"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
}

var Config *AppConfig

func LoadConfig(path string) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	viper.SetDefault("port", 3000)
	viper.SetDefault("chunk_size", 256*1024)
	viper.SetDefault("max_file_size", int64(2)<<30)
	viper.SetDefault("max_buffer_size", int64(10)<<20)
	viper.SetDefault("cleanup_interval", "1h")
	viper.SetDefault("cors_origin", "*")
	viper.SetDefault("temp_dir", "./tmp/chunks")
	viper.SetDefault("public_dir", "./public")
	viper.SetDefault("log_dir", "./logs")
	viper.SetDefault("history_db_path", "./data/history")
	viper.SetDefault("ping_interval", "25s")
	viper.SetDefault("pong_timeout", "60s")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Could not read config file, using defaults: %v", err)
	}

	var appConfig AppConfig
	if err := viper.Unmarshal(&appConfig); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	Config = &appConfig

	fmt.Println("✅ Configuration loaded successfully.")
}
