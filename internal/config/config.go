package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"postcard_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postcard_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"postcard_db"`

	RedisCacheHost string `env:"REDIS_CACHE_HOST" envDefault:"localhost"`
	RedisCachePort uint16 `env:"REDIS_CACHE_PORT" envDefault:"6379"   validate:"min=1000,max=65535"`

	UploadsPath string `env:"UPLOADS_PATH" envDefault:"/usr/share/uploads"`

	// Delay between a room becoming empty and its state becoming
	// eligible for deletion.
	RoomGracePeriod time.Duration `env:"ROOM_GRACE_PERIOD" envDefault:"10s" validate:"min=0"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
