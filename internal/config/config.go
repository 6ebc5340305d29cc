package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config is the process configuration, read from the environment with an
// optional .env file for development.
type Config struct {
	Env  string
	Port string

	DBDialect string
	DBDSN     string

	RedisAddr     string
	RedisPassword string

	// Uploads go to an S3-compatible store when the endpoint is set,
	// otherwise to UploadDir on disk.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	UploadDir   string

	SigningKey string
}

// LoadConfig reads the configuration. A missing .env file is not an error;
// production sets real environment variables.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment")
	}

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "4030"),

		DBDialect: getEnv("DB_DIALECT", "sqlite"),
		DBDSN:     getEnv("DB_DSN", ".data/measures.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "measure-uploads"),
		S3UseSSL:    getEnv("S3_USE_SSL", "false") == "true",
		UploadDir:   getEnv("UPLOAD_DIR", ".data/uploads"),

		SigningKey: getEnv("SIGNING_KEY", "dev-signing-key"),
	}
}

// GetDb opens the configured database connection.
func GetDb(cfg *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DBDialect {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		panic(fmt.Sprintf("unknown db dialect %q", cfg.DBDialect))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
