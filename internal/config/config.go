package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int
	DBPath       string
	Threshold    int // порог принятия кандидата; 0 = дефолт движка
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8083"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	thr, _ := strconv.Atoi(getenv("SCORE_THRESHOLD", "0"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/nameres-service.log"),
		MaxUploadMB:  mb,
		DBPath:       getenv("DB_PATH", "data/nameres.db"),
		Threshold:    thr,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
