package config

import "os"

type Config struct {
	Port        string
	Env         string
	DBDriver    string
	PostgresURL string
	SQLitePath  string
	MongoURI    string
	JWTSecret   string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		PostgresURL: getEnv("POSTGRES_CONN_STR", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "taskmaster.db"),
		MongoURI:    getEnv("MONGO_URI", ""),
		JWTSecret:   getEnv("JWT_SECRET", "supersecretjwtkey"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
