package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Driver names accepted by DATABASE_DRIVER, STORAGE_DRIVER and ACCOUNTS_DRIVER
const (
	DriverFirestore = "firestore"
	DriverFirebase  = "firebase"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	PublicURL               string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	FirebaseAPIKey          string
	StorageBucket           string
	DatabaseDriver          string
	StorageDriver           string
	AccountsDriver          string
	DatabaseID              string
	MongoURI                string
	UsersCollection         string
	PostsCollection         string
	SavesCollection         string
	PostgresUrl             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	JWTSecret               string
	SessionTTL              time.Duration
}

// defaultJWTSecret only suits local development
const defaultJWTSecret = "supersecretjwtkey"

var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production")

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	port := getEnv("PORT", "8080")
	return &Config{
		Port:                    port,
		Env:                     getEnv("ENV", "development"),
		PublicURL:               getEnv("PUBLIC_URL", "http://localhost:"+port),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", "media"),
		DatabaseDriver:          getEnv("DATABASE_DRIVER", DriverFirestore),
		StorageDriver:           getEnv("STORAGE_DRIVER", DriverFirebase),
		AccountsDriver:          getEnv("ACCOUNTS_DRIVER", DriverFirebase),
		DatabaseID:              getEnv("DATABASE_ID", "snapgram"),
		MongoURI:                getEnv("MONGO_URI", ""),
		UsersCollection:         getEnv("USERS_COLLECTION", "users"),
		PostsCollection:         getEnv("POSTS_COLLECTION", "posts"),
		SavesCollection:         getEnv("SAVES_COLLECTION", "saves"),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:              getEnvDuration("SESSION_TTL", 72*time.Hour),
	}
}

// Validate rejects settings the server must not run with
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return ErrInsecureSecret
	}
	return nil
}

// IsProduction reports whether ENV selects production behavior
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
