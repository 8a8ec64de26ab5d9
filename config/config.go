package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	BackendDynamo   = "dynamo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	DevMode    bool
	Production bool
	HostPort   string

	BoardPassword        string
	JWTSecret            string
	GuardVerifySignature bool

	StoreBackend     string
	DynamoDBEndpoint string
	DynamoDBTable    string
	DatabaseURL      string

	// Optional: the cache is disabled when RedisEndpoint is empty, the
	// board-saved queue when SQSQueue is empty.
	RedisEndpoint string
	SQSEndpoint   string
	SQSQueue      string

	StaticDir          string
	LoginRatePerMinute int
}

// Load reads envFiles (".env" by default) into the process environment when
// they exist, then builds the Config from the environment. Variables already
// set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	loginRate, err := getenvInt("LOGIN_RATE_PER_MINUTE", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DevMode:    os.Getenv("DEV_MODE") == "true",
		Production: os.Getenv("PRODUCTION") == "true",
		HostPort:   getenv("HOST_PORT", "8080"),

		BoardPassword:        os.Getenv("BOARD_PASSWORD"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		GuardVerifySignature: os.Getenv("GUARD_VERIFY_SIGNATURE") == "true",

		StoreBackend:     getenv("STORE_BACKEND", BackendDynamo),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		DynamoDBTable:    getenv("DYNAMODB_TABLE", "Stickyboard"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),

		RedisEndpoint: os.Getenv("REDIS_ENDPOINT"),
		SQSEndpoint:   os.Getenv("SQS_ENDPOINT"),
		SQSQueue:      os.Getenv("SQS_QUEUE"),

		StaticDir:          os.Getenv("STATIC_DIR"),
		LoginRatePerMinute: loginRate,
	}, nil
}

// Validate reports settings that would make startup fail later. A missing
// password or secret is not an error here: the service answers with a server
// configuration error instead.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamo:
		if c.DynamoDBTable == "" {
			return errors.New("DYNAMODB_TABLE is required for the dynamo backend")
		}
		if c.DevMode && c.DynamoDBEndpoint == "" {
			return errors.New("DYNAMODB_ENDPOINT is required for the dynamo backend in dev mode")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.SQSQueue != "" {
		if c.RedisEndpoint == "" {
			return errors.New("SQS_QUEUE requires REDIS_ENDPOINT: the queue only feeds the cache warmer")
		}
		if c.DevMode && c.SQSEndpoint == "" {
			return errors.New("SQS_ENDPOINT is required for SQS_QUEUE in dev mode")
		}
	}

	if c.LoginRatePerMinute < 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE must not be negative")
	}

	return nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
