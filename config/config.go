package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	DataDir       string
	SinkURL       string
	SinkTimeout   time.Duration
	SubmitURL     string
	AdminPassword string
	TokenTTL      time.Duration
	IdleTTL       time.Duration
	Dev           bool
	QuestionsFile string
	Debug         bool
}

// ParseFlags loads a .env file when there is one, then parses the command line.
func ParseFlags() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return Parse(os.Args[1:])
}

// Parse reads the configuration from args; environment variables
// provide the defaults of the flags that have one.
func Parse(args []string) (cfg Config, err error) {
	flags := flag.NewFlagSet("pathfinders", flag.ContinueOnError)

	var host string
	flags.StringVar(&host, "host", getEnv("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flags.UintVar(&port, "port", uint(getEnvAsInt("PORT", 3000)), "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", getEnv("DB_URL", "pathfinders.sqlite"), "path to SQLite3 DB file")
	flags.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", "data-collection"), "directory for the submission JSON logs")
	flags.StringVar(&cfg.SinkURL, "sink-url", getEnv("GOOGLE_APPS_SCRIPT_URL", ""), "spreadsheet script URL (built-in URL when empty)")
	flags.DurationVar(&cfg.SinkTimeout, "sink-timeout", getEnvAsDuration("SINK_TIMEOUT", 10*time.Second), "timeout of each submission")
	flags.StringVar(&cfg.SubmitURL, "submit-url", getEnv("SUBMIT_URL", ""), "remote step submission endpoint (in-process when empty)")
	flags.StringVar(&cfg.AdminPassword, "admin-password", getEnv("ADMIN_PASSWORD", ""), "password of the admin viewer")
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", 24*time.Hour, "admin token TTL")
	flags.DurationVar(&cfg.IdleTTL, "idle-ttl", 24*time.Hour, "evict funnels idle for longer than this")
	flags.BoolVar(&cfg.Dev, "dev", getEnv("APP_ENV", "development") != "production", "expose the admin submission listings")
	flags.StringVar(&cfg.QuestionsFile, "questions", "", "YAML question catalog (built-in when empty)")
	flags.BoolVar(&cfg.Debug, "debug", getEnvAsBool("DEBUG", false), "log at DEBUG level")

	if err = flags.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if cfg.AdminPassword == "" {
		err = errors.New("missing parameter -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
