package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Warehouse
	Warehouse       string // "bigquery" or "postgres"
	GCPProject      string
	CredentialsFile string
	TableName       string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Spreadsheet source
	DriveDirName string

	// Naver APIs
	NaverClientID      string
	NaverClientSecret  string
	SearchAdCustomerID string
	SearchAdAPIKey     string
	SearchAdSecret     string
	DataLabBaseURL     string
	SearchAdBaseURL    string
	HTTPTimeout        time.Duration
	HTTPMaxRetries     int
	RateLimitMs        int

	// Sync
	ChunkSize         int
	InsertMaxRetries  int
	InsertRetryDelay  time.Duration
	DefaultLatestDate time.Time
	DataLag           time.Duration

	// Disallowed execution window, "HH:MM" local time, exclusive on both ends.
	BlockWindowStart string
	BlockWindowEnd   string

	// Notification
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls" or "starttls"
	NotifyTo     []string

	// Optional outputs
	RowsCSVPath    string
	PushgatewayURL string
	LogLevel       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Warehouse:       strings.ToLower(getEnv("WAREHOUSE", "bigquery")),
		GCPProject:      getEnv("GCP_PROJECT", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		TableName:       getEnv("TABLE_NAME", "naver_trends"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "trends"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "trends"),
		PostgresDB:       getEnv("POSTGRES_DB", "trends"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DriveDirName: getEnv("GDRIVE_DIR_NAME", "nst_data"),

		NaverClientID:      getEnv("NAVER_CLIENT_ID", ""),
		NaverClientSecret:  getEnv("NAVER_CLIENT_SECRET", ""),
		SearchAdCustomerID: getEnv("SEARCHAD_CUSTOMER_ID", ""),
		SearchAdAPIKey:     getEnv("SEARCHAD_API_KEY", ""),
		SearchAdSecret:     getEnv("SEARCHAD_SECRET", ""),
		DataLabBaseURL:     getEnv("DATALAB_BASE_URL", "https://openapi.naver.com"),
		SearchAdBaseURL:    getEnv("SEARCHAD_BASE_URL", "https://api.naver.com"),
		HTTPTimeout:        getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		HTTPMaxRetries:     getEnvInt("HTTP_MAX_RETRIES", 3),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 200),

		ChunkSize:         getEnvInt("CHUNK_SIZE", 5),
		InsertMaxRetries:  getEnvInt("INSERT_MAX_RETRIES", 50),
		InsertRetryDelay:  getEnvDuration("INSERT_RETRY_DELAY", 500*time.Millisecond),
		DefaultLatestDate: getEnvDate("DEFAULT_LATEST_DATE", time.Date(2015, 12, 31, 0, 0, 0, 0, time.Local)),
		DataLag:           getEnvDuration("DATA_LAG", 34*time.Hour+30*time.Minute),

		BlockWindowStart: getEnv("BLOCK_WINDOW_START", "00:00"),
		BlockWindowEnd:   getEnv("BLOCK_WINDOW_END", "10:30"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Naver Trends"),
		SMTPTLS:      strings.ToLower(getEnv("SMTP_TLS", "starttls")),
		NotifyTo:     getEnvList("NOTIFY_TO"),

		RowsCSVPath:    getEnv("ROWS_CSV_PATH", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every required setting that is missing or malformed.
func (c *Config) Validate() error {
	var errs []error

	switch c.Warehouse {
	case "bigquery":
		if c.GCPProject == "" {
			errs = append(errs, errors.New("GCP_PROJECT is required for the bigquery warehouse"))
		}
	case "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown WAREHOUSE %q", c.Warehouse))
	}

	if c.CredentialsFile == "" {
		errs = append(errs, errors.New("GOOGLE_APPLICATION_CREDENTIALS is required"))
	}
	if c.NaverClientID == "" || c.NaverClientSecret == "" {
		errs = append(errs, errors.New("NAVER_CLIENT_ID and NAVER_CLIENT_SECRET are required"))
	}
	if c.SearchAdCustomerID == "" || c.SearchAdAPIKey == "" || c.SearchAdSecret == "" {
		errs = append(errs, errors.New("SEARCHAD_CUSTOMER_ID, SEARCHAD_API_KEY and SEARCHAD_SECRET are required"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.InsertMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("INSERT_MAX_RETRIES must not be negative, got %d", c.InsertMaxRetries))
	}
	if _, err := parseClock(c.BlockWindowStart); err != nil {
		errs = append(errs, fmt.Errorf("BLOCK_WINDOW_START: %w", err))
	}
	if _, err := parseClock(c.BlockWindowEnd); err != nil {
		errs = append(errs, fmt.Errorf("BLOCK_WINDOW_END: %w", err))
	}

	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// InDisallowedWindow reports whether now falls strictly inside the blocked
// window. A window whose end is before its start wraps past midnight.
func (c *Config) InDisallowedWindow(now time.Time) bool {
	start, err := parseClock(c.BlockWindowStart)
	if err != nil {
		return false
	}
	end, err := parseClock(c.BlockWindowEnd)
	if err != nil {
		return false
	}

	cur := now.Hour()*60 + now.Minute()
	if start <= end {
		return start < cur && cur < end
	}
	return cur > start || cur < end
}

// IsEmailEnabled returns true when enough SMTP settings exist to send mail.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && len(c.NotifyTo) > 0
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDate(key string, fallback time.Time) time.Time {
	if val := os.Getenv(key); val != "" {
		if t, err := time.ParseInLocation(dateLayout, val, time.Local); err == nil {
			return t
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
