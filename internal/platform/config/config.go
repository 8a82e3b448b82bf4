package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Duration accepts "7d", "12h", "30m", "1w" or a bare number of seconds,
// the same forms the front end deployment already uses for JWT_EXPIRES_IN.
type Duration time.Duration

func (d *Duration) SetValue(s string) error {
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	HTTP  HTTPConfig
	DB    DBConfig
	JWT   JWTConfig
	Redis RedisConfig
	Log   LogConfig
}

type HTTPConfig struct {
	Port       string `env:"PORT" env-required:"true"`
	BasePath   string `env:"API_BASE_PATH" env-default:"/api"`
	CORSOrigin string `env:"CORS_ORIGIN" env-required:"true"`

	ReadTimeout  Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"120s"`
}

type DBConfig struct {
	URL            string   `env:"DATABASE_URL" env-required:"true"`
	ConnectTimeout Duration `env:"DB_CONNECT_TIMEOUT" env-default:"5s"`
}

type JWTConfig struct {
	Secret    string   `env:"JWT_SECRET" env-required:"true"`
	ExpiresIn Duration `env:"JWT_EXPIRES_IN" env-required:"true"`
}

// RedisConfig is optional. When neither URL nor Addr is set the profile
// cache is disabled.
type RedisConfig struct {
	URL      string   `env:"REDIS_URL" env-default:""`
	Addr     string   `env:"REDIS_ADDR" env-default:""`
	Password string   `env:"REDIS_PASSWORD" env-default:""`
	DB       int      `env:"REDIS_DB" env-default:"0"`
	TTL      Duration `env:"PROFILE_CACHE_TTL" env-default:"60s"`
}

func (c RedisConfig) Enabled() bool { return c.URL != "" || c.Addr != "" }

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// CORSOrigins splits CORS_ORIGIN into the list handed to the CORS middleware.
// "*" is kept as the single wildcard entry.
func (c HTTPConfig) CORSOrigins() []string {
	if strings.TrimSpace(c.CORSOrigin) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads .env (if present) and the process environment. A missing
// required variable is returned as an error; the caller treats it as fatal.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"PORT":         c.HTTP.Port,
		"CORS_ORIGIN":  c.HTTP.CORSOrigin,
		"DATABASE_URL": c.DB.URL,
		"JWT_SECRET":   c.JWT.Secret,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		c.HTTP.BasePath = "/" + c.HTTP.BasePath
	}
	c.HTTP.BasePath = strings.TrimSuffix(c.HTTP.BasePath, "/")
	return nil
}

// ParseDuration understands Go durations plus the d (day), w (week) and
// y (year) suffixes. A bare number is seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	units := map[byte]time.Duration{
		'd': 24 * time.Hour,
		'w': 7 * 24 * time.Hour,
		'y': 365 * 24 * time.Hour,
	}
	if unit, ok := units[s[len(s)-1]]; ok {
		n, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(n * float64(unit)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 7d, 12h, 30m or a number of seconds: %w", err)
	}
	return d, nil
}
