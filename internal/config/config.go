package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every config key when read from the environment
// (server.port -> TRAVELPLANNER_SERVER_PORT).
const EnvPrefix = "TRAVELPLANNER"

// Config is the root configuration shared by the launcher and the server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Launcher LauncherConfig `mapstructure:"launcher"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AI       AIConfig       `mapstructure:"ai"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port"`
	GinMode         string        `mapstructure:"gin_mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr joins address and port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

type LauncherConfig struct {
	AppName          string   `mapstructure:"app_name"`
	Manifest         string   `mapstructure:"manifest"`
	InstallCommand   []string `mapstructure:"install_command"`
	ServerCommand    []string `mapstructure:"server_command"`
	Address          string   `mapstructure:"address"`
	Port             int      `mapstructure:"port"`
	ProviderPackages []string `mapstructure:"provider_packages"`
	ProviderInstall  []string `mapstructure:"provider_install"`
}

type DatabaseConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Dataset   string `mapstructure:"dataset"`
	ProjectID string `mapstructure:"project_id"`
}

// DSN builds the go-sql-driver/mysql connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		d.User, d.Password, d.Host, d.Port, d.Dataset)
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	Model        string        `mapstructure:"model"`
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultProviderPackages are the provider tool servers installed by
// `launcher install-providers`.
var DefaultProviderPackages = []string{
	"@modelcontextprotocol/server-airbnb",
	"@modelcontextprotocol/server-booking",
	"@modelcontextprotocol/server-expedia",
	"@modelcontextprotocol/server-skyscanner",
	"@modelcontextprotocol/server-google-flights",
	"@modelcontextprotocol/server-viator",
	"@modelcontextprotocol/server-getyourguide",
}

// Load reads an optional .env file, the optional YAML file at path, then
// overlays environment variables with the TRAVELPLANNER_ prefix.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	return &cfg, nil
}

// bindLegacyEnv maps the unprefixed variable names documented for the
// application onto their config keys. The prefixed form still wins when set.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"ai.gemini_api_key":   "GEMINI_API_KEY",
		"maps.api_key":        "GOOGLE_MAPS_API_KEY",
		"database.project_id": "GCP_PROJECT_ID",
		"database.dataset":    "BIGQUERY_DATASET",
		"server.gin_mode":     "GIN_MODE",
	}
	for key, name := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8502)
	v.SetDefault("server.gin_mode", "")
	v.SetDefault("server.read_timeout", 20*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("launcher.app_name", "Advanced AI Travel Planner")
	v.SetDefault("launcher.manifest", "go.mod")
	// The server is built once and exec'd directly so its exit status reaches the launcher.
	v.SetDefault("launcher.install_command", []string{"go", "build", "-o", "bin/travelplanner-server", "./cmd/server"})
	v.SetDefault("launcher.server_command", []string{"./bin/travelplanner-server"})
	v.SetDefault("launcher.address", "0.0.0.0")
	v.SetDefault("launcher.port", 8502)
	v.SetDefault("launcher.provider_packages", DefaultProviderPackages)
	v.SetDefault("launcher.provider_install", []string{"npm", "install", "-g"})

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dataset", "travel_planner")
	v.SetDefault("database.project_id", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-1.5-pro")
	v.SetDefault("ai.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.timeout", 90*time.Second)

	v.SetDefault("maps.api_key", "")

	v.SetDefault("auth.jwt_secret", "change-me-travel-planner")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	})

	v.SetDefault("log.level", "info")
}

// splitList accepts both YAML lists and a single comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
