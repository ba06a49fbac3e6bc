package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Simplici0/nactco/internal/engine"
)

const envPrefix = "NACTCO"

// Config holds application configuration sourced from config.yaml, a local
// .env file and NACTCO_* environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Defaults engine.Config  `mapstructure:"defaults"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AdminConfig struct {
	Email         string `mapstructure:"email"`
	Password      string `mapstructure:"password"`
	SessionSecret string `mapstructure:"session_secret"`
}

// CacheConfig controls the per-vendor result cache. A zero TTL keeps entries
// until the catalog changes.
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// EngineConfig carries the model tunables that are not part of a single
// calculation's input.
type EngineConfig struct {
	SupportRate         float64 `mapstructure:"support_rate"`
	RiskScalingConstant float64 `mapstructure:"risk_scaling_constant"`
	Comparator          string  `mapstructure:"comparator"`
}

// IsDev reports whether the server runs in development mode.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Server.Env, "dev") || strings.EqualFold(c.Server.Env, "development")
}

// Load builds the configuration. A missing .env or config.yaml is not an
// error; production should inject real environment variables.
func Load(log *zap.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/nactco/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.Admin.Email == "" {
		log.Warn("NACTCO_ADMIN_EMAIL is not set")
	}
	if cfg.Admin.Password == "" {
		log.Warn("NACTCO_ADMIN_PASSWORD is not set")
	}
	if cfg.Admin.SessionSecret == "" {
		log.Warn("NACTCO_ADMIN_SESSION_SECRET is not set")
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	d := engine.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "production")
	v.SetDefault("database.path", "./nactco.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.session_secret", "")
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.cleanup_interval", 5*time.Minute)
	v.SetDefault("engine.support_rate", 0.15)
	v.SetDefault("engine.risk_scaling_constant", 1.0)
	v.SetDefault("engine.comparator", string(engine.ComparatorAverage))

	v.SetDefault("defaults.device_count", d.DeviceCount)
	v.SetDefault("defaults.location_count", d.LocationCount)
	v.SetDefault("defaults.years_horizon", d.YearsHorizon)
	v.SetDefault("defaults.fte_cost", d.FTECost)
	v.SetDefault("defaults.breach_cost", d.BreachCost)
	v.SetDefault("defaults.annual_breach_probability", d.AnnualBreachProbability)
	v.SetDefault("defaults.downtime_cost_per_hour", d.DowntimeCostPerHour)
	v.SetDefault("defaults.compliance_penalty_risk", d.CompliancePenaltyRisk)
	v.SetDefault("defaults.discount_rate", d.DiscountRate)
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be ≥ 0, got %s", c.Cache.TTL))
	}
	if c.Engine.SupportRate < 0 {
		errs = append(errs, fmt.Errorf("engine.support_rate must be ≥ 0, got %v", c.Engine.SupportRate))
	}
	if c.Engine.RiskScalingConstant < 0 {
		errs = append(errs, fmt.Errorf("engine.risk_scaling_constant must be ≥ 0, got %v", c.Engine.RiskScalingConstant))
	}
	switch engine.ComparatorMode(c.Engine.Comparator) {
	case engine.ComparatorAverage, engine.ComparatorBest:
	default:
		errs = append(errs, fmt.Errorf("engine.comparator must be %q or %q, got %q",
			engine.ComparatorAverage, engine.ComparatorBest, c.Engine.Comparator))
	}
	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if !c.IsDev() && c.Admin.Password != "" && c.Admin.SessionSecret == "" {
		errs = append(errs, errors.New("admin.session_secret is required outside development"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
