package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/logging"
)

type AppConfigEntsoe struct {
	ApiToken string `mapstructure:"api_token"` // Security token from the transparency platform account page
	// Country name looked up in Countries, ignored when Area is set
	Country string `mapstructure:"country"`
	// EIC code of the bidding zone, e.g. "10Y1001A1001A82H"
	Area string `mapstructure:"area"`
	// Tax in percent added on top of the spot price, e.g. 19 for 19% VAT
	Tax               float64 `mapstructure:"tax"`
	RoundingPrecision *int32  `mapstructure:"rounding_precision"`
	// "per-kWh" (cnt/kWh) or "per-MWh" (EUR/MWh), default: "per-kWh"
	Unit     string `mapstructure:"unit"`
	Timezone string `mapstructure:"timezone"` // Market timezone, default: "Europe/Berlin"
	// Only accept EUR, MWH and PT60M series, default: true
	Strict *bool `mapstructure:"strict"`
	// Synthesize hours the provider left out, default: true
	FillMissing *bool         `mapstructure:"fill_missing"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BaseURL     string        `mapstructure:"base_url"`
	RateLimit   int           `mapstructure:"rate_limit"` // Requests per second
	RunAt       string        `mapstructure:"run_at"`
}

func (e AppConfigEntsoe) GetRoundingPrecision() int32 {
	if e.RoundingPrecision == nil {
		return 2
	}
	return *e.RoundingPrecision
}

func (e AppConfigEntsoe) GetStrict() bool {
	return e.Strict == nil || *e.Strict
}

func (e AppConfigEntsoe) GetFillMissing() bool {
	return e.FillMissing == nil || *e.FillMissing
}

func (e AppConfigEntsoe) GetUnit() (calc.Unit, error) {
	return calc.ParseUnit(e.Unit)
}

func (e AppConfigEntsoe) GetLocation() (*time.Location, error) {
	return hours.LoadLocation(e.Timezone)
}

// GetArea resolves the bidding zone, an explicit area wins over the country.
func (e AppConfigEntsoe) GetArea() (string, error) {
	if e.Area != "" {
		return e.Area, nil
	}
	return AreaForCountry(e.Country)
}

type AppConfigMqtt struct {
	// Broker URL, e.g. "tcp://localhost:1883". Publishing is disabled when empty.
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string
	Password string
	// Topic prefix, default: "spotprice"
	TopicPrefix *string `mapstructure:"topic_prefix"`
	Qos         byte    `mapstructure:"qos"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Broker != ""
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "spotprice"
	}
	return strings.TrimSuffix(*m.TopicPrefix, "/")
}

type AppConfigApi struct {
	Address string
	Port    int
}

type AppConfigDatabase struct {
	Path string
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Entsoe   AppConfigEntsoe
	Mqtt     AppConfigMqtt
	Api      AppConfigApi
	Database AppConfigDatabase
	Logging  AppConfigLogging
}

// Validate checks what can't be defaulted, before anything is started.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Entsoe.ApiToken == "" {
		errs = append(errs, errors.New("entsoe.api_token is required"))
	}
	if _, err := c.Entsoe.GetArea(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Entsoe.GetUnit(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Entsoe.GetLocation(); err != nil {
		errs = append(errs, err)
	}
	if p := c.Entsoe.GetRoundingPrecision(); p < 0 {
		errs = append(errs, fmt.Errorf("entsoe.rounding_precision must not be negative, got %d", p))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("entsoe.timezone", "Europe/Berlin")
	v.SetDefault("entsoe.unit", "per-kWh")
	v.SetDefault("entsoe.timeout", "10s")
	v.SetDefault("entsoe.base_url", "https://web-api.tp.entsoe.eu/api")
	v.SetDefault("entsoe.rate_limit", 5)
	v.SetDefault("entsoe.run_at", "15 13 * * *")
	v.SetDefault("mqtt.client_id", "spotprice")
	v.SetDefault("api.address", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.path", "spotprice.db")
}

// Loader reads the config file and keeps the viper instance for Watch.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader for path, or config/config.yaml when empty. A
// .env file in the working directory is loaded into the environment first,
// real environment variables win over it.
func NewLoader(path string) *Loader {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("can't load .env file", slog.Any("error", err))
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return &Loader{v: v}
}

// Load reads the config. A missing file is fine when no explicit path was
// given, everything can come from the environment then.
func (l *Loader) Load() (*AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{"entsoe.api_token", "entsoe.country", "entsoe.area", "entsoe.tax", "mqtt.broker", "mqtt.username", "mqtt.password"} {
		if err := l.v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("unable to bind env for %s: %w", key, err)
		}
	}

	var c AppConfig
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// Watch calls onChange with the reloaded config every time the file is
// written. A file that no longer parses is logged and ignored.
func (l *Loader) Watch(logger *slog.Logger, onChange func(*AppConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed", slog.String("file", e.Name))

		var c AppConfig
		if err := l.v.Unmarshal(&c); err != nil {
			logger.Error("can't reload config", slog.Any("error", err))
			return
		}
		onChange(&c)
	})
	l.v.WatchConfig()
}

// Load is NewLoader(path).Load().
func Load(path string) (*AppConfig, error) {
	return NewLoader(path).Load()
}
