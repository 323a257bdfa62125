package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/at-ishikawa/studydesk/internal/validation"
)

type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver" validate:"oneof=file memory mysql"`
	Directory string `mapstructure:"directory" validate:"required_if=Driver file"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// CatalogConfig points at optional replacements for the embedded module and
// timetable definitions.
type CatalogConfig struct {
	ModulesFile   string `mapstructure:"modules_file" validate:"omitempty,file"`
	TimetableFile string `mapstructure:"timetable_file" validate:"omitempty,file"`
	Timezone      string `mapstructure:"timezone" validate:"required,timezone"`
}

type CalendarConfig struct {
	UpcomingLimit      int  `mapstructure:"upcoming_limit" validate:"min=1"`
	UpcomingFutureOnly bool `mapstructure:"upcoming_future_only"`
}

type PDFConfig struct {
	Engine          string `mapstructure:"engine" validate:"oneof=markdown chromium"`
	OutputDirectory string `mapstructure:"output_directory" validate:"required"`
	TemplateFile    string `mapstructure:"template_file" validate:"omitempty,file"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ClientConfig struct {
	ServerURL      string `mapstructure:"server_url" validate:"required,url"`
	RetryAttempts  uint   `mapstructure:"retry_attempts"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

type ConfigLoader struct {
	viper     *viper.Viper
	validator *validation.Validator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/studydesk")
	}

	return &ConfigLoader{
		viper:     v,
		validator: validate,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.directory", "data")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "studydesk")
	v.SetDefault("database.username", "user")
	// Catalog files are optional - the embedded defaults are used when empty
	v.SetDefault("catalog.modules_file", "")
	v.SetDefault("catalog.timetable_file", "")
	v.SetDefault("catalog.timezone", "UTC")
	v.SetDefault("calendar.upcoming_limit", 4)
	v.SetDefault("calendar.upcoming_future_only", false)
	v.SetDefault("pdf.engine", "markdown")
	v.SetDefault("pdf.output_directory", filepath.Join("exports"))
	v.SetDefault("pdf.template_file", "")
	v.SetDefault("pdf.timeout_seconds", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.retry_attempts", 3)
	v.SetDefault("client.timeout_seconds", 10)

	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "STUDYDESK_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind STUDYDESK_DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("client.server_url", "STUDYDESK_SERVER_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind STUDYDESK_SERVER_URL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
