// Package config loads the pipeline configuration from an optional YAML file
// overlaid by environment variables. A .env file in the working directory is
// read first, so deployments can keep everything in one flat key=value file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for one pipeline process.
type Config struct {
	CSV        CSVConfig        `yaml:"csv"`
	Datas      DatasConfig      `yaml:"datas"`
	Inactivity InactivityConfig `yaml:"inactivity"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
}

// CSVConfig describes where source files live and how they are parsed.
type CSVConfig struct {
	Separator         string `yaml:"separator"`
	PathDirectory     string `yaml:"path_directory"`
	TemplateDirectory string `yaml:"template_directory"`
	// FilePattern must contain exactly one capture group; the captured text
	// becomes the source's short name.
	FilePattern        string `yaml:"file_pattern"`
	FileName           string `yaml:"file_name"`
	FileNameForDTA     string `yaml:"file_name_for_dta"`
	FileNameForChecker string `yaml:"file_name_for_checker"`
}

// DatasConfig controls the derived-field rules and rounding.
type DatasConfig struct {
	MaxWidth          int    `yaml:"max_width"`
	DecimalPlaces     int    `yaml:"decimal_places"`
	NameOfProductType string `yaml:"name_of_product_type"`
}

// InactivityConfig bounds the source-file staleness check.
type InactivityConfig struct {
	LimitHours int `yaml:"limit_hours"`
}

// TelegramConfig configures the outbound notification client.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// ChatID may be a "chat/thread" composite.
	ChatID       string `yaml:"chat_id"`
	ParseMode    string `yaml:"parse_mode"` // Markdown, MarkdownV2, HTML or empty
	MaxMsgLength int    `yaml:"max_msg_length"`
	LineHeight   int    `yaml:"line_height"`
	// APIURL overrides the Telegram endpoint, used by tests.
	APIURL string `yaml:"api_url"`
}

// StoreConfig locates the run-history database and the status API.
type StoreConfig struct {
	Path    string `yaml:"path"`
	APIAddr string `yaml:"api_addr"`
}

// LogConfig controls zap construction.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load builds the configuration: .env file (if present), then the YAML file
// at path (if present), then environment variable overrides, then defaults.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit variables still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fall through to env + defaults.
		default:
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.CSV.Separator, "CSV_SEPARATOR")
	setString(&c.CSV.PathDirectory, "CSV_PATH_DIRECTORY")
	setString(&c.CSV.TemplateDirectory, "CSV_PATH_TEMPLATE_DIRECTORY")
	setString(&c.CSV.FilePattern, "CSV_FILE_PATTERN")
	setString(&c.CSV.FileName, "CSV_FILE_NAME")
	setString(&c.CSV.FileNameForDTA, "CSV_FILE_NAME_FOR_DTA")
	setString(&c.CSV.FileNameForChecker, "CSV_FILE_NAME_FOR_CHECKER")

	setInt(&c.Datas.MaxWidth, "DATAS_MAX_WIDTH")
	setInt(&c.Datas.DecimalPlaces, "DATAS_DECIMAL_PLACES")
	setString(&c.Datas.NameOfProductType, "DATAS_NAME_OF_PRODUCT_TYPE")

	setInt(&c.Inactivity.LimitHours, "INACTIVITY_LIMIT_HOURS")

	setString(&c.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Telegram.ParseMode, "TELEGRAM_PARSE_MODE")
	setInt(&c.Telegram.MaxMsgLength, "TELEGRAM_MAX_MSG_LENGTH")
	setInt(&c.Telegram.LineHeight, "TELEGRAM_LINE_HEIGHT")
	setString(&c.Telegram.APIURL, "TELEGRAM_API_URL")

	setString(&c.Store.Path, "STORE_PATH")
	setString(&c.Store.APIAddr, "STORE_API_ADDR")

	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.CSV.Separator == "" {
		c.CSV.Separator = ";"
	}
	if c.Datas.MaxWidth == 0 {
		c.Datas.MaxWidth = 200
	}
	if c.Datas.DecimalPlaces == 0 {
		c.Datas.DecimalPlaces = 2
	}
	if c.Inactivity.LimitHours == 0 {
		c.Inactivity.LimitHours = 24
	}
	if c.Telegram.MaxMsgLength == 0 {
		c.Telegram.MaxMsgLength = 4096
	}
	// A negative line height would make the message selector unbuildable.
	if c.Telegram.LineHeight <= 0 {
		c.Telegram.LineHeight = 30
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Store.Path == "" {
		c.Store.Path = "merge_runs.db"
	}
	if c.Store.APIAddr == "" {
		c.Store.APIAddr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if len(c.CSV.Separator) != 1 {
		return fmt.Errorf("csv separator must be a single character, got %q", c.CSV.Separator)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
