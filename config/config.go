package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Database connection settings. Driver selects mysql or sqlite.
	Database struct {
		Driver   string `env:"DB_DRIVER" envDefault:"sqlite"`
		Host     string `env:"DB_HOST" envDefault:"localhost"`
		Port     int    `env:"DB_PORT" envDefault:"3306"`
		User     string `env:"DB_USER" envDefault:"root"`
		Password string `env:"DB_PASSWORD" envDefault:""`
		Name     string `env:"DB_NAME" envDefault:"properties"`

		// Path is the database file location when Driver is sqlite
		Path string `env:"DB_PATH" envDefault:"database/properties.db"`
	}

	// Batch loading configuration
	Load struct {
		// Number of bundles grouped per load step
		BatchSize int `env:"LOAD_BATCH_SIZE" envDefault:"100"`

		// Maximum number of retries for a failed bundle transaction
		MaxRetries int `env:"LOAD_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"LOAD_RETRY_DELAY" envDefault:"1"`
	}

	// File and directory locations
	Paths struct {
		InputFile    string `env:"ETL_INPUT_FILE" envDefault:"data/property_data.json"`
		FieldMapFile string `env:"ETL_FIELD_MAP" envDefault:"config/field_map.yaml"`
		LogDir       string `env:"ETL_LOG_DIR" envDefault:"logs"`
	}

	LogLevel string `env:"ETL_LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
