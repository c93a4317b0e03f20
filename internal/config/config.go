package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port     string
	DBPath   string
	LogMode  string
	LogLevel string

	// 数据集
	DatasetRoot   string
	ManifestName  string
	LabelFileName string

	// 导入
	BatchSize    int
	ParseWorkers int
	MaxDataLines int
	ResetSchema  bool
}

// Load 加载配置: defaults, then an optional file named by GEOLIFE_CONFIG,
// then environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", ":8080")
	v.SetDefault("db_path", "./data/geolife.db")
	v.SetDefault("log_mode", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("dataset_root", "./dataset")
	v.SetDefault("manifest_name", "labeled_ids.txt")
	v.SetDefault("label_file_name", "labels.txt")
	v.SetDefault("ingest_batch_size", 1000)
	v.SetDefault("ingest_parse_workers", 4)
	v.SetDefault("ingest_max_data_lines", 2500)
	v.SetDefault("reset_schema", true)

	v.AutomaticEnv()

	if path := os.Getenv("GEOLIFE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		DBPath:        v.GetString("db_path"),
		LogMode:       v.GetString("log_mode"),
		LogLevel:      v.GetString("log_level"),
		DatasetRoot:   v.GetString("dataset_root"),
		ManifestName:  v.GetString("manifest_name"),
		LabelFileName: v.GetString("label_file_name"),
		BatchSize:     v.GetInt("ingest_batch_size"),
		ParseWorkers:  v.GetInt("ingest_parse_workers"),
		MaxDataLines:  v.GetInt("ingest_max_data_lines"),
		ResetSchema:   v.GetBool("reset_schema"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.ParseWorkers < 1 {
		return fmt.Errorf("INGEST_PARSE_WORKERS must be positive, got %d", c.ParseWorkers)
	}
	if c.MaxDataLines < 1 {
		return fmt.Errorf("INGEST_MAX_DATA_LINES must be positive, got %d", c.MaxDataLines)
	}
	return nil
}
