package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/schemarag/schemarag/internal/model"
)

type Config struct {
	Port              int              `json:"port"`
	JWTSecret         string           `json:"jwt_secret"`
	JWTTTLHours       int              `json:"jwt_ttl_hours"`
	Operator          OperatorConfig   `json:"operator"`
	CORSOrigins       []string         `json:"cors_origins"`
	RateLimitWindowMS int              `json:"rate_limit_window_ms"`
	LogConfig         logger.LogConfig `json:"log_config"`
	Database          DatabaseConfig   `json:"database"`
	AI                AIConfig         `json:"ai"`
	EmbedCache        EmbedCacheConfig `json:"embed_cache"`
	Discovery         DiscoveryConfig  `json:"discovery"`
	Search            SearchConfig     `json:"search"`
	Refresh           RefreshConfig    `json:"refresh"`
	FileStore         FileStoreConfig  `json:"file_store"`
}

// OperatorConfig is the single login the HTTP API accepts. The password hash
// is produced by the hash-password subcommand.
type OperatorConfig struct {
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// DatabaseConfig points at the postgres instance backing the vector store.
// Either dsn or the discrete fields may be set.
type DatabaseConfig struct {
	DSN          string `json:"dsn"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"db_name"`
	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type AIConfig struct {
	Provider      string                 `json:"provider"`
	Model         string                 `json:"model"`
	EmbedProvider string                 `json:"embed_provider"`
	EmbedModel    string                 `json:"embed_model"`
	Timeout       int                    `json:"timeout"`
	Data          map[string]interface{} `json:"data"`
	EmbedData     map[string]interface{} `json:"embed_data"`
	Fallbacks     []AIFallbackConfig     `json:"fallbacks"`
}

// AIFallbackConfig is an extra provider tried in order when the one before it
// fails. A fallback without embed_model only serves text generation.
type AIFallbackConfig struct {
	Provider   string                 `json:"provider"`
	Model      string                 `json:"model"`
	EmbedModel string                 `json:"embed_model"`
	Data       map[string]interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	LRUSize    int  `json:"lru_size"`
	TTLMinutes int  `json:"ttl_minutes"`
	UseDBCache bool `json:"use_db_cache"`
}

type DiscoveryConfig struct {
	Targets          []model.ConnectionConfig `json:"targets"`
	SampleSize       int                      `json:"sample_size"`
	MaxFieldDepth    int                      `json:"max_field_depth"`
	MaxParallelEmbed int                      `json:"max_parallel_embed"`
}

type SearchConfig struct {
	DefaultLimit       int  `json:"default_limit"`
	NoSemanticFallback bool `json:"no_semantic_fallback"`
}

type RefreshConfig struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron"`
}

type FileStoreConfig struct {
	Type      string   `json:"type"`
	Dir       string   `json:"dir"`
	PublicURL string   `json:"public_url"`
	S3        S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Operator.PasswordHash == "" {
		return nil, fmt.Errorf("operator.password_hash is required, generate one with hash-password")
	}
	if cfg.Operator.Name == "" {
		cfg.Operator.Name = "admin"
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Host == "" || cfg.Database.DBName == "" {
			return nil, fmt.Errorf("database.dsn or database.host/db_name is required")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.User == "" {
			cfg.Database.User = "postgres"
		}
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if err := validateAI(&cfg.AI); err != nil {
		return nil, err
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 1024
	}
	if cfg.EmbedCache.TTLMinutes == 0 {
		cfg.EmbedCache.TTLMinutes = 60
	}
	if err := validateDiscovery(&cfg.Discovery); err != nil {
		return nil, err
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Refresh.Enabled && cfg.Refresh.Cron == "" {
		cfg.Refresh.Cron = "0 2 * * *"
	}
	if err := validateFileStore(&cfg.FileStore); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateAI(ai *AIConfig) error {
	if ai.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if ai.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if ai.EmbedModel == "" {
		return fmt.Errorf("ai.embed_model is required")
	}
	if ai.EmbedProvider == "" {
		ai.EmbedProvider = ai.Provider
	}
	if ai.EmbedData == nil {
		ai.EmbedData = ai.Data
	}
	if ai.Timeout == 0 {
		ai.Timeout = 30
	}
	for i, fb := range ai.Fallbacks {
		if fb.Provider == "" {
			return fmt.Errorf("ai.fallbacks[%d].provider is required", i)
		}
		if fb.Model == "" {
			return fmt.Errorf("ai.fallbacks[%d].model is required", i)
		}
	}
	return nil
}

func validateDiscovery(d *DiscoveryConfig) error {
	if d.SampleSize == 0 {
		d.SampleSize = 100
	}
	if d.MaxFieldDepth == 0 {
		d.MaxFieldDepth = 5
	}
	if d.MaxParallelEmbed == 0 {
		d.MaxParallelEmbed = 4
	}
	seen := make(map[string]struct{}, len(d.Targets))
	for i, t := range d.Targets {
		if t.Name == "" {
			return fmt.Errorf("discovery.targets[%d].name is required", i)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("discovery.targets[%d].name %q is duplicated", i, t.Name)
		}
		seen[t.Name] = struct{}{}
		parsed, err := model.ParseDatabaseType(string(t.Type))
		if err != nil {
			return fmt.Errorf("discovery.targets[%d]: %w", i, err)
		}
		d.Targets[i].Type = parsed
		switch parsed {
		case model.DatabaseTypeSQLite:
			if t.Path == "" && t.Database == "" {
				return fmt.Errorf("discovery.targets[%d].path is required for sqlite", i)
			}
		case model.DatabaseTypeMongoDB:
			if t.URI == "" && (t.Host == "" || t.Database == "") {
				return fmt.Errorf("discovery.targets[%d] needs uri or host/database for mongodb", i)
			}
		default:
			if t.Host == "" || t.Database == "" {
				return fmt.Errorf("discovery.targets[%d].host/database are required", i)
			}
		}
	}
	return nil
}

func validateFileStore(fs *FileStoreConfig) error {
	if fs.Type == "" {
		fs.Type = "local"
	}
	switch fs.Type {
	case "local":
		if fs.Dir == "" {
			fs.Dir = "./exports"
		}
	case "s3":
		if fs.S3.Endpoint == "" || fs.S3.Bucket == "" || fs.S3.SecretID == "" || fs.S3.SecretKey == "" {
			return fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if fs.S3.Region == "" {
			fs.S3.Region = "us-east-1"
		}
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	return nil
}
