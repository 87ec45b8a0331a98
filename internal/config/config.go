package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Supabase  SupabaseConfig  `yaml:"supabase" mapstructure:"supabase"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Split     SplitConfig     `yaml:"split" mapstructure:"split"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// JinaConfig holds Jina AI embeddings and reader settings. Input length is
// capped by ingest.embed_input_chars, which applies to queries as well.
type JinaConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	ReadBaseURL string `yaml:"read_base_url" mapstructure:"read_base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	Dimension   int    `yaml:"dimension" mapstructure:"dimension"`
}

// SupabaseConfig holds Supabase Storage settings for PDF uploads.
type SupabaseConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
	PathPrefix string `yaml:"path_prefix" mapstructure:"path_prefix"`
}

// AnthropicConfig holds Anthropic API settings for layout orchestration.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MutoolPath    string `yaml:"mutool_path" mapstructure:"mutool_path"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxOutputMB   int    `yaml:"max_output_mb" mapstructure:"max_output_mb"`
	MinTextChars  int    `yaml:"min_text_chars" mapstructure:"min_text_chars"`
	CacheBackend  bool   `yaml:"cache_backend" mapstructure:"cache_backend"`
}

// SplitConfig configures PDF page splitting.
type SplitConfig struct {
	PdfSeparatePath string `yaml:"pdfseparate_path" mapstructure:"pdfseparate_path"`
	MutoolPath      string `yaml:"mutool_path" mapstructure:"mutool_path"`
	QpdfPath        string `yaml:"qpdf_path" mapstructure:"qpdf_path"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// IngestConfig configures chunking and batch pacing.
type IngestConfig struct {
	ChunkMaxChars   int `yaml:"chunk_max_chars" mapstructure:"chunk_max_chars"`
	ChunkMinChars   int `yaml:"chunk_min_chars" mapstructure:"chunk_min_chars"`
	DocDelayMillis  int `yaml:"doc_delay_millis" mapstructure:"doc_delay_millis"`
	EmbedInputChars int `yaml:"embed_input_chars" mapstructure:"embed_input_chars"`
}

// RetrievalConfig bounds query-time retrieval.
type RetrievalConfig struct {
	MaxChunks int `yaml:"max_chunks" mapstructure:"max_chunks"`
	MaxAssets int `yaml:"max_assets" mapstructure:"max_assets"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("jina.base_url", "https://api.jina.ai")
	v.SetDefault("jina.read_base_url", "https://r.jina.ai")
	v.SetDefault("jina.model", "jina-embeddings-v3")
	v.SetDefault("jina.dimension", 1024)
	v.SetDefault("supabase.bucket", "documents")
	v.SetDefault("supabase.path_prefix", "case-studies")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.mutool_path", "mutool")
	v.SetDefault("extract.timeout_secs", 60)
	v.SetDefault("extract.max_output_mb", 10)
	v.SetDefault("extract.min_text_chars", 100)
	v.SetDefault("extract.cache_backend", true)
	v.SetDefault("split.pdfseparate_path", "pdfseparate")
	v.SetDefault("split.mutool_path", "mutool")
	v.SetDefault("split.qpdf_path", "qpdf")
	v.SetDefault("split.timeout_secs", 120)
	v.SetDefault("ingest.chunk_max_chars", 1500)
	v.SetDefault("ingest.chunk_min_chars", 50)
	v.SetDefault("ingest.doc_delay_millis", 300)
	v.SetDefault("ingest.embed_input_chars", 8000)
	v.SetDefault("retrieval.max_chunks", 8)
	v.SetDefault("retrieval.max_assets", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
