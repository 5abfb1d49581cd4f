package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the project config file looked up in the working directory.
const DefaultFile = "kiwi.yaml"

type Config struct {
	KiwiDir         string   `yaml:"kiwiDir"`
	SrcLang         string   `yaml:"srcLang"`
	FileType        string   `yaml:"fileType"`
	ImportStatement string   `yaml:"importStatement"`
	Identifier      string   `yaml:"identifier"`
	IgnoreDirs      []string `yaml:"ignoreDirs"`
	IgnoreGlobs     []string `yaml:"ignoreGlobs"`
	Extensions      []string `yaml:"extensions"`

	// Seeder selects the seed provider: mnemonic, gemini or openai.
	Seeder           string `yaml:"seeder"`
	SeedSourceLang   string `yaml:"seedSourceLang"`
	SeedTargetLang   string `yaml:"seedTargetLang"`
	GeminiAPIKey     string `yaml:"-"`
	TranslationModel string `yaml:"translationModel"`
	OpenAIAPIKey     string `yaml:"-"`
	OpenAIModel      string `yaml:"openaiModel"`
	OpenAIBaseURL    string `yaml:"openaiBaseURL"`

	DatabaseURL   string `yaml:"databaseURL"`
	Neo4jURI      string `yaml:"neo4jURI"`
	Neo4jUser     string `yaml:"neo4jUser"`
	Neo4jPassword string `yaml:"-"`

	WorkerCount int    `yaml:"workerCount"`
	BatchSize   int    `yaml:"batchSize"`
	CacheSize   int    `yaml:"cacheSize"`
	LogLevel    string `yaml:"logLevel"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		KiwiDir:          ".kiwi",
		SrcLang:          "zh-CN",
		FileType:         "json",
		ImportStatement:  "import I18N from 'src/utils/I18N';",
		Identifier:       "I18N",
		IgnoreDirs:       []string{"node_modules", ".git", "dist", "build", "coverage"},
		Extensions:       []string{".ts", ".tsx", ".js", ".jsx", ".vue", ".html"},
		Seeder:           "mnemonic",
		SeedSourceLang:   "zh-CN",
		SeedTargetLang:   "en",
		TranslationModel: "gemini-2.5-flash",
		OpenAIModel:      "gpt-4o-mini",
		Neo4jUser:        "neo4j",
		WorkerCount:      8,
		BatchSize:        20,
		CacheSize:        1024,
		LogLevel:         "info",
	}
}

// Load builds the configuration: defaults, then the YAML project file (when present),
// then .env, then environment variables. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
		log.Debug().Str("file", file).Msg("Loaded project config")
	case errors.Is(err, os.ErrNotExist) && path == "":
	default:
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg.KiwiDir = getEnv("KIWI_DIR", cfg.KiwiDir)
	cfg.SrcLang = getEnv("KIWI_SRC_LANG", cfg.SrcLang)
	cfg.FileType = getEnv("KIWI_FILE_TYPE", cfg.FileType)
	cfg.ImportStatement = getEnv("KIWI_IMPORT_STATEMENT", cfg.ImportStatement)
	cfg.Identifier = getEnv("KIWI_IDENTIFIER", cfg.Identifier)
	cfg.IgnoreDirs = getEnvList("KIWI_IGNORE_DIRS", cfg.IgnoreDirs)
	cfg.IgnoreGlobs = getEnvList("KIWI_IGNORE_GLOBS", cfg.IgnoreGlobs)
	cfg.Extensions = getEnvList("KIWI_EXTENSIONS", cfg.Extensions)
	cfg.Seeder = getEnv("SEEDER", cfg.Seeder)
	cfg.SeedSourceLang = getEnv("SEED_SOURCE_LANG", cfg.SeedSourceLang)
	cfg.SeedTargetLang = getEnv("SEED_TARGET_LANG", cfg.SeedTargetLang)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.TranslationModel = getEnv("TRANSLATION_MODEL", cfg.TranslationModel)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Neo4jURI = getEnv("NEO4J_URI", cfg.Neo4jURI)
	cfg.Neo4jUser = getEnv("NEO4J_USER", cfg.Neo4jUser)
	cfg.Neo4jPassword = getEnv("NEO4J_PASSWORD", cfg.Neo4jPassword)
	cfg.WorkerCount = getEnvInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.BatchSize = getEnvInt("BATCH_SIZE", cfg.BatchSize)
	cfg.CacheSize = getEnvInt("CACHE_SIZE", cfg.CacheSize)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the extractor cannot work with.
func (c *Config) Validate() error {
	switch c.FileType {
	case "json", "ts", "js":
	default:
		return fmt.Errorf("invalid fileType %q: want json, ts or js", c.FileType)
	}
	switch c.Seeder {
	case "mnemonic", "gemini", "openai":
	default:
		return fmt.Errorf("invalid seeder %q: want mnemonic, gemini or openai", c.Seeder)
	}
	if c.Seeder == "gemini" && c.GeminiAPIKey == "" {
		return errors.New("seeder gemini requires GEMINI_API_KEY")
	}
	if c.Seeder == "openai" && c.OpenAIAPIKey == "" {
		return errors.New("seeder openai requires OPENAI_API_KEY")
	}
	if c.Identifier == "" {
		return errors.New("identifier must not be empty")
	}
	return nil
}

// CatalogPath is the source-language catalog file: {kiwiDir}/{srcLang}/index.{fileType}.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.KiwiDir, c.SrcLang, "index."+c.FileType)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
