package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"i18n-extractor/internal/cache"
	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/config"
	"i18n-extractor/internal/extract"
	"i18n-extractor/internal/filewalker"
	"i18n-extractor/internal/graph"
	"i18n-extractor/internal/imports"
	"i18n-extractor/internal/keygen"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/planner"
	"i18n-extractor/internal/rewrite"
	"i18n-extractor/internal/safeio"
	"i18n-extractor/internal/translation"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("run", uuid.NewString()[:8]).Logger()

	rootCmd := &cobra.Command{
		Use:   "i18n-extract",
		Short: "Extract hard-coded Chinese text from front-end sources into an i18n catalog",
		Long: `Scans .ts/.tsx/.js/.jsx/.vue/.html files for Chinese literals, replaces each one with a
reference into the locale catalog (I18N.<key>) and records new keys in .kiwi/<lang>/index.<ext>.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Project config file (default kiwi.yaml when present)")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(replaceCmd())
	rootCmd.AddCommand(glossaryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [dir|file,file...]",
		Short: "Replace Chinese text in a directory or file list with catalog references",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			configPath, _ := cmd.Flags().GetString("config")
			prefix, _ := cmd.Flags().GetString("prefix")
			progress, _ := cmd.Flags().GetBool("progress")
			return runExtract(target, configPath, prefix, progress)
		},
	}

	cmd.Flags().String("prefix", "", "Namespace for new keys, e.g. I18N.common (default: derived from the file path)")
	cmd.Flags().Bool("progress", false, "Show a progress bar")

	return cmd
}

func replaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <file> <start> <end> <key>",
		Short: "Replace one byte range of a file with a catalog reference",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse start: %w", err)
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parse end: %w", err)
			}
			configPath, _ := cmd.Flags().GetString("config")
			kind, _ := cmd.Flags().GetString("type")
			noValidate, _ := cmd.Flags().GetBool("no-validate")
			return runReplace(args[0], start, end, args[3], kind, configPath, !noValidate)
		},
	}

	cmd.Flags().String("type", "string", "Context of the range: string, jsx or template")
	cmd.Flags().Bool("no-validate", false, "Allow overwriting a key that holds a different text")

	return cmd
}

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the mnemonic glossary stored in Neo4j",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Learn mnemonic→seed terms from the catalog and push them to Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runGlossarySync(configPath)
		},
	})
	return cmd
}

// runExtract handles the `extract` command.
func runExtract(target, configPath, prefix string, progress bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	c, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info().Str("catalog", cfg.CatalogPath()).Int("keys", c.Len()).Msg("Catalog loaded")

	kiwiDir, err := filepath.Abs(cfg.KiwiDir)
	if err != nil {
		return fmt.Errorf("resolve kiwi dir: %w", err)
	}
	walker := filewalker.NewWalker(filewalker.Options{
		Extensions:  cfg.Extensions,
		IgnoreDirs:  cfg.IgnoreDirs,
		IgnoreGlobs: cfg.IgnoreGlobs,
		Exclude:     []string{kiwiDir},
	})
	entries, err := walker.Resolve(target)
	if err != nil {
		return fmt.Errorf("resolve files: %w", err)
	}
	if len(entries) == 0 {
		log.Warn().Str("target", target).Msg("No supported files found")
		return nil
	}

	pgPool, neo4jDriver, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	if pgPool != nil {
		defer pgPool.Close()
	}
	if neo4jDriver != nil {
		defer neo4jDriver.Close(ctx)
	}

	seeder, err := buildSeeder(ctx, cfg, pgPool, neo4jDriver)
	if err != nil {
		return err
	}

	opts := extract.Options{
		Root:        suggestionRoot(target),
		Prefix:      prefix,
		Identifier:  cfg.Identifier,
		CatalogPath: cfg.CatalogPath(),
		Workers:     cfg.WorkerCount,
	}

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("[cyan]extract[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
		opts.OnFile = func(string) { _ = bar.Add(1) }
	}

	ensurer := imports.NewEnsurer(nil, cfg.ImportStatement, cfg.Identifier)
	summary, runErr := extract.New(c, seeder, ensurer, opts).Run(ctx, entries)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if summary != nil {
		printSummary(summary, cfg.CatalogPath())
	}
	if errors.Is(runErr, context.Canceled) {
		log.Warn().Msg("Extraction interrupted, catalog holds the files finished so far")
		return nil
	}
	return runErr
}

// runReplace handles the `replace` command.
func runReplace(file string, start, end int, key, kind, configPath string, validate bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	contextType, ok := parser.ParseContextType(kind)
	if !ok {
		return fmt.Errorf("invalid type %q: want string, jsx or template", kind)
	}

	c, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	r, err := replaceableFromRange(string(src), start, end, keygen.TrimReference(key, cfg.Identifier), contextType, c)
	if err != nil {
		return err
	}

	if err := rewrite.NewEngine(c, cfg.Identifier).ReplaceFile(ctx, file, r, validate); err != nil {
		return err
	}
	if err := ensureImport(ctx, file, cfg); err != nil {
		log.Warn().Err(err).Str("file", file).Msg("Failed to ensure import")
	}

	if err := c.Persist(cfg.CatalogPath()); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}

	fmt.Printf("%s %s → %s\n", green("Replaced"), cyan(fmt.Sprintf("%s:%d-%d", file, start, end)), yellow(rewrite.Reference(cfg.Identifier, r.Key)))
	return nil
}

// runGlossarySync handles the `glossary sync` command.
func runGlossarySync(configPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Neo4jURI == "" {
		return errors.New("glossary sync requires NEO4J_URI")
	}

	c, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	_, neo4jDriver, err := initDependencies(ctx, &config.Config{
		Neo4jURI:      cfg.Neo4jURI,
		Neo4jUser:     cfg.Neo4jUser,
		Neo4jPassword: cfg.Neo4jPassword,
	})
	if err != nil {
		return err
	}
	defer neo4jDriver.Close(ctx)

	glossary := graph.NewGlossary(neo4jDriver)
	if err := glossary.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	known, err := glossary.All(ctx)
	if err != nil {
		return err
	}

	terms := graph.TermsFromCatalog(c.Flatten())
	fresh := 0
	for _, t := range terms {
		if _, ok := known[t.Mnemonic]; !ok {
			fresh++
		}
	}
	n, err := glossary.Upsert(ctx, terms)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s terms (%s new) from %s keys\n", green("Synced"), yellow(n), green(fresh), cyan(c.Len()))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return cfg, nil
}

// suggestionRoot is the directory key namespaces are derived against: the target itself
// when it is a directory, otherwise the working directory.
func suggestionRoot(target string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func ensureImport(ctx context.Context, file string, cfg *config.Config) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	out, added, err := imports.NewEnsurer(nil, cfg.ImportStatement, cfg.Identifier).Ensure(ctx, file, string(data))
	if err != nil || !added {
		return err
	}
	return safeio.WriteFileAtomic(file, []byte(out), safeio.PermOf(file, 0o644))
}

// replaceableFromRange builds the edit for src[start:end]. For plain strings the range
// includes the quotes, which are not part of the text.
func replaceableFromRange(src string, start, end int, key string, kind parser.ContextType, c *catalog.Catalog) (planner.Replaceable, error) {
	if start < 0 || end > len(src) || start > end {
		return planner.Replaceable{}, fmt.Errorf("range [%d,%d) of %d bytes: %w", start, end, len(src), rewrite.ErrRangeOutOfBounds)
	}
	if key == "" {
		return planner.Replaceable{}, errors.New("key must not be empty")
	}

	text := src[start:end]
	if kind == parser.PlainString && len(text) >= 2 {
		switch text[0] {
		case '\'', '"', '`':
			if text[len(text)-1] == text[0] {
				text = text[1 : len(text)-1]
			}
		}
	}

	existing, ok := c.LookupValueByKey(key)
	return planner.Replaceable{
		Occurrence: parser.Occurrence{Text: text, Range: parser.Range{Start: start, End: end}, Context: kind},
		Key:        key,
		NeedWrite:  !ok || existing != text,
	}, nil
}

// buildSeeder assembles the seed provider chain: glossary first, then the cached remote
// provider (or the local mnemonic seeder).
func buildSeeder(ctx context.Context, cfg *config.Config, pgPool *pgxpool.Pool, neo4jDriver neo4j.DriverWithContext) (translation.Seeder, error) {
	prompts := translation.NewPromptBuilder(cfg.SeedSourceLang, cfg.SeedTargetLang)

	var (
		seeder translation.Seeder
		scope  string
	)
	switch cfg.Seeder {
	case "gemini":
		seeder = translation.NewGeminiClient(cfg.GeminiAPIKey, cfg.TranslationModel, prompts)
		scope = "gemini:" + cfg.TranslationModel
	case "openai":
		seeder = translation.NewOpenAISeeder(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, prompts)
		scope = "openai:" + cfg.OpenAIModel
	default:
		seeder = translation.NewMnemonicSeeder()
	}

	if scope != "" {
		var db cache.DB
		if pgPool != nil {
			db = pgPool
		}
		seedCache, err := cache.NewSeedCache(db, cfg.CacheSize, scope+":"+cfg.SeedSourceLang+">"+cfg.SeedTargetLang)
		if err != nil {
			return nil, err
		}
		if pgPool != nil {
			if err := seedCache.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("ensure seed cache schema: %w", err)
			}
			if err := seedCache.Preload(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to preload seed cache")
			}
		}
		seeder = translation.NewCachedSeeder(seeder, seedCache, cfg.BatchSize)
	}

	if neo4jDriver != nil {
		seeder = translation.NewGlossarySeeder(graph.NewGlossary(neo4jDriver), seeder)
	}

	log.Info().Str("seeder", cfg.Seeder).Bool("cache_db", pgPool != nil).Bool("glossary", neo4jDriver != nil).Msg("Seeder ready")
	return seeder, nil
}

func printSummary(s *extract.Summary, catalogPath string) {
	fmt.Printf("%s %s files scanned, %s rewritten, %s failed\n",
		cyan("Summary:"), yellow(s.Files), green(s.Changed), red(s.Failed))
	fmt.Printf("  %s occurrences, %s new keys, %s reused, %s imports added\n",
		yellow(s.Occurrences), green(s.NewKeys), yellow(s.ReusedKeys), yellow(s.ImportsAdded))
	for _, f := range s.Failures {
		fmt.Printf("  %s %s: %v\n", red("✗"), f.File, f.Err)
	}
	fmt.Printf("  catalog: %s\n", cyan(catalogPath))
}

func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, finishing current file...")
		cancel()
	}()

	return ctx, cancel
}

// initDependencies connects the optional backing services. Either return value is nil when
// the corresponding URL is not configured.
func initDependencies(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, neo4j.DriverWithContext, error) {
	var pgPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		log.Info().Msg("Connected to PostgreSQL")
		pgPool = pool
	}

	if cfg.Neo4jURI == "" {
		return pgPool, nil, nil
	}

	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		if pgPool != nil {
			pgPool.Close()
		}
		return nil, nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := neo4jDriver.VerifyConnectivity(ctx); err != nil {
		if pgPool != nil {
			pgPool.Close()
		}
		neo4jDriver.Close(ctx)
		return nil, nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")

	return pgPool, neo4jDriver, nil
}
