package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biblos/internal/batch"
	"biblos/internal/checkpoint"
	"biblos/internal/config"
	"biblos/internal/generator"
	"biblos/internal/logger"
	"biblos/internal/metrics"
	"biblos/internal/orchestrate"
	"biblos/internal/planner"
	"biblos/internal/report"
	"biblos/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "biblos",
	Short: "Generate exegetical commentary over a verse corpus",
	Long:  `A resumable batch pipeline that ingests a verse corpus and generates fourfold-sense exegetical commentary with checkpointed, concurrent processing.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and seed the canonical book list",
	RunE:  runInit,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load verses from a text file into the database",
	RunE:  runIngest,
}

var planCmd = &cobra.Command{
	Use:   "plan MODE",
	Short: "Show the processing plan for a mode (sequential, by_category, incomplete_first)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process pending verses in a single batch, optionally scoped by book or category",
	RunE:  runBatch,
}

var executeCmd = &cobra.Command{
	Use:   "execute MODE",
	Short: "Build a plan and process every item in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecute,
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "List resumable checkpoints",
	RunE:  runCheckpoints,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus completion, recent batches, and checkpoints",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("db", "./biblos.db", "Verse database file")
	rootCmd.PersistentFlags().String("checkpoint-dir", "./checkpoints", "Checkpoint directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Metrics listen address (empty disables)")
	rootCmd.PersistentFlags().Int("batch-size", 50, "Items per checkpoint interval")
	rootCmd.PersistentFlags().Int("workers", 4, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("retries", 3, "Maximum retry attempts per verse")
	rootCmd.PersistentFlags().Int("retry-delay-ms", 2000, "Initial retry delay in milliseconds")
	rootCmd.PersistentFlags().Int("item-timeout-ms", 30000, "Per-verse processing timeout in milliseconds")
	rootCmd.PersistentFlags().Bool("resume", true, "Resume from checkpoint when one exists")

	ingestCmd.Flags().String("file", "", "Verse file to ingest (required)")
	ingestCmd.MarkFlagRequired("file")

	runCmd.Flags().String("book", "", "Limit to one book")
	runCmd.Flags().String("category", "", "Limit to one category")
	runCmd.Flags().String("batch-id", "", "Batch id (default derived from scope and date)")

	statusCmd.Flags().Bool("backlog", false, "Show per-book pending counts")

	rootCmd.AddCommand(initCmd, ingestCmd, planCmd, runCmd, executeCmd, checkpointsCmd, statusCmd)
}

// setup loads config, builds the logger, and opens the store. The
// returned close function syncs the logger and closes the store.
func setup(cmd *cobra.Command) (*store.Store, *zap.Logger, func(), error) {
	var err error
	cfg, err = config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		log.Sync()
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing store", zap.Error(err))
		}
		log.Sync()
	}
	return db, log, closeFn, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM
func signalContext(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received shutdown signal, finishing in-flight verses...")
		cancel()
	}()

	return ctx, cancel
}

func batchConfig() batch.Config {
	return batch.Config{
		BatchSize:   cfg.Batch.Size,
		MaxWorkers:  cfg.Batch.Workers,
		MaxRetries:  cfg.Batch.MaxRetries,
		RetryDelay:  time.Duration(cfg.Batch.RetryDelayMs) * time.Millisecond,
		ItemTimeout: time.Duration(cfg.Batch.ItemTimeoutMs) * time.Millisecond,
		Resume:      cfg.Batch.Resume,
	}
}

func startMetrics(mc *metrics.Collector, log *zap.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}
	go func() {
		if err := mc.StartServer(cfg.MetricsAddr); err != nil {
			log.Warn("Metrics server stopped", zap.Error(err))
		}
	}()
}

func runInit(cmd *cobra.Command, args []string) error {
	db, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := db.SeedBooks(); err != nil {
		return fmt.Errorf("failed to seed canonical books: %w", err)
	}

	log.Info("Database initialized", zap.String("path", cfg.Database))
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	db, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := db.SeedBooks(); err != nil {
		return fmt.Errorf("failed to seed canonical books: %w", err)
	}

	file, _ := cmd.Flags().GetString("file")
	n, err := db.IngestFile(file)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	log.Info("Ingest complete", zap.String("file", file), zap.Int("verses", n))
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	db, _, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	mode, err := planner.ParseMode(args[0])
	if err != nil {
		return err
	}

	plan, err := planner.New(db).CreatePlan(mode)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	if len(plan) == 0 {
		fmt.Println("Nothing to process.")
		return nil
	}

	fmt.Printf("Plan (%s), %d items:\n", mode, len(plan))
	for i, item := range plan {
		fmt.Printf("  %2d. [%-8s] %-24s %5d verses  (%s priority)\n",
			i+1, item.Kind, item.Name, item.VerseCount, item.Priority)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	db, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	book, _ := cmd.Flags().GetString("book")
	category, _ := cmd.Flags().GetString("category")
	if book != "" && category != "" {
		return fmt.Errorf("--book and --category are mutually exclusive")
	}

	scope := store.Scope{Book: book, Category: category}
	items, err := planner.New(db).AllWorkItems(scope)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		log.Info("No pending verses in scope")
		return nil
	}

	batchID, _ := cmd.Flags().GetString("batch-id")
	if batchID == "" {
		switch {
		case book != "":
			batchID = orchestrate.BatchID("book", book)
		case category != "":
			batchID = orchestrate.BatchID("category", category)
		default:
			batchID = orchestrate.BatchID("run", "all")
		}
	}

	cps, err := checkpoint.NewFileStore(cfg.CheckpointDir, log)
	if err != nil {
		return err
	}
	mc := metrics.New()
	startMetrics(mc, log)

	ctx, cancel := signalContext(log)
	defer cancel()

	gen := generator.New(db, log)
	processor := batch.New(batchConfig(), cps, mc, log)
	progress, err := processor.Run(ctx, batchID, items, func(ctx context.Context, item batch.WorkItem) error {
		return gen.ProcessVerse(ctx, item.ID)
	}, cfg.Batch.Resume)
	if err != nil {
		return err
	}

	log.Info("Batch finished",
		zap.String("batch_id", batchID),
		zap.String("status", string(progress.Status)),
		zap.Int("successful", progress.Successful),
		zap.Int("failed", progress.Failed))

	if progress.Status != batch.StatusCancelled && progress.Failed > 0 {
		return fmt.Errorf("%d of %d verses failed", progress.Failed, progress.Total)
	}
	return nil
}

func runExecute(cmd *cobra.Command, args []string) error {
	db, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	mode, err := planner.ParseMode(args[0])
	if err != nil {
		return err
	}

	p := planner.New(db)
	plan, err := p.CreatePlan(mode)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}
	if len(plan) == 0 {
		log.Info("No pending verses, nothing to execute")
		return nil
	}

	cps, err := checkpoint.NewFileStore(cfg.CheckpointDir, log)
	if err != nil {
		return err
	}
	mc := metrics.New()
	startMetrics(mc, log)

	ctx, cancel := signalContext(log)
	defer cancel()

	gen := generator.New(db, log)
	scheduler := orchestrate.NewScheduler(db, p, cps, mc, func(ctx context.Context, item batch.WorkItem) error {
		return gen.ProcessVerse(ctx, item.ID)
	}, log)

	result, err := scheduler.ExecutePlan(ctx, plan, batchConfig())
	if err != nil {
		return err
	}

	for _, d := range result.Details {
		fmt.Printf("  [%-8s] %-24s %-10s %d ok / %d failed\n",
			d.Item.Kind, d.Item.Name, d.Status, d.Successful, d.Failed)
	}
	fmt.Printf("Plan done: %d/%d items completed in %s\n",
		result.Completed, result.PlanItems,
		report.FormatDuration(result.FinishedAt.Sub(result.StartedAt)))

	if ctx.Err() == nil && result.Failed > 0 {
		return fmt.Errorf("%d plan items had failures (%d verses)", result.Failed, result.FailedVerses())
	}
	return nil
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	_, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	cps, err := checkpoint.NewFileStore(cfg.CheckpointDir, log)
	if err != nil {
		return err
	}

	summaries, err := cps.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No checkpoints.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("  %-40s %d/%d (updated %s ago)\n",
			s.BatchID, s.Processed, s.Total,
			report.FormatDuration(time.Since(s.UpdatedAt)))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, log, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	cps, err := checkpoint.NewFileStore(cfg.CheckpointDir, log)
	if err != nil {
		return err
	}

	reporter := report.New(db, cps)
	st, err := reporter.Status()
	if err != nil {
		return err
	}

	reporter.Render(os.Stdout, st)
	if backlog, _ := cmd.Flags().GetBool("backlog"); backlog {
		fmt.Println()
		reporter.RenderBacklog(os.Stdout, st)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
