package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"virtusize/internal/api"
	"virtusize/internal/catalog"
	"virtusize/internal/config"
	"virtusize/internal/localstore"
	"virtusize/internal/recommend"
	"virtusize/internal/repository"
	"virtusize/internal/session"
	"virtusize/internal/types"
)

const version = "2.12.0"

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string
	envName    string
	userID     string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vsize",
	Short: "vsize - Virtusize size recommendation client",
	Long: `vsize drives the Virtusize size recommendation API from the command line.

It validates catalog products against the server, primes the user session,
and prints the size recommendation derived from the user's wardrobe and
body profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// checkCmd runs the product-page pipeline for one catalog product
var checkCmd = &cobra.Command{
	Use:   "check [external-product-id]",
	Short: "Validate a catalog product and print its size recommendation",
	Long: `Runs the full product pipeline for one catalog product:
  1. Product check against the server
  2. Session refresh and user data priming
  3. Size recommendation from wardrobe comparison and body profile`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkImageURL string

// orderCmd reports a purchase
var orderCmd = &cobra.Command{
	Use:   "order [order.json]",
	Short: "Report a purchase from a JSON order file",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrder,
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vsize %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Virtusize API key (overrides config)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "server environment: testing, staging, global, japan, korea")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", "", "client-system user ID")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")

	checkCmd.Flags().StringVar(&checkImageURL, "image-url", "", "product image URL for metadata extraction")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vsize.yaml"
	}
	return home + "/.vsize/config.yaml"
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if envName != "" {
		cfg.Environment = envName
	}
	if userID != "" {
		cfg.ExternalUserID = userID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildRepository wires the full client stack from configuration.
func buildRepository(cfg *config.Config, presenter repository.Presenter) (*repository.Repository, func(), error) {
	var store localstore.Store
	cleanup := func() {}
	if cfg.Storage.DatabasePath != "" {
		db, err := localstore.NewSQLite(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local store: %w", err)
		}
		store = db
		cleanup = func() { _ = db.Close() }
	} else {
		store = localstore.NewMemory()
	}

	env, err := cfg.Env()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	client := api.NewClient(api.NewHTTPExecutor(), store, env, cfg.APIKey, cfg.ExternalUserID, logger)
	cache := catalog.NewCache(client, logger)
	sess := session.NewManager(client, store, logger)
	engine := recommend.NewEngine()
	repo := repository.New(client, cache, sess, engine, presenter, logger)
	if cfg.Language != "" {
		repo.SetLanguage(cfg.Language)
	}
	return repo, cleanup, nil
}

// printPresenter writes repository results to stdout.
type printPresenter struct{}

func (printPresenter) OnValidProductCheck(externalID string, check *types.ProductCheck) {
	fmt.Printf("product %s is supported (store product %d)\n", externalID, check.Data.ProductDataID)
}

func (printPresenter) OnRecommendation(externalID string, rec *types.Recommendation) {
	if rec == nil {
		fmt.Printf("no recommendation available for %s\n", externalID)
		return
	}
	if rec.BestFitSizeLabel != "" {
		fmt.Printf("wardrobe comparison: size %s", rec.BestFitSizeLabel)
		if rec.BestFitItem != nil {
			fmt.Printf(" (closest to %q)", rec.BestFitItem.Name)
		}
		fmt.Println()
	}
	if rec.BodyFitSizeLabel != "" {
		fmt.Printf("body profile: size %s\n", rec.BodyFitSizeLabel)
	}
}

func (printPresenter) OnError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, cleanup, err := buildRepository(cfg, printPresenter{})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	product := &types.CatalogProduct{ExternalID: args[0], ImageURL: checkImageURL}
	if err := repo.Load(ctx, product); err != nil {
		return err
	}
	repo.Wait()
	return nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read order file: %w", err)
	}
	var order types.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return fmt.Errorf("failed to parse order file: %w", err)
	}

	repo, cleanup, err := buildRepository(cfg, printPresenter{})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	if err := repo.SendOrder(ctx, &order); err != nil {
		return err
	}
	fmt.Printf("order %s reported\n", order.ExternalOrderID)
	return nil
}

// signalContext returns a context canceled by SIGINT/SIGTERM or the timeout.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	sctx, scancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return sctx, func() {
		scancel()
		cancel()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
