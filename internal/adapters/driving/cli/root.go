// Package cli provides the studybuddy command line interface.
package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	ephemeral bool

	// topKOverride replaces the configured retrieval depth when positive.
	topKOverride int
)

// Services shared by all commands. They are populated by bootstrap before a
// command runs, or directly by tests.
var (
	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	queryService     driving.QueryService
	chatService      driving.ChatService
	vectorStore      driven.VectorStore
	appSettings      *domain.AppSettings
	appMetrics       *metrics.Metrics

	// serviceErr holds the reason the AI-backed services could not be built.
	serviceErr error
)

// bootstrap builds the services. Tests replace it.
var bootstrap = wireServices

// shutdown releases what bootstrap acquired.
var shutdown func()

// skipServices marks commands that run without any services.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "Ask questions about your study documents",
	Long: `Study Buddy answers questions using only the documents you give it.

Upload PDFs, text, markdown, HTML or Word files, then ask questions. Answers
are grounded in the passages retrieved from your documents; when nothing
relevant is found the assistant says it doesn't know.

Documents live only for the current session. Provider settings are read from
~/.studybuddy/config.toml, the environment and a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		loadDotEnv()
		if cmd.Annotations[skipServices] == "true" {
			return nil
		}
		return bootstrap()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if shutdown != nil {
			shutdown()
			shutdown = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline details to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.studybuddy)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "ignore the config file and use defaults plus environment")
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// loadDotEnv loads .env from the working directory and then from the config
// directory. Variables already set in the environment win.
func loadDotEnv() {
	paths := []string{".env"}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.Warn("Could not load %s: %v", p, err)
			continue
		}
		logger.Debug("Loaded environment from %s", p)
	}
}

// requireChat returns an error unless the chat service is available.
func requireChat() error {
	if chatService != nil {
		return nil
	}
	if serviceErr != nil {
		return serviceErr
	}
	return errors.New("chat service not configured")
}

// requireIngestion returns an error unless the ingestion service is available.
func requireIngestion() error {
	if ingestionService != nil {
		return nil
	}
	if serviceErr != nil {
		return serviceErr
	}
	return errors.New("ingestion service not configured")
}
