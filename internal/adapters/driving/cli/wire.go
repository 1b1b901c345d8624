package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/ai"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/studybuddy/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/services"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// historyLimit caps the conversation kept for display.
const historyLimit = 500

// wireServices builds the settings service and, when an embedding provider
// can be created, the ingestion, query and chat services on top of a fresh
// in-memory index. A failure of the AI layer is kept in serviceErr so that
// commands which only need settings still work.
func wireServices() error {
	logger.Section("Startup")

	var store driven.ConfigStore
	if ephemeral {
		store = memory.NewConfigStore()
	} else {
		fileStore, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		store = fileStore
	}

	settings := services.NewSettingsService(store, ai.NewConfigValidator())
	settingsService = settings

	resolved, err := settings.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if topKOverride > 0 {
		resolved.Retrieval.TopK = topKOverride
	}
	appSettings = resolved
	appMetrics = metrics.New()

	result, err := ai.Initialise(resolved, ai.InitOptions{Metrics: appMetrics})
	if err != nil {
		serviceErr = err
		logger.Warn("AI services unavailable: %v", err)
		return nil
	}

	vectors := vectormemory.NewStore(result.Embedding,
		vectormemory.WithQueryTaskType(resolved.Embedding.TaskType))
	index, err := vectors.GetOrCreateCollection(context.Background(), resolved.Retrieval.Collection)
	if err != nil {
		result.Close()
		return fmt.Errorf("create collection: %w", err)
	}
	vectorStore = vectors

	ingestion := services.NewIngestionService(
		extractor.NewDefaultRegistry(),
		result.Embedding,
		index,
		services.WithConcurrency(resolved.Ingest.Concurrency),
		services.WithTaskType(resolved.Embedding.TaskType),
		services.WithIngestMetrics(appMetrics),
	)
	ingestionService = ingestion

	query := services.NewQueryService(index, resolved.LLM.Model)
	query.SetMetrics(appMetrics)
	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	if !ephemeral {
		prompts, err := file.NewPromptStore(promptDir)
		if err != nil {
			logger.Warn("Using built-in prompts: %v", err)
		} else {
			query.SetPromptStore(prompts)
		}
	}
	queryService = query

	chat := services.NewChatService(ingestion, query, result.Generation,
		memory.NewHistoryStore(historyLimit), resolved.Retrieval.TopK)
	chat.SetMetrics(appMetrics)
	chatService = chat

	logger.Debug("Embedding: %s, generation: %s, collection: %s",
		result.Embedding.ModelName(), resolved.LLM.Model, index.Name())

	shutdown = func() {
		_ = vectors.Close()
		result.Close()
	}
	return nil
}
