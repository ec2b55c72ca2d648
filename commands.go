package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tutor-chat/utils"
	"tutor-chat/work-flows/client"
	"tutor-chat/work-flows/gateway"
	"tutor-chat/work-flows/managers"
	"tutor-chat/work-flows/services"
	"tutor-chat/work-flows/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive conversation with the tutor",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var showAllKeys bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved conversations, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the tutoring agents configured on the backend",
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

// app holds the collaborators shared by every command.
type app struct {
	cfg    *utils.Config
	logger *zap.Logger
	store  storage.KeyValueStore
	client client.Client
	agents *services.AgentCatalog
	close  func()
}

func newApp() (*app, error) {
	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if pageFlag != "" {
		cfg.Page = pageFlag
	}

	logger, err := utils.NewLogger(cfg.Debug || verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		close:  func() { _ = logger.Sync() },
	}

	if cfg.DBPath != "" {
		fileStore, err := storage.Open(cfg.StoreDriver, cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("store opened", zap.String("driver", cfg.StoreDriver), zap.String("path", cfg.DBPath))
		a.store = fileStore
		a.close = func() {
			if err := fileStore.Close(); err != nil {
				logger.Warn("failed to close store", zap.Error(err))
			}
			_ = logger.Sync()
		}
	} else {
		logger.Debug("no db_path configured, conversations live in memory")
		a.store = storage.NewMemoryStore()
	}

	a.client = client.NewTutorAPIClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	a.agents = services.NewAgentCatalog(a.client, cfg.Agent, logger)
	return a, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	manager := managers.NewChatSessionManager(chatKey, managers.Deps{
		Client: a.client,
		Store:  a.store,
		Agents: a.agents,
		Logger: a.logger,
	},
		managers.WithPage(a.cfg.Page),
		managers.WithLLMSettings(a.cfg.LLM),
	)

	translator := services.NewTranslator("en", a.cfg.TranslateTo)
	repl := gateway.NewChatREPL(manager, translator, exportDir, os.Stdin)
	return repl.Run(cmd.Context())
}

func runHistory(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries := services.NewHistoryIndex(a.store, a.logger).List()
	if len(entries) == 0 {
		utils.PrintInfo("No conversations yet")
	}

	green := color.New(color.FgGreen)
	white := color.New(color.FgWhite)
	listed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		listed[entry.Key] = true
		green.Printf("%-24s ", entry.Key)
		white.Printf("%s (%s)\n", entry.Title, entry.LastTouched.Local().Format("2006-01-02 15:04"))
	}

	fileStore, ok := a.store.(storage.FileStore)
	if !showAllKeys || !ok {
		return nil
	}
	yellow := color.New(color.FgYellow)
	for _, key := range fileStore.Keys() {
		if key == services.HistoryKey || listed[key] {
			continue
		}
		yellow.Printf("%-24s (not in recent list)\n", key)
	}
	return nil
}

func runAgents(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	agents, err := a.client.ListAgents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	if len(agents) == 0 {
		utils.PrintInfo("The backend has no agents configured")
		return nil
	}

	preferred, _ := a.agents.Default(cmd.Context())
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite)
	for _, agent := range agents {
		marker := " "
		if agent.ID == preferred.ID {
			marker = "*"
		}
		cyan.Printf("%s %-12s ", marker, agent.ID)
		white.Printf("%s", agent.Name)
		if agent.Provider != "" {
			white.Printf(" [%s]", agent.Provider)
		}
		fmt.Println()
	}
	return nil
}
