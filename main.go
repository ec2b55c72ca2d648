package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tutor-chat/utils"
	"tutor-chat/work-flows/services"
)

var (
	configPath string
	verbose    bool
	chatKey    string
	pageFlag   string
	exportDir  string
)

var rootCmd = &cobra.Command{
	Use:           "tutorchat",
	Short:         "Chat with the learning platform's AI tutor",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return services.ValidateKey(chatKey)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&chatKey, "key", "k", "chat-default", "conversation persistence key")
	rootCmd.PersistentFlags().StringVar(&pageFlag, "page", "", "page identifier sent when a session is created")

	historyCmd.Flags().BoolVar(&showAllKeys, "all", false, "also list stored conversations that dropped out of the recent list")
	chatCmd.Flags().StringVar(&exportDir, "export-dir", utils.DefaultExportDir, "directory for /export files")

	rootCmd.AddCommand(chatCmd, historyCmd, agentsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.PrintError(err.Error())
		os.Exit(1)
	}
}
