package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stream-chat/internal/chat"
	"stream-chat/internal/config"
	"stream-chat/internal/logging"
	"stream-chat/internal/ui"
)

var (
	// Global flags
	configPath string
	endpoint   string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stream-chat",
	Short: "Terminal client for a streaming chat endpoint",
	Long: `stream-chat talks to a chat endpoint that serves the conversation as
newline-delimited JSON records of {role, content, timestamp}.

Run without arguments to start the interactive chat interface. The history is
loaded on start; Enter sends a prompt and Ctrl+S stops the reply in flight.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		if _, err := logging.InitLogger(cfg.LogDir, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		}
		logging.Info("Using endpoint %s", cfg.Endpoint)

		ui.SetTheme(cfg.Theme)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.stream-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "chat endpoint URL, overrides config and environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(historyCmd, sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if configPath != "" {
		c, err = config.LoadFile(configPath)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if endpoint != "" {
		c.Endpoint = endpoint
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --endpoint: %w", err)
		}
	}
	return c, nil
}

func runInteractiveChat() error {
	client := chat.NewClientFromConfig(cfg)
	m := ui.NewChatViewModel(client, cfg.RenderStyle, 80, 24)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
