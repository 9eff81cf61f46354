package main

import (
	"do-todo/internal/config"
	"do-todo/internal/database"
	"do-todo/internal/logging"

	"github.com/spf13/cobra"
)

var (
	portFlag   string
	memoryFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "do-todo",
	Short: "Todo list HTTP API",
	Long: `do-todo serves a single-table todo list over HTTP, backed by PostgreSQL.

Configuration comes from the environment (DATABASE_URL, DB_SSL_MODE, PORT, ...).
Flags override the matching variables.

Examples:
  # Serve against PostgreSQL
  DATABASE_URL=postgres://todo:secret@db:5432/todo do-todo

  # Serve from memory on another port
  do-todo --memory --port 9090

  # Create the todo table and exit
  do-todo init-db`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitLogger(logging.NewLogConfigFromEnv())
	},
	Run: func(cmd *cobra.Command, args []string) {
		serve(loadConfig(cmd))
	},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the todo table if it does not exist, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		cfg.UseMemoryStorage = false
		if err := cfg.Validate(); err != nil {
			return err
		}

		db := connectAndInitialize(cfg)
		defer database.Close(db)

		logging.Logger.Info("Todo table is ready")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.Flags().BoolVar(&memoryFlag, "memory", false, "Use in-memory storage (overrides USE_MEMORY_STORAGE)")

	rootCmd.AddCommand(initDBCmd)
}

// loadConfig reads the environment and applies any flags the user set explicitly
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.NewConfigFromEnv()
	if cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}
	if cmd.Flags().Changed("memory") {
		cfg.UseMemoryStorage = memoryFlag
	}
	return cfg
}
