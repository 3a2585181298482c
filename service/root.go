package service

import (
	"os"

	"inkwell/app/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dbPath     string
}

// load resolves the configuration named by --config.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Store.BadgerPath = o.dbPath
	}
	return cfg, nil
}

// badgerPath is the database the maintenance commands operate on. --db wins
// over the configured store.badger_path.
func (o *rootOptions) badgerPath() (string, error) {
	if o.dbPath != "" {
		return o.dbPath, nil
	}
	cfg, err := o.load()
	if err != nil {
		return "", err
	}
	return cfg.Store.BadgerPath, nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "A blogging API with posts, comments, likes and follows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "badger database directory (overrides store.badger_path)")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newInitCommand(opts),
		newCleanCommand(opts),
		newBackupCommand(opts),
		newRestoreCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

var osExit = os.Exit

// Execute runs the CLI with args and exits non-zero on failure.
func Execute(args []string) {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		osExit(1)
	}
}
