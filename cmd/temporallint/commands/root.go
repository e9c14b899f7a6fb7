package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds the temporallint command tree. Every subcommand shares
// one viper instance, populated by the persistent pre-run hook.
func NewRootCmd(version string) *cobra.Command {
	var (
		verbose bool
		cfgFile string
	)
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "temporallint",
		Short: "Lint SQL DDL for temporal column conventions",
		Long: `temporallint reads PostgreSQL-flavoured DDL, classifies every date and time
column by its role (audit, soft delete, lifecycle, validity, scheduling) and
reports violations of the conventions each role implies.

Exit status is 0 when clean, 1 when an error was found (or a warning under
--strict) and 2 when the input could not be analysed at all.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			InitLogging(verbose)
			return InitConfig(v, cfgFile)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default .temporallint.yaml in . or $HOME)")

	rootCmd.AddCommand(NewLintCmd(v))
	rootCmd.AddCommand(NewClassifyCmd(v))
	rootCmd.AddCommand(NewRulesCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewWatchCmd(v))
	return rootCmd
}
