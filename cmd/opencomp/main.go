// Command opencomp hosts the OpenComp component kernel: it assembles the
// component table, boots the scheduler, and presents the VGA output in the
// terminal.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencomp-os/opencomp/internal/logger"
)

var rootFlags struct {
	logFile string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:           "opencomp",
	Short:         "OpenComp component-based kernel",
	Long:          "OpenComp is a component-based kernel: a fixed table of init/tick components\ndriven by a cooperative round-robin scheduler, hosted in your terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if rootFlags.verbose {
			level = slog.LevelDebug
		}
		return logger.Init(logger.Options{
			Enabled: rootFlags.logFile != "" || rootFlags.verbose,
			Path:    rootFlags.logFile,
			Level:   level,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFile, "log-file", "",
		"write diagnostic logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false,
		"enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("opencomp: " + err.Error() + "\n")
		os.Exit(1)
	}
}
