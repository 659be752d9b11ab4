// Command scanner is the check-in station client. It submits codes to the
// check-in server, either one at a time or line by line from a
// keyboard-wedge scanner on stdin.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/attendance-checkin/internal/client"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"

	_ "time/tzdata"
)

var (
	serverURL string
	timeout   time.Duration
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Attendance check-in station client",
	Long: `scanner submits attendance codes to the check-in server.

Codes can be passed as arguments or piped from a keyboard-wedge scanner:

  scanner scan C-1001
  scanner listen            # one code per line on stdin
  scanner personal --spreadsheet-id ... --sheet "Day 1" --submitter S-7`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logger.DEBUG)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func defaultServer() string {
	if v := os.Getenv("SCANNER_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newClient() *client.Client {
	return client.New(serverURL, timeout)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer(), "Check-in server base URL (or set SCANNER_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	historyCmd.Flags().StringVar(&historyDate, "date", "", "Day to list as YYYY-MM-DD (default: today)")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
	registerPersonalFlags(personalCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(personalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
