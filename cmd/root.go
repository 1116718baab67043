package cmd

import (
	"fmt"
	"log"
	"os"

	"lectura/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectura_server",
	Short: "Lectura is a lecture video transcription and Q&A service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Lectura server...")
		// server.Start handles its own port and logging for startup.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
