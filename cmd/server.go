package cmd

import (
	"lectura/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Lectura HTTP server",
	Long:  `Starts the Lectura HTTP server providing the transcription pipeline API and the web UI.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
