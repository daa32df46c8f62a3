package cmd

import "github.com/spf13/cobra"

var (
	rootCmd = &cobra.Command{
		Use:   "reelay",
		Short: "Relay captioning webhooks to connected browsers",
		Long: `Reelay receives the callbacks of the video storage and captioning providers
and pushes them to every browser connected over websocket or server-sent events.`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
