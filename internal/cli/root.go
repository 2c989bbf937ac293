package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/KafClaw/lexteams/internal/cli.version=1.2.3"
	version = "0.4.1"
	logo    = "\n" +
		"  _             _                            \n" +
		" | | _____  __ | |_ ___  __ _ _ __ ___  ___ \n" +
		" | |/ _ \\ \\/ / | __/ _ \\/ _` | '_ ` _ \\/ __|\n" +
		" | |  __/>  <  | ||  __/ (_| | | | | | \\__ \\\n" +
		" |_|\\___/_/\\_\\  \\__\\___|\\__,_|_| |_| |_|___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "lexteams",
	Short: "lexteams - Microsoft Teams bridge for Amazon Lex",
	Long:  color.CyanString(logo) + "\nRelays Teams messages to an Amazon Lex bot and posts the bot's replies back.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(configCmd)
}
