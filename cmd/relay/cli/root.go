// Package cli implements the relay binary's command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	adminAddr  string
	adminToken string
)

var rootCmd = &cobra.Command{
	Use:           "relay",
	Short:         "CodeHive relay server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminAddr, "admin-addr", "http://127.0.0.1:4819", "relay HTTP address for admin commands")
	rootCmd.PersistentFlags().StringVar(&adminToken, "admin-token", "", "bearer token for the relay's admin surface")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(roomsCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunServe()
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Inspect rooms on a running relay via its admin surface",
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List public, non-empty rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRoomsList()
	},
}

var roomsInspectCmd = &cobra.Command{
	Use:   "inspect <code>",
	Short: "Show one room's full snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRoomsInspect(args[0])
	},
}

func init() {
	roomsCmd.AddCommand(roomsListCmd)
	roomsCmd.AddCommand(roomsInspectCmd)
}
