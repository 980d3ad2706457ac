// Package cli implements the agent binary's command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	relayURLFlag string
	deviceName   string
	roomPassword string
	roomBranch   string
	roomPublic   bool
	roomExpires  int
)

var rootCmd = &cobra.Command{
	Use:           "agent",
	Short:         "CodeHive editor agent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURLFlag, "relay", "", "relay websocket URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&deviceName, "name", "", "display name announced to the room")
	rootCmd.PersistentFlags().StringVar(&roomPassword, "password", "", "room password")
	rootCmd.PersistentFlags().StringVar(&roomBranch, "branch", "", "local git branch to announce")

	createCmd.Flags().BoolVar(&roomPublic, "public", false, "list the room in list_rooms")
	createCmd.Flags().IntVar(&roomExpires, "expires", 0, "room expiry in hours (0 = never)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(joinCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Join or create a room, then watch root and relay file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")
		return RunWatch(args[0], code)
	},
}

func init() {
	watchCmd.Flags().String("code", "", "join this room code instead of creating a new room")
}

var statusCmd = &cobra.Command{
	Use:   "status <code>",
	Short: "Print a room's status snapshot and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatus(args[0])
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a room and print its invite details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCreate(args[0])
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join an existing room and print confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunJoin(args[0])
	},
}
