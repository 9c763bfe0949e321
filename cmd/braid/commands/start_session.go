package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
)

// start-session <peer>: run the handshake against the peer's bundle.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a session with a peer device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Sessions == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			peer := domain.DeviceID(args[0])

			sess, err := appCtx.Sessions.InitiateSession(cmd.Context(), passphrase, peer)
			if err != nil {
				return err
			}
			fmt.Printf("session established with %s", sess.PeerDevice)
			if sess.Hello.OneTimePreKeyID != "" {
				fmt.Printf(" (one-time key consumed)")
			}
			fmt.Println()
			return nil
		},
	}
}
