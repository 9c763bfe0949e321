package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
)

// send <peer> <message>: encrypt and send a message to <peer>.
func sendCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Messages == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			peer := domain.DeviceID(args[0])
			msg := []byte(args[1])

			if err := appCtx.Messages.SendMessage(
				cmd.Context(), passphrase, domain.DeviceID(from), peer, msg,
			); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "device", "", "your device id (same as you registered with)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}
