package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
)

// recv: fetch and decrypt queued messages.
func recvCmd() *cobra.Command {
	var (
		me    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt queued messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Messages == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}

			msgs, err := appCtx.Messages.ReceiveMessages(
				cmd.Context(), passphrase, domain.DeviceID(me), limit)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Println("no new messages")
				return nil
			}
			for _, m := range msgs {
				if m.GroupID != "" {
					fmt.Printf("[%s] %s: %s\n", m.GroupID, m.From, m.Plaintext)
					continue
				}
				fmt.Printf("%s: %s\n", m.From, m.Plaintext)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&me, "device", "", "your device id (same as you registered with)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max messages to fetch (0 = all)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}
