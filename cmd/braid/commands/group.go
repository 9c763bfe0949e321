package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
)

// group create|send: sender-key group operations.
func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Sender-key group operations",
	}
	cmd.AddCommand(groupCreateCmd(), groupSendCmd())
	return cmd
}

// group create <group-id> <member>...: mint a sender key and distribute it.
func groupCreateCmd() *cobra.Command {
	var me string

	cmd := &cobra.Command{
		Use:   "create <group-id> <member>...",
		Short: "Create a group and distribute your sender key to the members",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Groups == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			group := domain.GroupID(args[0])
			members := make([]domain.DeviceID, 0, len(args)-1)
			for _, m := range args[1:] {
				members = append(members, domain.DeviceID(m))
			}

			if err := appCtx.Groups.CreateGroup(
				cmd.Context(), passphrase, domain.DeviceID(me), group, members,
			); err != nil {
				return err
			}
			fmt.Printf("group %s created with %d members\n", group, len(members))
			return nil
		},
	}
	cmd.Flags().StringVar(&me, "device", "", "your device id (same as you registered with)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

// group send <group-id> <message>: encrypt once, fan out to the roster.
func groupSendCmd() *cobra.Command {
	var me string

	cmd := &cobra.Command{
		Use:   "send <group-id> <message>",
		Short: "Send a message to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Groups == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}

			if err := appCtx.Groups.SendGroupMessage(
				cmd.Context(), passphrase, domain.DeviceID(me),
				domain.GroupID(args[0]), []byte(args[1]),
			); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&me, "device", "", "your device id (same as you registered with)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}
