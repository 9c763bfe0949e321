package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
	"braid/internal/services/prekey"
)

// register: generate pre-keys and publish the key set to the relay.
func registerCmd() *cobra.Command {
	var oneTimeCount int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Generate pre-keys and publish them to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Relay == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			if oneTimeCount == 0 {
				oneTimeCount = appCtx.Config.OneTimeCount
			}
			if oneTimeCount == 0 {
				oneTimeCount = prekey.DefaultOneTimeCount
			}

			if err := appCtx.PreKeys.GenerateAndStorePreKeys(passphrase, oneTimeCount); err != nil {
				return err
			}
			keys, err := appCtx.PreKeys.PublishedKeys(passphrase)
			if err != nil {
				return err
			}
			if err := appCtx.Relay.Publish(cmd.Context(), keys); err != nil {
				return err
			}
			if err := appCtx.Profiles.SaveProfile(domain.DeviceProfile{
				ServerURL: relayURL,
				DeviceID:  keys.DeviceID,
			}); err != nil {
				return err
			}
			fmt.Printf("registered %s: %d one-time keys, %d pq one-time keys\n",
				keys.DeviceID, len(keys.OneTimePreKeys), len(keys.PqOneTimePreKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&oneTimeCount, "one-time-keys", 0, "one-time pre-keys to generate (default 10)")
	return cmd
}
