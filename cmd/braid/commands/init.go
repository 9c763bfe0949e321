package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"braid/internal/domain"
)

// init --device <id>: create or recover the local device identity.
func initCmd() *cobra.Command {
	var recoverMnemonic string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or recover the local device identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if deviceID == "" {
				return fmt.Errorf("device id required (--device)")
			}
			param := appCtx.Config.Param
			if pqParam != "" {
				param = paramFromFlag(pqParam)
			}

			if recoverMnemonic != "" {
				_, fp, err := appCtx.Identity.RecoverDevice(
					passphrase, domain.DeviceID(deviceID), param, recoverMnemonic)
				if err != nil {
					return err
				}
				fmt.Println("identity recovered")
				fmt.Println("fingerprint:", fp)
				return nil
			}

			_, fp, mnemonic, err := appCtx.Identity.CreateDevice(
				passphrase, domain.DeviceID(deviceID), param)
			if err != nil {
				return err
			}
			fmt.Println("identity created")
			fmt.Println("fingerprint:", fp)
			fmt.Println()
			fmt.Println("recovery phrase (write it down, it is not stored):")
			fmt.Println(" ", mnemonic)
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceID, "device", "", "device id to register under")
	cmd.Flags().StringVar(&pqParam, "pq", "", "ML-KEM parameter set: 512, 768 or 1024 (default 512)")
	cmd.Flags().StringVar(&recoverMnemonic, "recover", "", "recovery phrase to rebuild an existing identity")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

func paramFromFlag(v string) domain.PqParameterSet {
	switch v {
	case "768", string(domain.MLKem768):
		return domain.MLKem768
	case "1024", string(domain.MLKem1024):
		return domain.MLKem1024
	default:
		return domain.MLKem512
	}
}
