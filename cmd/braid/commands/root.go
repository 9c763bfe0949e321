package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"braid/internal/app"
)

var (
	home       string
	passphrase string
	relayURL   string
	deviceID   string
	pqParam    string
	traceOn    bool

	appCtx *app.Wire
)

// Execute builds and runs the braid CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "braid",
		Short: "Hybrid post-quantum end-to-end encrypted chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".braid")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg := app.Config{
				Home:     home,
				RelayURL: relayURL,
				Trace:    traceOn,
			}
			if pqParam != "" {
				cfg.Param = paramFromFlag(pqParam)
			}
			if err := cfg.LoadFile(filepath.Join(home, "config.yaml")); err != nil {
				return err
			}

			var err error
			appCtx, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.braid)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().BoolVar(&traceOn, "trace", false, "emit protocol trace events to stderr")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		startSessionCmd(),
		sendCmd(),
		recvCmd(),
		groupCmd(),
	)
	return root.Execute()
}
