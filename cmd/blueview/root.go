package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/trambelus/Blueview/internal/config"
	"github.com/trambelus/Blueview/internal/logging"
)

// app carries the state shared by the subcommands.
type app struct {
	configFile string
	logLevel   string

	cfg     *config.Config
	logFile io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "blueview",
		Short: "blueview - BLE beacon scanner and collector",
		Long: `blueview reads LE Advertising Report events from a local HCI controller, a remote
BeaconLine relay or a pcap capture, decodes iBeacon and Eddystone frames and
reports the records to an HTTP collector or a NATS subject.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file path (yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (trace|debug|info|warn|error)")

	root.AddCommand(
		newScanCmd(a),
		newDecodeCmd(a),
		newCollectCmd(a),
		newRelayCmd(a),
		newRecordCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}
	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logFile = closer
	return nil
}
