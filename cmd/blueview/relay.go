package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/trambelus/Blueview/bline/hci/socket"
)

func newRelayCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve the local controller as a BeaconLine anchor",
		Long: `Relay scans on the local controller and broadcasts every HCI event, tsb framed,
to the connected BeaconLine clients. HCI commands sent by clients are written
to the controller.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := a.cfg.Relay
			if cmd.Flags().Changed("listen") {
				rc.Listen = listen
			}
			return runRelay(cmd.Context(), a, rc.Listen, rc.Anchor)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "tsb listen address, e.g. :4001")
	return cmd
}

func runRelay(ctx context.Context, a *app, listen string, anchor int) error {
	hs, err := openHCI(a.cfg.Scan)
	if err != nil {
		return err
	}
	defer hs.Close()

	srv := socket.NewServer(listen)
	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Info("relaying local controller", "dev", a.cfg.Scan.Device, "anchor", anchor)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	err = socket.Relay(ctx, srv, map[int]io.ReadWriter{anchor: hs})
	cancel()
	if serr := <-serveErr; err == nil {
		err = serr
	}
	return err
}
