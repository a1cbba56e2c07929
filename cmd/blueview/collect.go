package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/trambelus/Blueview/collector"
)

func newCollectCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run the collector that scanners post records to",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Collect
			if cmd.Flags().Changed("listen") {
				c.Listen = listen
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			srv := collector.NewServer(collector.Config{
				QueueSize:   c.QueueSize,
				IndexFile:   c.IndexFile,
				CORSOrigins: c.CORSOrigins,
			}, reg, reg)
			return srv.ListenAndServe(cmd.Context(), c.Listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, e.g. :83")
	return cmd
}
