package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	ble "github.com/trambelus/Blueview"
	"github.com/trambelus/Blueview/beacon"
	"github.com/trambelus/Blueview/bline/hci/socket"
	"github.com/trambelus/Blueview/internal/capture"
	"github.com/trambelus/Blueview/internal/config"
	"github.com/trambelus/Blueview/internal/logging"
	"github.com/trambelus/Blueview/internal/metrics"
	"github.com/trambelus/Blueview/reporter"
	"github.com/trambelus/Blueview/scanner"
)

var logger = logging.New("blueview")

const separator = "----------------------------------------"

type scanFlags struct {
	source  string
	device  int
	bline   string
	anchor  int
	pcap    string
	sink    string
	noPrint bool
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for beacons and print or report them",
		Long: `Scan reads advertising reports from the configured source and decodes them.

Examples:
  blueview scan --device 0
  blueview scan --source bline --bline 10.0.0.5:4001 --anchor 2
  blueview scan --pcap capture.pcap --sink http`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyScanFlags(cmd, a.cfg, f)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runScan(cmd.Context(), a.cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.source, "source", "", "hci, bline or pcap")
	cmd.Flags().IntVarP(&f.device, "device", "d", 0, "local controller number (hciN)")
	cmd.Flags().StringVar(&f.bline, "bline", "", "BeaconLine relay address (host:port)")
	cmd.Flags().IntVar(&f.anchor, "anchor", 1, "BeaconLine anchor to read")
	cmd.Flags().StringVar(&f.pcap, "pcap", "", "replay a pcap capture")
	cmd.Flags().StringVar(&f.sink, "sink", "", "none, http or nats")
	cmd.Flags().BoolVar(&f.noPrint, "quiet", false, "do not print records")
	return cmd
}

func applyScanFlags(cmd *cobra.Command, cfg *config.Config, f scanFlags) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Scan.Device = f.device
	}
	if flags.Changed("bline") {
		cfg.Scan.Source = "bline"
		cfg.Scan.BlineURL = f.bline
	}
	if flags.Changed("anchor") {
		cfg.Scan.Anchor = f.anchor
	}
	if flags.Changed("pcap") {
		cfg.Scan.Source = "pcap"
		cfg.Scan.PcapFile = f.pcap
	}
	if flags.Changed("source") {
		cfg.Scan.Source = f.source
	}
	if flags.Changed("sink") {
		cfg.Report.Sink = f.sink
	}
	if f.noPrint {
		cfg.Scan.Print = false
	}
}

func runScan(ctx context.Context, cfg *config.Config, out io.Writer) error {
	open, err := newOpener(cfg.Scan)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	background := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logger.Error(name+" stopped", "err", err)
			}
		}()
	}

	var handlers []scanner.Handler
	if cfg.Scan.Print {
		handlers = append(handlers, printer(out))
	}
	sink, err := newSink(cfg.Report)
	if err != nil {
		return err
	}
	if sink != nil {
		d := reporter.NewDispatcher(sink, cfg.Report.QueueSize, metrics.NewReporter(reg))
		handlers = append(handlers, d.Handle)
		background("reporter", d.Run)
	}
	if cfg.Metrics.Enabled {
		background("metrics", func(ctx context.Context) error {
			return metrics.Serve(ctx, cfg.Metrics.Listen, reg)
		})
	}

	s := scanner.New(open, fanout(handlers), scanner.Config{
		RetryDelay: cfg.Scan.RetryDelay,
		MaxRetries: cfg.Scan.MaxRetries,
		Filter:     scanFilter(cfg.Scan),
		Metrics:    metrics.NewScanner(reg),
	})
	err = s.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

func scanFilter(c config.ScanConfig) ble.AdvFilter {
	filters := []ble.AdvFilter{ble.MinRSSI(c.MinRSSI)}
	if len(c.Vendors) > 0 {
		filters = append(filters, ble.MatchManufacturer(c.Vendors...))
	}
	return ble.All(filters...)
}

func fanout(handlers []scanner.Handler) scanner.Handler {
	return func(rec beacon.Record) {
		for _, h := range handlers {
			h(rec)
		}
	}
}

func printer(out io.Writer) scanner.Handler {
	return func(rec beacon.Record) {
		fmt.Fprint(out, rec.String())
		fmt.Fprintln(out, separator)
	}
}

func newSink(c config.ReportConfig) (reporter.Sink, error) {
	switch c.Sink {
	case "http":
		return reporter.NewHTTPSink(reporter.HTTPConfig{
			URL:        c.URL,
			Timeout:    c.Timeout,
			Attempts:   c.Attempts,
			Backoff:    c.Backoff,
			MaxBackoff: c.MaxBackoff,
		}), nil
	case "nats":
		return reporter.DialNATS(c.NatsURL, c.Subject)
	}
	return nil, nil
}

func scanOptions(c config.ScanConfig) socket.ScanOptions {
	opts := socket.DefaultScanOptions()
	opts.Active = c.Active
	opts.FilterDuplicates = !c.Duplicates
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	return opts
}

func openHCI(c config.ScanConfig) (*socket.HCISocket, error) {
	s, err := socket.OpenHCI(c.Device, scanOptions(c))
	if err != nil {
		return nil, err
	}
	if err := s.StartScan(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// blineSource closes the relay connection together with the anchor.
type blineSource struct {
	*socket.Socket
	bl *socket.BeaconLine
}

func (b blineSource) Close() error {
	b.Socket.Close()
	return b.bl.Close()
}

func newOpener(c config.ScanConfig) (scanner.Opener, error) {
	switch c.Source {
	case "hci":
		return func() (io.ReadCloser, error) { return openHCI(c) }, nil
	case "bline":
		return func() (io.ReadCloser, error) {
			bl := socket.NewBeaconLine("blueview", c.BlineURL, c.Anchors)
			if err := bl.Connect(); err != nil {
				return nil, err
			}
			s, err := socket.NewSocket(bl, c.Anchor, c.ReadTimeout)
			if err != nil {
				bl.Close()
				return nil, err
			}
			logger.Info("reading anchor", "beaconline", bl.Name(), "anchor", c.Anchor)
			return blineSource{Socket: s, bl: bl}, nil
		}, nil
	case "pcap":
		return func() (io.ReadCloser, error) {
			f, err := os.Open(c.PcapFile)
			if err != nil {
				return nil, errors.Wrap(err, "open capture")
			}
			r, err := capture.NewReader(f)
			if err != nil {
				f.Close()
				return nil, err
			}
			logger.Info("replaying capture", "file", c.PcapFile)
			return r, nil
		}, nil
	}
	return nil, errors.Errorf("unknown source %q", c.Source)
}
