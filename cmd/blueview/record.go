package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trambelus/Blueview/bline/hci/socket"
	"github.com/trambelus/Blueview/internal/capture"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		file  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture raw HCI events into a pcap file",
		Long: `Record scans on the local controller and writes every event to a pcap file
(link type BLUETOOTH_HCI_H4_WITH_PHDR). The capture can be replayed with
"blueview scan --pcap" or opened in Wireshark.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := openHCI(a.cfg.Scan)
			if err != nil {
				return err
			}
			defer hs.Close()
			f, err := os.Create(file)
			if err != nil {
				return errors.Wrap(err, "create capture")
			}
			defer f.Close()
			n, err := record(cmd.Context(), hs, f, count)
			logger.Info("capture written", "file", file, "events", n)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "output", "o", "blueview.pcap", "pcap file to write")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after n events (0: until interrupted)")
	return cmd
}

// record copies events from src to a pcap stream on w until ctx is done, src
// ends or count events are written.
func record(ctx context.Context, src io.Reader, w io.Writer, count int) (int, error) {
	cw, err := capture.NewWriter(w)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, socket.Buflen)
	n := 0
	for ctx.Err() == nil && (count <= 0 || n < count) {
		m, err := src.Read(buf)
		if errors.Is(err, socket.ErrReadTimeout) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := cw.WriteEvent(buf[:m]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
