package socket

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Relay serves the HCI traffic of local anchors, keyed by anchor number, to
// the clients of srv. HCI packets written by clients go to the anchor on their
// channel. It returns when ctx is done or an anchor fails to read.
func Relay(ctx context.Context, srv *Server, anchors map[int]io.ReadWriter) error {
	errc := make(chan error, len(anchors))
	byChannel := make(map[byte]io.ReadWriter, len(anchors))
	for id, rw := range anchors {
		byChannel[AnchorChannel(id)] = rw
		go func(id int, r io.Reader) {
			errc <- relayAnchor(ctx, srv, id, r)
		}(id, rw)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case td := <-srv.In:
			if td.Typ[0] != TypHci {
				logger.Debug("ignoring tsb packet from client", "data", td.String())
				continue
			}
			w := byChannel[td.Ch[0]]
			if w == nil {
				logger.Warn("client wrote to unknown anchor", "channel", td.Ch[0])
				continue
			}
			if _, err := w.Write(td.Payload); err != nil {
				logger.Warn("forwarding command to anchor failed", "channel", td.Ch[0], "err", err)
			}
		}
	}
}

func relayAnchor(ctx context.Context, srv *Server, id int, r io.Reader) error {
	buf := make([]byte, Buflen)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if errors.Is(err, ErrReadTimeout) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "anchor %d", id)
		}
		payload := append([]byte(nil), buf[:n]...)
		srv.Broadcast(Data{Ch: []byte{AnchorChannel(id)}, Typ: []byte{TypHci}, Payload: payload})
	}
	return nil
}
