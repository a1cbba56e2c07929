package reporter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/beacon"
)

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes the JSON summary of each record on subject.<vendor>.
type NATSSink struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
}

// DialNATS connects to url and returns a sink publishing under subject.
func DialNATS(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("blueview"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect nats %s", url)
	}
	s := NewNATSSink(nc, subject)
	s.conn = nc
	return s, nil
}

func NewNATSSink(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

func (n *NATSSink) Subject(rec beacon.Record) string {
	return n.subject + "." + rec.Manufacturer()
}

func (n *NATSSink) Send(_ context.Context, rec beacon.Record) error {
	data, err := json.Marshal(rec.Summary())
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if err := n.pub.Publish(n.Subject(rec), data); err != nil {
		return errors.Wrap(err, "nats publish")
	}
	return nil
}

func (n *NATSSink) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return errors.Wrap(err, "nats drain")
	}
	return nil
}
