// Package reporter transmits decoded records to a collector.
package reporter

import (
	"context"

	"github.com/trambelus/Blueview/beacon"
	"github.com/trambelus/Blueview/internal/logging"
)

var logger = logging.New("reporter")

// Sink delivers one record. Send may block until the record is accepted.
type Sink interface {
	Send(ctx context.Context, rec beacon.Record) error
	Close() error
}
