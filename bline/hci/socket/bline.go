package socket

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/internal/logging"
)

var logger = logging.New("socket")

// ErrReadTimeout is returned by Read when no packet arrived in time.
var ErrReadTimeout = errors.New("socket: read timeout")

const chanLen int = 10

// BeaconLine is a tsb connection to a relay serving the HCI traffic of
// several anchors.
type BeaconLine struct {
	name    string
	url     string
	anchors int
	conn    net.Conn
	tdPut   chan Data
	tdGet   chan Data
	tdDone  chan struct{}

	mu         sync.Mutex
	payloadGet map[byte]chan []byte
}

// Socket is one anchor of a BeaconLine as ReadWriteCloser of HCI packets.
type Socket struct {
	id      int
	bl      *BeaconLine
	timeout time.Duration
	payload chan []byte
	closed  chan struct{}
	once    sync.Once
	rmu     sync.Mutex
	wmu     sync.Mutex
}

func NewBeaconLine(name string, url string, anchors int) *BeaconLine {
	return &BeaconLine{name: name, url: url, anchors: anchors}
}

func (bl *BeaconLine) Name() string {
	return bl.name
}

// Connect dials the relay and starts dispatching HCI packets to the anchors.
func (bl *BeaconLine) Connect() error {
	conn, err := net.Dial("tcp", bl.url)
	if err != nil {
		return errors.Wrapf(err, "dial beaconline %s", bl.url)
	}
	bl.conn = conn
	bl.mu.Lock()
	bl.payloadGet = make(map[byte]chan []byte)
	for i := 1; i <= bl.anchors; i++ {
		bl.payloadGet[AnchorChannel(i)] = make(chan []byte, chanLen)
	}
	bl.mu.Unlock()
	logger.Info("client connected", "url", "tcp://"+bl.url, "anchors", bl.anchors)
	bl.tdPut = PutData(bl.conn)
	bl.tdGet, bl.tdDone = GetData(bl.conn)
	go bl.dispatch()
	return nil
}

func (bl *BeaconLine) dispatch() {
	for {
		select {
		case <-bl.tdDone:
			logger.Info("client connection closed", "name", bl.name)
			return
		case td := <-bl.tdGet:
			switch {
			case td.Typ[0] == TypHci:
				bl.mu.Lock()
				ch := bl.payloadGet[td.Ch[0]]
				bl.mu.Unlock()
				if ch == nil {
					continue
				}
				select {
				case ch <- td.Payload:
				default:
					logger.Debug("anchor queue full, dropping", "channel", td.Ch[0])
				}
			case td.Typ[0] == TypError:
				logger.Warn("anchor error", "anchor", int(td.Ch[0])/5, "msg", string(td.Payload))
			default:
				logger.Warn("unexpected tsb packet", "data", td.String())
			}
		}
	}
}

// Close drops the relay connection.
func (bl *BeaconLine) Close() error {
	if bl.conn == nil {
		return nil
	}
	return bl.conn.Close()
}

// NewSocket returns the HCI channel of anchor id. Reads give up after timeout.
func NewSocket(bl *BeaconLine, id int, timeout time.Duration) (*Socket, error) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	payload := bl.payloadGet[AnchorChannel(id)]
	if payload == nil {
		return nil, errors.Errorf("beaconline %s has no anchor %d", bl.name, id)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Socket{id: id, bl: bl, timeout: timeout, payload: payload, closed: make(chan struct{})}, nil
}

func (s *Socket) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	select {
	case <-s.closed:
		return 0, errors.New("socket: closed")
	case <-s.bl.tdDone:
		return 0, errors.New("socket: beaconline closed")
	case payload := <-s.payload:
		return copy(p, payload), nil
	case <-time.After(s.timeout):
		return 0, ErrReadTimeout
	}
}

func (s *Socket) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	td := Data{Ch: []byte{AnchorChannel(s.id)}, Typ: []byte{TypHci}, Payload: append([]byte(nil), p...)}
	select {
	case s.bl.tdPut <- td:
		return len(p), nil
	case <-s.bl.tdDone:
		return 0, errors.New("socket: beaconline closed")
	}
}

func (s *Socket) Close() error {
	s.once.Do(func() {
		logger.Debug("close anchor", "name", s.bl.name, "anchor", s.id)
		close(s.closed)
	})
	return nil
}
