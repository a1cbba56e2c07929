package collector

// Entry is one record posted by a scanner.
type Entry struct {
	UUID         string `json:"uuid,omitempty"`
	MAC          string `json:"mac"`
	Packet       string `json:"packet"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// Queue is a bounded FIFO of entries. When full, Push discards the oldest
// entry to make room.
type Queue struct {
	ch chan Entry
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan Entry, size)}
}

// Push appends e and reports how many entries were discarded.
func (q *Queue) Push(e Entry) int {
	dropped := 0
	for {
		select {
		case q.ch <- e:
			return dropped
		default:
		}
		select {
		case <-q.ch:
			dropped++
		default:
		}
	}
}

// Drain removes and returns every queued entry, oldest first. It never
// returns nil.
func (q *Queue) Drain() []Entry {
	out := make([]Entry, 0, len(q.ch))
	for {
		select {
		case e := <-q.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }
