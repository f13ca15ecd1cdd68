package fauna

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// StreamEvent is a parsed JSON object from the streaming response body,
// distinguished by Type over the fixed set {start, version, history_rewrite,
// error}; the shape of Event is defined by the service, not this package.
type StreamEvent struct {
	Type  string
	Event []byte
}

// Subscriber receives the four observable callbacks of a stream
// subscription.
type Subscriber interface {
	OnSubscribe(sub *Subscription)
	OnNext(event *StreamEvent)
	OnError(err error)
	OnComplete()
}

// Subscription lets a Subscriber credit demand and cancel a stream.
type Subscription struct {
	pub *StreamPublisher
}

// Request credits n additional events of demand. The publisher never
// delivers more OnNext calls than the cumulative credit granted across all
// Request calls.
func (s *Subscription) Request(n int64) {
	if n <= 0 {
		return
	}
	p := s.pub
	p.mu.Lock()
	p.demand += n
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Cancel releases the underlying HTTP response and suppresses further
// callbacks. Idempotent; delivers no terminal callback to the subscriber.
func (s *Subscription) Cancel() {
	p := s.pub
	p.mu.Lock()
	if p.terminal {
		p.mu.Unlock()
		return
	}
	p.terminal = true
	_ = p.body.Close()
	p.mu.Unlock()
	p.cond.Broadcast()
	p.finish()
}

// initialScanBuffer and maxScanBuffer size the streaming publisher's line
// scanner well above bufio.Scanner's 64KiB default, since a single
// version event can carry a full document that exceeds that default and
// would otherwise fail the stream with ErrTooLong.
const (
	initialScanBuffer = 64 * 1024
	maxScanBuffer     = 16 * 1024 * 1024
)

// StreamPublisher turns a streaming HTTP response body into a pull-based,
// single-subscriber, demand-accounted source of StreamEvents.
type StreamPublisher struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	mu         sync.Mutex
	cond       *sync.Cond
	subscribed bool
	subscriber Subscriber
	demand     int64
	terminal   bool

	// onDone, when set, is invoked exactly once when the stream reaches a
	// terminal state, so the owning Client can stop tracking it.
	onDone   func()
	doneOnce sync.Once
}

func newStreamPublisher(body io.ReadCloser, scanner *bufio.Scanner) *StreamPublisher {
	scanner.Buffer(make([]byte, initialScanBuffer), maxScanBuffer)
	p := &StreamPublisher{body: body, scanner: scanner}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Subscribe attaches sub to the stream. Only the first call per publisher
// succeeds; a second call fails that subscriber with InvalidState and
// leaves the first subscription running.
func (p *StreamPublisher) Subscribe(sub Subscriber) {
	p.mu.Lock()
	if p.subscribed {
		p.mu.Unlock()
		sub.OnError(errInvalidState("stream already has a subscriber"))
		return
	}
	p.subscribed = true
	p.subscriber = sub
	p.mu.Unlock()

	subscription := &Subscription{pub: p}
	sub.OnSubscribe(subscription)

	go p.run(sub)
}

// run is the sole reader of the body: it blocks until demand is available,
// consumes exactly one unit of demand, then reads and decodes the next
// line. This bounds buffering by the transport's own flow control rather
// than an unbounded in-memory queue.
func (p *StreamPublisher) run(sub Subscriber) {
	for {
		p.mu.Lock()
		for p.demand <= 0 && !p.terminal {
			p.cond.Wait()
		}
		if p.terminal {
			p.mu.Unlock()
			return
		}
		p.demand--
		p.mu.Unlock()

		if !p.scanner.Scan() {
			if !p.setTerminal() {
				return
			}
			if err := p.scanner.Err(); err != nil {
				sub.OnError(transportError(err))
			} else {
				sub.OnComplete()
			}
			p.finish()
			return
		}

		line := bytes.TrimSpace(p.scanner.Bytes())
		if len(line) == 0 {
			// Blank keep-alive line: return the unused credit and keep reading.
			p.mu.Lock()
			p.demand++
			p.mu.Unlock()
			continue
		}

		var raw struct {
			Type  string          `json:"type"`
			Event jsoniterMessage `json:"event"`
		}
		if err := jsonAPI.Unmarshal(line, &raw); err != nil {
			if !p.setTerminal() {
				return
			}
			sub.OnError(&Error{Kind: KindUnknown, Message: err.Error(), Cause: err})
			p.finish()
			return
		}

		if raw.Type == "error" {
			var qe QueryError
			_ = jsonAPI.Unmarshal(raw.Event, &qe)
			if !p.setTerminal() {
				return
			}
			sub.OnError(&Error{Kind: KindStreaming, QueryErrors: []QueryError{qe}, Position: qe.Position})
			p.finish()
			return
		}

		sub.OnNext(&StreamEvent{Type: raw.Type, Event: raw.Event})
	}
}

// setTerminal flips the publisher into its terminal state and reports
// whether the caller is the one responsible for delivering a callback (the
// first to observe terminal==false wins; a concurrent Cancel or
// terminateWithClientClosed may have already claimed it).
func (p *StreamPublisher) setTerminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		return false
	}
	p.terminal = true
	return true
}

// terminateWithClientClosed ends the stream because its owning connection
// was closed, delivering onError(ClientClosed) to the subscriber if the
// stream had not already reached a terminal state.
func (p *StreamPublisher) terminateWithClientClosed() {
	p.mu.Lock()
	if p.terminal {
		p.mu.Unlock()
		return
	}
	p.terminal = true
	sub := p.subscriber
	_ = p.body.Close()
	p.mu.Unlock()

	p.cond.Broadcast()
	if sub != nil {
		sub.OnError(errClientClosed())
	}
	p.finish()
}

func (p *StreamPublisher) finish() {
	p.doneOnce.Do(func() {
		if p.onDone != nil {
			p.onDone()
		}
	})
}
