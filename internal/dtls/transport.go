// Copyright 2019 Lanikai Labs. All rights reserved.
//
// DTLS Transport Adapter (spec section 4.6), generalizing the teacher's
// internal/mux/endpoint.go circular-buffer + single-slot-channel design
// (producer deliver, consumer tryConsume/Read) into a net.Conn the
// pion/dtls engine drives directly with its own Read/Write/deadline
// contract. Socket ownership and demuxing (internal/mux.Mux itself) stay
// out of scope per spec section 1 -- a host application pushes inbound
// datagrams in and receives outbound ones via Sender. Retransmission
// backoff is pion/dtls's own job now (Config.FlightInterval), and the
// overall handshake deadline is enforced by Conn.Handshake racing the
// blocking pion.Client/pion.Server call against a timer, not this
// package's.

package dtls

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanikai/dtlssrtp/internal/logging"
)

var transportLog = logging.DefaultLogger.WithTag("dtls-transport")

// Sender is how an Adapter emits outbound datagrams; the host
// application supplies the concrete implementation (a UDP socket, an
// ICE candidate pair, a test pipe).
type Sender interface {
	Send(b []byte) error
}

const (
	recvBufCount = 32
	recvBufSize  = 2048
)

// Adapter bridges the host's asynchronous, unreliable datagram push
// (WriteToRecvStream) to the net.Conn contract pion/dtls expects of its
// underlying transport. ID tags log lines for one handshake/connection,
// since a real deployment multiplexes many of these over one process.
//
// Adapter implements net.Conn; pion/dtls.Client/Server take it directly
// as the datagram transport the DTLS engine drives.
type Adapter struct {
	ID string

	sender Sender

	mu            sync.Mutex
	bufs          [][]byte
	nbufs         int
	nused         int
	first         int
	available     chan struct{}
	dead          chan struct{}
	readDeadline  time.Time
	writeDeadline time.Time
}

// NewAdapter creates a Transport Adapter writing outbound records
// through sender.
func NewAdapter(sender Sender) *Adapter {
	pool := make([]byte, recvBufCount*recvBufSize)
	bufs := make([][]byte, recvBufCount)
	for i := range bufs {
		bufs[i] = pool[i*recvBufSize : (i+1)*recvBufSize]
	}
	return &Adapter{
		ID:        uuid.NewString(),
		sender:    sender,
		bufs:      bufs,
		nbufs:     recvBufCount,
		available: make(chan struct{}, 1),
		dead:      make(chan struct{}),
	}
}

// WriteToRecvStream is called by the host application whenever an
// inbound datagram for this connection arrives. It never blocks: a full
// receive buffer drops the oldest queued datagram, matching the
// teacher's Endpoint.deliver behavior under backpressure.
func (a *Adapter) WriteToRecvStream(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.dead:
		return
	default:
	}

	var slot int
	if a.nused == a.nbufs {
		// Drop the oldest queued datagram to make room for this one.
		slot = a.first
		a.first = (a.first + 1) % a.nbufs
	} else {
		slot = (a.first + a.nused) % a.nbufs
		a.nused++
	}

	n := copy(a.bufs[slot][:cap(a.bufs[slot])], b)
	a.bufs[slot] = a.bufs[slot][:n]

	select {
	case a.available <- struct{}{}:
	default:
	}
}

func (a *Adapter) tryConsume(p []byte) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.nused == 0 {
		return 0, false
	}

	n := copy(p, a.bufs[a.first])
	a.first = (a.first + 1) % a.nbufs
	a.nused--

	if a.nused > 0 {
		select {
		case a.available <- struct{}{}:
		default:
		}
	}

	return n, true
}

// Read implements net.Conn, blocking until one inbound datagram is
// available, the read deadline (if any) elapses, or the Adapter is
// closed. pion/dtls calls this directly as its transport's receive side,
// driving its own retransmission timing via SetReadDeadline.
func (a *Adapter) Read(p []byte) (int, error) {
	if n, ok := a.tryConsume(p); ok {
		return n, nil
	}

	a.mu.Lock()
	deadline := a.readDeadline
	a.mu.Unlock()

	var timerC <-chan time.Time
	if !deadline.IsZero() {
		wait := time.Until(deadline)
		if wait <= 0 {
			return 0, &timeoutError{"dtls: read deadline exceeded"}
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timerC = timer.C
	}

	for {
		select {
		case <-a.dead:
			return 0, io.EOF
		case <-timerC:
			return 0, &timeoutError{"dtls: read deadline exceeded"}
		case <-a.available:
			if n, ok := a.tryConsume(p); ok {
				return n, nil
			}
		}
	}
}

// Write implements net.Conn, sending one outbound datagram through
// sender. pion/dtls calls this directly as its transport's send side.
func (a *Adapter) Write(b []byte) (int, error) {
	if err := a.sender.Send(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close implements net.Conn, releasing any goroutine blocked in Read.
// Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.dead:
	default:
		close(a.dead)
	}
	return nil
}

func (a *Adapter) LocalAddr() net.Addr  { return adapterAddr("local") }
func (a *Adapter) RemoteAddr() net.Addr { return adapterAddr(a.ID) }

func (a *Adapter) SetDeadline(t time.Time) error {
	a.mu.Lock()
	a.readDeadline = t
	a.writeDeadline = t
	a.mu.Unlock()
	return nil
}

func (a *Adapter) SetReadDeadline(t time.Time) error {
	a.mu.Lock()
	a.readDeadline = t
	a.mu.Unlock()
	return nil
}

func (a *Adapter) SetWriteDeadline(t time.Time) error {
	a.mu.Lock()
	a.writeDeadline = t
	a.mu.Unlock()
	return nil
}

// adapterAddr is a placeholder net.Addr: the Adapter has no real socket
// address of its own, since the host application owns the actual
// transport (spec section 1) and only pushes/pulls datagrams through
// WriteToRecvStream/Sender.
type adapterAddr string

func (a adapterAddr) Network() string { return "dtls-adapter" }
func (a adapterAddr) String() string  { return string(a) }

// timeoutError satisfies net.Error so pion/dtls's own retry/backoff logic
// can distinguish a deadline elapsing from a hard failure.
type timeoutError struct{ msg string }

func (e *timeoutError) Error() string   { return e.msg }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
