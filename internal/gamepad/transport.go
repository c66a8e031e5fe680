package gamepad

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/lxzan/gws"
)

// DefaultPort is used when the endpoint has no port.
const DefaultPort = "2579"

// ErrTransportClosed is returned by Exchange after Close.
var ErrTransportClosed = errors.New("transport closed")

// Transport performs one request/response round trip per Exchange call. Close
// unblocks a pending Exchange.
type Transport interface {
	Exchange() ([]byte, error)
	Close() error
}

// DialFunc opens a new Transport.
type DialFunc func(ctx context.Context) (Transport, error)

// Dialer returns a DialFunc for endpoint. Endpoints are "host", "host:port",
// "tcp://host[:port]", or a "ws://" / "wss://" URL.
func Dialer(endpoint string, timeout time.Duration) (DialFunc, error) {
	switch {
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return func(ctx context.Context) (Transport, error) {
			return DialWebSocket(ctx, endpoint)
		}, nil
	case strings.Contains(endpoint, "://") && !strings.HasPrefix(endpoint, "tcp://"):
		return nil, fmt.Errorf("unsupported endpoint scheme: %s", endpoint)
	}

	addr := TCPAddress(strings.TrimPrefix(endpoint, "tcp://"))
	if addr == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	return func(ctx context.Context) (Transport, error) {
		return DialTCP(ctx, addr, timeout)
	}, nil
}

// TCPAddress adds DefaultPort when addr has none.
func TCPAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), DefaultPort)
}

// TCPTransport speaks the byte protocol over a persistent TCP connection:
// write Request, read until Terminator.
type TCPTransport struct {
	conn net.Conn
	r    *bufio.Reader
}

func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*TCPTransport, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewTCPTransport(conn), nil
}

// NewTCPTransport wraps an established connection.
func NewTCPTransport(conn net.Conn) *TCPTransport {
	return &TCPTransport{
		conn: conn,
		r:    bufio.NewReaderSize(conn, 1024),
	}
}

func (t *TCPTransport) Exchange() ([]byte, error) {
	if _, err := t.conn.Write([]byte{Request}); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	msg, err := t.r.ReadBytes(Terminator)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return msg, nil
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}

// WebSocketTransport sends Request as a text message and treats every
// incoming message as one complete response.
type WebSocketTransport struct {
	gws.BuiltinEventHandler

	conn *gws.Conn
	msgs chan []byte

	once sync.Once
	done chan struct{}
	err  error
}

func DialWebSocket(ctx context.Context, url string) (*WebSocketTransport, error) {
	t := &WebSocketTransport{
		msgs: make(chan []byte, 1),
		done: make(chan struct{}),
	}

	type result struct {
		conn *gws.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, _, err := gws.NewClient(t, &gws.ClientOption{Addr: url})
		ch <- result{conn, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.WriteClose(1000, nil)
			}
		}()
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, res.err)
	}

	t.conn = res.conn
	go t.conn.ReadLoop()
	return t, nil
}

func (t *WebSocketTransport) OnClose(_ *gws.Conn, err error) {
	t.finish(err)
}

func (t *WebSocketTransport) OnMessage(_ *gws.Conn, message *gws.Message) {
	defer message.Close()
	msg := bytes.Clone(message.Bytes())
	select {
	case t.msgs <- msg:
	case <-t.done:
	}
}

func (t *WebSocketTransport) finish(err error) {
	t.once.Do(func() {
		if err == nil {
			err = ErrTransportClosed
		}
		t.err = err
		close(t.done)
	})
}

func (t *WebSocketTransport) Exchange() ([]byte, error) {
	select {
	case <-t.done:
		return nil, t.err
	default:
	}
	if err := t.conn.WriteMessage(gws.OpcodeText, []byte{Request}); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	select {
	case msg := <-t.msgs:
		return msg, nil
	case <-t.done:
		return nil, fmt.Errorf("read response: %w", t.err)
	}
}

func (t *WebSocketTransport) Close() error {
	t.conn.WriteClose(1000, nil)
	t.finish(ErrTransportClosed)
	return nil
}
