package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"potwave/internal/serial"
)

// ============================================================================
// Sample Sources
// ============================================================================
// A SampleSource yields raw tokens, one per sample, from either a serial port
// (newline-delimited) or the WebSocket relay (one token per text message).
// Tokens are passed on unparsed; the conditioner decides what is a sample.
// ============================================================================

// SampleSource opens a fresh token stream for each connection attempt.
type SampleSource interface {
	Open(ctx context.Context) (TokenStream, error)
	Describe() string
}

// TokenStream is an open link. Next returns io.EOF when the far end closes
// cleanly. Close releases the link and unblocks a pending Next.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// newSampleSource picks the source named by cfg.Source.Mode.
func newSampleSource(cfg *Config) (SampleSource, error) {
	switch cfg.Source.Mode {
	case SourceModeSerial:
		return &serialSource{cfg: cfg.ToSerialConfig()}, nil
	case SourceModeRelay:
		return &relaySource{
			url:              cfg.Source.RelayURL,
			handshakeTimeout: time.Duration(cfg.Source.HandshakeTimeoutMS) * time.Millisecond,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}

// ----------------------------------------------------------------------------
// Serial
// ----------------------------------------------------------------------------

type serialSource struct {
	cfg serial.Config
}

func (s *serialSource) Describe() string { return "serial:" + s.cfg.Device }

func (s *serialSource) Open(ctx context.Context) (TokenStream, error) {
	port, err := serial.Open(s.cfg)
	if err != nil {
		return nil, err
	}
	return newLineStream(ctx, port, port.ContextReader(ctx)), nil
}

// lineStream splits a byte stream on "\n". Anything else, including a
// "\r" before the newline, stays in the token.
type lineStream struct {
	closer  io.Closer
	scanner *bufio.Scanner
	done    chan struct{}
	once    sync.Once
}

func newLineStream(ctx context.Context, c io.Closer, r io.Reader) *lineStream {
	sc := bufio.NewScanner(r)
	sc.Split(scanNewlines)
	ls := &lineStream{closer: c, scanner: sc, done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			_ = ls.Close()
		case <-ls.done:
		}
	}()
	return ls
}

func (l *lineStream) Next() (string, error) {
	if l.scanner.Scan() {
		return l.scanner.Text(), nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// scanNewlines is bufio.ScanLines without the "\r" stripping, so the relay
// can republish lines byte for byte.
func scanNewlines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (l *lineStream) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.closer.Close()
	})
	return err
}

// ----------------------------------------------------------------------------
// WebSocket relay
// ----------------------------------------------------------------------------

type relaySource struct {
	url              string
	handshakeTimeout time.Duration
}

func (s *relaySource) Describe() string { return "relay:" + s.url }

func (s *relaySource) Open(ctx context.Context) (TokenStream, error) {
	d := websocket.Dialer{
		HandshakeTimeout: s.handshakeTimeout,
	}
	conn, _, err := d.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}

	ws := &wsStream{conn: conn, done: make(chan struct{})}

	// ReadMessage has no context; closing the conn is what unblocks it.
	go func() {
		select {
		case <-ctx.Done():
			_ = ws.Close()
		case <-ws.done:
		}
	}()
	return ws, nil
}

type wsStream struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (w *wsStream) Next() (string, error) {
	for {
		mt, msg, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return strings.TrimSuffix(string(msg), "\n"), nil
	}
}

func (w *wsStream) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = w.conn.Close()
	})
	return err
}

// ----------------------------------------------------------------------------
// Connector
// ----------------------------------------------------------------------------

// Connector runs connection attempts against a SampleSource and reports
// progress to the daemon as events. At most one attempt runs at a time; the
// reducer guarantees that by ignoring connect requests while busy.
type Connector struct {
	ctx    context.Context
	source SampleSource
	events chan<- Event
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewConnector returns a connector whose attempts stop when ctx is canceled.
func NewConnector(ctx context.Context, source SampleSource, events chan<- Event, logger *slog.Logger) *Connector {
	return &Connector{ctx: ctx, source: source, events: events, logger: logger}
}

// Start launches one attempt in the background.
func (c *Connector) Start(attempt int) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(attempt)
	}()
}

// Wait blocks until every attempt has returned.
func (c *Connector) Wait() { c.wg.Wait() }

func (c *Connector) run(attempt int) {
	stream, err := c.source.Open(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.post(LinkPhaseChanged{Phase: LinkFailed, Err: err.Error()})
		return
	}
	defer stream.Close()

	c.logger.Debug("sample source open", "source", c.source.Describe(), "attempt", attempt)
	c.post(LinkPhaseChanged{Phase: LinkStreaming})

	for {
		tok, err := stream.Next()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				c.post(LinkPhaseChanged{Phase: LinkDisconnected})
				return
			}
			c.post(LinkPhaseChanged{Phase: LinkFailed, Err: err.Error()})
			return
		}
		if !c.post(SampleReceived{Raw: tok}) {
			return
		}
	}
}

// post delivers ev unless the connector is shutting down.
func (c *Connector) post(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// ----------------------------------------------------------------------------
// Link view
// ----------------------------------------------------------------------------

// linkView publishes the link phase from the daemon to the display.
type linkView struct {
	mu    sync.RWMutex
	phase LinkPhase
	err   string
}

func (v *linkView) Store(phase LinkPhase, err string) {
	v.mu.Lock()
	v.phase, v.err = phase, err
	v.mu.Unlock()
}

// Load returns the last stored phase, LinkDisconnected before any Store.
func (v *linkView) Load() (LinkPhase, string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.phase == "" {
		return LinkDisconnected, ""
	}
	return v.phase, v.err
}
