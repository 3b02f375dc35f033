// pot_listen subscribes to a potwave relay and prints every sample it
// forwards. On a terminal each sample is drawn as a bar meter.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"potwave/internal/helix"
)

func main() {
	var (
		wsURL  = flag.String("ws", "ws://127.0.0.1:8080/ws", "potwave relay websocket URL")
		raw    = flag.Bool("raw", false, "Print tokens verbatim, even on a terminal")
		maxVal = flag.Int("max", helix.DefaultMaxSample, "Sample value that fills the meter")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("connected! (press Ctrl+C to exit)")

	// The relay pings every 20s; keep the read deadline ahead of that.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	out := newPrinter(os.Stdout, *raw, *maxVal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			switch mt {
			case websocket.TextMessage:
				out.Line(string(msg))
			case websocket.BinaryMessage:
				fmt.Printf("[BINARY] %d bytes\n", len(msg))
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// printer writes one line per token, as a meter when attached to a terminal.
type printer struct {
	w     io.Writer
	meter bool
	max   int
	width func() int
}

func newPrinter(f *os.File, raw bool, max int) *printer {
	fd := int(f.Fd())
	p := &printer{w: f, max: max, width: func() int { return 80 }}
	if !raw && term.IsTerminal(fd) {
		p.meter = true
		p.width = func() int {
			w, _, err := term.GetSize(fd)
			if err != nil || w <= 0 {
				return 80
			}
			return w
		}
	}
	return p
}

func (p *printer) Line(tok string) {
	tok = strings.TrimSuffix(tok, "\n")
	if !p.meter {
		fmt.Fprintln(p.w, tok)
		return
	}
	n, ok := helix.ParseSample(tok)
	if !ok {
		fmt.Fprintf(p.w, "[DISCARD] %q\n", tok)
		return
	}
	fmt.Fprintln(p.w, meterLine(n, p.max, p.width()))
}

// meterLine renders "NNNN |#####.....|" fitted to cols columns. Values are
// clamped to [0, max].
func meterLine(n, max, cols int) string {
	if max <= 0 {
		max = 1
	}
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	label := fmt.Sprintf("%5d ", n)
	bar := cols - len(label) - 2
	if bar < 1 {
		return strings.TrimSpace(label)
	}
	fill := n * bar / max
	return label + "|" + strings.Repeat("#", fill) + strings.Repeat(".", bar-fill) + "|"
}
