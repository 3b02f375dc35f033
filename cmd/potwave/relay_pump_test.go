package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPumpOnce_EOFIsReported(t *testing.T) {
	src := &scriptSource{tokens: []string{"1", "2"}, endErr: io.EOF}
	var got []string
	err := pumpOnce(context.Background(), src, func(s string) { got = append(got, s) }, quietLogger())
	if err == nil || err.Error() != "device closed the link" {
		t.Fatalf("err = %v", err)
	}
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("published %q", got)
	}
}

func TestPumpOnce_OpenError(t *testing.T) {
	want := errors.New("permission denied")
	src := &scriptSource{openErr: want}
	if err := pumpOnce(context.Background(), src, func(string) {}, quietLogger()); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestPumpLines_ReopensAfterClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptSource{tokens: []string{"512"}, endErr: io.EOF}
	var mu sync.Mutex
	var published int

	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpLines(ctx, src, func(string) {
			mu.Lock()
			published++
			mu.Unlock()
		}, 5*time.Millisecond, quietLogger())
	}()

	waitUntil(t, time.Second, func() bool { return src.openCount() >= 3 }, "source was not reopened")
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pumpLines did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if published < 3 {
		t.Fatalf("published %d lines across %d opens", published, src.openCount())
	}
}

func TestPumpOnce_RepublishesLinesVerbatim(t *testing.T) {
	src := &readerSource{data: "512\r\n 7 \r\nabc\n"}
	var got []string
	_ = pumpOnce(context.Background(), src, func(s string) { got = append(got, s) }, quietLogger())

	want := []string{"512\r", " 7 \r", "abc"}
	if len(got) != len(want) {
		t.Fatalf("published %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// readerSource serves a fixed byte stream through the same line splitter the
// serial source uses.
type readerSource struct{ data string }

func (s *readerSource) Describe() string { return "reader" }

func (s *readerSource) Open(ctx context.Context) (TokenStream, error) {
	return newLineStream(ctx, io.NopCloser(nil), strings.NewReader(s.data)), nil
}
