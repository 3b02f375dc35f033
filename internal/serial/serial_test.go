package serial

import (
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestBaudRateToSpeed(t *testing.T) {
	tests := []struct {
		baud int
		want uint32
	}{
		{9600, unix.B9600},
		{19200, unix.B19200},
		{115200, unix.B115200},
	}
	for _, tt := range tests {
		got, err := baudRateToSpeed(tt.baud)
		if err != nil {
			t.Fatalf("baudRateToSpeed(%d): %v", tt.baud, err)
		}
		if got != tt.want {
			t.Errorf("baudRateToSpeed(%d) = %#x, want %#x", tt.baud, got, tt.want)
		}
	}

	if _, err := baudRateToSpeed(12345); err == nil {
		t.Fatalf("expected error for unsupported baud rate")
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected error for empty device")
	}

	_, err := Open(Config{Device: "/dev/does-not-exist-potwave"})
	if err == nil || !strings.Contains(err.Error(), "/dev/does-not-exist-potwave") {
		t.Fatalf("Open(missing) error = %v", err)
	}

	if _, err := Open(Config{Device: "/dev/null", BaudRate: 7}); err == nil {
		t.Fatalf("expected error for unsupported baud rate")
	}
}

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts: %v", err)
	}
	for i := 1; i < len(ports); i++ {
		if ports[i-1] >= ports[i] {
			t.Fatalf("ports not sorted and unique: %v", ports)
		}
	}
}
