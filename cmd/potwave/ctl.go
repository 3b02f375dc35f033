package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"potwave/internal/serial"
)

func printCtlUsage(w io.Writer) {
	fmt.Fprintf(w, "potwave ctl v%s\n", version)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  potwave ctl [-ipc-socket PATH] connect")
	fmt.Fprintln(w, "  potwave ctl [-ipc-socket PATH] status")
	fmt.Fprintln(w, "  potwave ctl [-ipc-socket PATH] sample N")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  connect    Start a connection attempt (same as the Connect button)")
	fmt.Fprintln(w, "  status     Print link state, speeds and sample counters as JSON")
	fmt.Fprintln(w, "  sample N   Feed one raw token to the conditioner, as if read from the link")
	fmt.Fprintln(w)
}

// runCtlSubcommand talks to a running viewer and returns the exit code.
func runCtlSubcommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	socketPath := fs.String("ipc-socket", defaultIPCSocket, "Unix domain socket path for IPC")
	fs.Usage = func() { printCtlUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printCtlUsage(stderr)
		return 2
	}

	var ev Event
	switch rest[0] {
	case "connect":
		ev = ConnectRequested{}
	case "status":
		ev = RequestStatus{}
	case "sample":
		if len(rest) != 2 {
			fmt.Fprintln(stderr, "error: sample takes exactly one value")
			return 2
		}
		ev = SampleReceived{Raw: rest[1]}
	default:
		fmt.Fprintf(stderr, "error: unknown ctl command %q\n", rest[0])
		printCtlUsage(stderr)
		return 2
	}

	resp, err := SendIPCEvent(ExpandPath(*socketPath), ev)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if len(resp.Data) > 0 {
		var out bytes.Buffer
		if err := json.Indent(&out, resp.Data, "", "  "); err != nil {
			out.Reset()
			out.Write(resp.Data)
		}
		fmt.Fprintln(stdout, out.String())
		return 0
	}
	fmt.Fprintln(stdout, resp.Status)
	return 0
}

// runPortsSubcommand prints candidate serial devices, one per line.
func runPortsSubcommand(stdout, stderr io.Writer) int {
	ports, err := serial.ListPorts()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if len(ports) == 0 {
		fmt.Fprintln(stderr, "no serial devices found")
		return 1
	}
	for _, p := range ports {
		fmt.Fprintln(stdout, p)
	}
	return 0
}
