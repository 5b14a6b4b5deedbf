package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

// cmdShell runs an interactive REPL against a running server, reading
// lines with a raw-mode terminal for proper backspace/arrow handling.
// Uses golang.org/x/term's line editing via term.NewTerminal.
func cmdShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runShellLoop(os.Stdin, os.Stdout, *addr)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: entering raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "canonstore> ")

	fmt.Fprintln(t, "canonstore interactive shell. Commands: put <key-json> <value-json>, get <fingerprint>, remove <fingerprint>, health, metrics, diagnostics, quit")

	c := newHTTPClient(*addr)
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		if handleShellLine(t, c, line) {
			return
		}
	}
}

// runShellLoop is the non-terminal fallback (e.g. piped stdin in tests or
// scripts), reading plain lines instead of engaging raw mode.
func runShellLoop(r io.Reader, w io.Writer, addr string) {
	c := newHTTPClient(addr)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if handleShellLine(w, c, scanner.Text()) {
			return
		}
	}
}

func handleShellLine(w io.Writer, c *httpClient, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	fields := strings.SplitN(line, " ", 3)
	switch fields[0] {
	case "quit", "exit":
		return true
	case "health":
		_, data, err := c.do(http.MethodGet, "/health", nil)
		printShellResult(w, data, err)
	case "metrics":
		_, data, err := c.do(http.MethodGet, "/metrics", nil)
		printShellResult(w, data, err)
	case "diagnostics":
		_, data, err := c.do(http.MethodGet, "/diagnostics", nil)
		printShellResult(w, data, err)
	case "get":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: get <fingerprint>")
			return false
		}
		_, data, err := c.do(http.MethodGet, "/entries/"+fields[1], nil)
		printShellResult(w, data, err)
	case "remove":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: remove <fingerprint>")
			return false
		}
		_, data, err := c.do(http.MethodDelete, "/entries/"+fields[1], nil)
		printShellResult(w, data, err)
	case "put":
		if len(fields) < 3 {
			fmt.Fprintln(w, "usage: put <key-json> <value-json>")
			return false
		}
		body := fmt.Sprintf(`{"key":%s,"value":%s}`, fields[1], fields[2])
		_, data, err := c.do(http.MethodPost, "/entries", []byte(body))
		printShellResult(w, data, err)
	default:
		fmt.Fprintf(w, "unknown command: %s\n", fields[0])
	}
	return false
}

func printShellResult(w io.Writer, data []byte, err error) {
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
