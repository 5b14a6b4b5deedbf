package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// httpClient is a thin wrapper over http.Client used by the scripting
// subcommands (put/get/remove/health/metrics/diagnostics) to talk to a
// running 'canonstore serve' instance, rather than scattering bare
// http.Get/http.Post calls through main.
type httpClient struct {
	base string
	cl   *http.Client
}

func newHTTPClient(addr string) *httpClient {
	return &httpClient{base: "http://" + addr, cl: &http.Client{Timeout: 10 * time.Second}}
}

func (c *httpClient) do(method, path string, body []byte) (*http.Response, []byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to %s: %w", c.base+path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, data, nil
}

func cmdPut(args []string) {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	keyJSON := fs.String("key", "null", "JSON-encoded key wire value")
	valueJSON := fs.String("value", "null", "JSON-encoded value")
	fs.Parse(args)

	body := fmt.Sprintf(`{"key":%s,"value":%s}`, *keyJSON, *valueJSON)
	c := newHTTPClient(*addr)
	resp, data, err := c.do(http.MethodPost, "/entries", []byte(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d %s\n", resp.StatusCode, data)
}

func cmdGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: canonstore get [--addr host:port] <fingerprint>")
		os.Exit(1)
	}
	c := newHTTPClient(*addr)
	resp, data, err := c.do(http.MethodGet, "/entries/"+fs.Arg(0), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d %s\n", resp.StatusCode, data)
}

func cmdHas(args []string) {
	fs := flag.NewFlagSet("has", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: canonstore has [--addr host:port] <fingerprint>")
		os.Exit(1)
	}
	c := newHTTPClient(*addr)
	resp, _, err := c.do(http.MethodHead, "/entries/"+fs.Arg(0), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.StatusCode == http.StatusOK)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func cmdClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	c := newHTTPClient(*addr)
	resp, data, err := c.do(http.MethodDelete, "/entries", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusNoContent {
		fmt.Printf("%d %s\n", resp.StatusCode, data)
		os.Exit(1)
	}
	fmt.Println(resp.StatusCode)
}

func cmdIterate(args []string) {
	fs := flag.NewFlagSet("iterate", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)

	c := newHTTPClient(*addr)
	req, err := http.NewRequest(http.MethodGet, c.base+"/entries", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: building request: %v\n", err)
		os.Exit(1)
	}
	resp, err := c.cl.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			fmt.Println(data)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: reading stream: %v\n", err)
		os.Exit(1)
	}
}

func cmdRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: canonstore remove [--addr host:port] <fingerprint>")
		os.Exit(1)
	}
	c := newHTTPClient(*addr)
	resp, _, err := c.do(http.MethodDelete, "/entries/"+fs.Arg(0), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.StatusCode)
}

func cmdHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	c := newHTTPClient(*addr)
	_, data, err := c.do(http.MethodGet, "/health", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(data))
	}
}

func cmdMetrics(args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	c := newHTTPClient(*addr)
	_, data, err := c.do(http.MethodGet, "/metrics", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func cmdDiagnostics(args []string) {
	fs := flag.NewFlagSet("diagnostics", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	fs.Parse(args)
	c := newHTTPClient(*addr)
	_, data, err := c.do(http.MethodGet, "/diagnostics", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(data))
	}
}
