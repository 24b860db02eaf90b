package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ManuGH/boomctl/internal/platform/httpx"
)

// runHealthcheckCLI probes a running daemon; used as the container
// HEALTHCHECK. Exit code 0 means healthy.
func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	mode := fs.String("mode", "ready", "ready (device polled recently) or live (process up)")
	addr := fs.String("addr", "localhost:8088", "daemon API address")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := "/readyz"
	switch *mode {
	case "ready":
	case "live":
		path = "/healthz"
	default:
		fmt.Fprintf(os.Stderr, "unknown healthcheck mode %q\n", *mode)
		return 2
	}

	client := httpx.NewClient(*timeout)
	resp, err := client.Get("http://" + *addr + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %s\n", resp.Status)
		return 1
	}

	fmt.Printf("healthy (%s)\n", *mode)
	return 0
}
