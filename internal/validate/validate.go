// Package validate holds small input checks shared by the CLI and the
// HTTP layer.
package validate

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// URL checks that s parses as an absolute http(s) URL.
func URL(s string) error {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	return nil
}

// Reachable checks the URL syntactically and then probes it with a short
// GET. Used when registering feeds so typos fail fast.
func Reachable(s string) error {
	if err := URL(s); err != nil {
		return err
	}
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(s)
	if err != nil {
		return fmt.Errorf("could not reach URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bad response status: %s", resp.Status)
	}
	return nil
}
