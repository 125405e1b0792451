package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct{ addr string }

func NewClient(addr string) *Client { return &Client{addr: addr} }

func (c *Client) SetInterval(d time.Duration) (time.Duration, error) {
	body, _ := json.Marshal(map[string]any{"duration": d.String()})
	resp, err := http.Post("http://"+c.addr+"/set-interval", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("server error: %s", resp.Status)
	}
	var r struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&r)
	if r.Old != "" {
		if old, err := time.ParseDuration(r.Old); err == nil {
			return old, nil
		}
	}
	return 0, nil
}

func (c *Client) SetWorkers(n int) (int, error) {
	body, _ := json.Marshal(map[string]any{"workers": n})
	resp, err := http.Post("http://"+c.addr+"/set-workers", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("server error: %s", resp.Status)
	}
	var r struct {
		Old int `json:"old"`
		New int `json:"new"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&r)
	return r.Old, nil
}

// Status reports the running daemon's interval and worker count.
func (c *Client) Status() (time.Duration, int, error) {
	resp, err := http.Get("http://" + c.addr + "/status")
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, 0, fmt.Errorf("server error: %s", resp.Status)
	}
	var r struct {
		Interval string `json:"interval"`
		Workers  int    `json:"workers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return 0, 0, err
	}
	d, err := time.ParseDuration(r.Interval)
	if err != nil {
		return 0, 0, err
	}
	return d, r.Workers, nil
}
