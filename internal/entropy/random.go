// Package entropy picks world seeds from random.org, falling back to
// crypto/rand when the API is unavailable or unconfigured.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// Session seeds are drawn from [SeedMin, SeedMax].
const (
	SeedMin = 0
	SeedMax = 10000
)

// Client fetches true random integers from random.org with a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []int64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the client at another JSON-RPC endpoint.
func (c *Client) WithEndpoint(url string) *Client {
	if c != nil {
		c.endpoint = url
	}
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a random seed in [SeedMin, SeedMax]. Uses the pool, refilling
// from random.org when empty. Falls back to crypto/rand on API failure.
func (c *Client) Seed() int64 {
	if !c.Enabled() {
		return CryptoSeed()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) == 0 {
		if err := c.refill(); err != nil {
			slog.Debug("random.org refill failed", "error", err)
		}
	}
	if len(c.pool) == 0 {
		return CryptoSeed()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

func (c *Client) refill() error {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      10,
			"min":    SeedMin,
			"max":    SeedMax,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("api error: %s", result.Error.Message)
	}

	for _, v := range result.Result.Random.Data {
		if v >= SeedMin && v <= SeedMax {
			c.pool = append(c.pool, v)
		}
	}
	slog.Debug("random.org pool refilled", "count", len(c.pool))
	return nil
}

// CryptoSeed returns a seed in [SeedMin, SeedMax] from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return SeedMin
	}
	n := binary.LittleEndian.Uint64(buf[:])
	return SeedMin + int64(n%uint64(SeedMax-SeedMin+1))
}

var (
	sessionOnce sync.Once
	sessionSeed int64
)

// SessionSeed picks a random seed the first time it is called and returns
// the same value for the rest of the process. c may be nil.
func SessionSeed(c *Client) int64 {
	sessionOnce.Do(func() {
		sessionSeed = c.Seed()
		slog.Info("session seed chosen", "seed", sessionSeed, "source", source(c))
	})
	return sessionSeed
}

func source(c *Client) string {
	if c.Enabled() {
		return "random.org"
	}
	return "crypto"
}
