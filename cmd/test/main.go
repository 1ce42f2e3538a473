package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type smokeClient struct {
	baseURL string
	keyword string
	count   int
	http    *http.Client
}

type check struct {
	name string
	run  func() error
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the service")
	only := flag.String("test", "all", "Check to run: all, health, agent-card, profile, a2a")
	keyword := flag.String("keyword", "coffee", "Keyword sent to the generation endpoints")
	count := flag.Int("count", 3, "Number of suggestions to request (3-100)")
	flag.Parse()

	// Each suggestion costs one image call, so generation is slow.
	sc := newSmokeClient(*baseURL, *keyword, *count, 5*time.Minute)

	fmt.Printf("%sprofilegen smoke checks against %s%s\n", colorCyan, sc.baseURL, colorReset)

	failed := 0
	ran := 0
	for _, c := range sc.checks() {
		if *only != "all" && *only != c.name {
			continue
		}
		ran++

		start := time.Now()
		err := c.run()
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			failed++
			fmt.Printf("%s✗ %-10s %s (%s)%s\n", colorRed, c.name, err, elapsed, colorReset)
			continue
		}
		fmt.Printf("%s✓ %-10s ok (%s)%s\n", colorGreen, c.name, elapsed, colorReset)
	}

	if ran == 0 {
		fmt.Printf("%sunknown check %q%s\n", colorRed, *only, colorReset)
		os.Exit(2)
	}
	fmt.Printf("\n%d passed, %d failed\n", ran-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func newSmokeClient(baseURL, keyword string, count int, timeout time.Duration) *smokeClient {
	return &smokeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyword: keyword,
		count:   count,
		http:    &http.Client{Timeout: timeout},
	}
}

func (sc *smokeClient) checks() []check {
	return []check{
		{"health", sc.checkHealth},
		{"agent-card", sc.checkAgentCard},
		{"profile", sc.checkGenerateProfile},
		{"a2a", sc.checkA2A},
	}
}

// do sends a request and returns the body of a 200 response.
func (sc *smokeClient) do(method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		return nil, fmt.Errorf("%s %s: missing CORS header", method, path)
	}
	return raw, nil
}

func (sc *smokeClient) checkHealth() error {
	body, err := sc.do(http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if string(body) != "OK" {
		return fmt.Errorf("unexpected body %q", body)
	}
	return nil
}

func (sc *smokeClient) checkAgentCard() error {
	body, err := sc.do(http.MethodGet, "/.well-known/agent.json", nil)
	if err != nil {
		return err
	}

	card := gjson.ParseBytes(body)
	if !strings.HasSuffix(card.Get("url").String(), "/a2a/profiler") {
		return fmt.Errorf("card url %q does not point at /a2a/profiler", card.Get("url").String())
	}
	if !card.Get(`skills.#(id=="generate_profiles")`).Exists() {
		return fmt.Errorf("card does not advertise the generate_profiles skill")
	}
	if !card.Get("endpoints.agentCard").Exists() {
		return fmt.Errorf("card has no agentCard endpoint")
	}
	return nil
}

func (sc *smokeClient) checkGenerateProfile() error {
	body, err := sc.do(http.MethodPost, "/generate-profile", map[string]any{
		"keyword": sc.keyword,
		"count":   sc.count,
	})
	if err != nil {
		return err
	}

	suggestions := gjson.GetBytes(body, "suggestions").Array()
	if len(suggestions) == 0 {
		return fmt.Errorf("no suggestions returned")
	}
	for i, s := range suggestions {
		if s.Get("imageUrl").String() == "" {
			return fmt.Errorf("suggestion %d has no imageUrl", i)
		}
		printSuggestion(s)
	}
	return nil
}

func (sc *smokeClient) checkA2A() error {
	body, err := sc.do(http.MethodPost, "/a2a/profiler", map[string]any{
		"jsonrpc": "2.0",
		"id":      time.Now().Unix(),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"kind": "message",
				"role": "user",
				"parts": []map[string]any{
					{"kind": "text", "text": sc.keyword},
					{"kind": "data", "data": map[string]any{"count": sc.count}},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	resp := gjson.ParseBytes(body)
	if rpcErr := resp.Get("error"); rpcErr.Exists() {
		return fmt.Errorf("rpc error %s: %s", rpcErr.Get("code").Raw, rpcErr.Get("message").String())
	}
	if state := resp.Get("result.status.state").String(); state != "completed" {
		return fmt.Errorf("task state %q: %s", state, resp.Get("result.status.message.parts.0.text").String())
	}

	suggestions := resp.Get("result.artifacts.0.parts.#(kind==\"data\").data.suggestions").Array()
	if len(suggestions) == 0 {
		return fmt.Errorf("task artifact holds no suggestions")
	}
	for _, s := range suggestions {
		printSuggestion(s)
	}
	return nil
}

func printSuggestion(s gjson.Result) {
	image := s.Get("imageUrl").String()
	if len(image) > 60 {
		image = image[:60] + "..."
	}
	fmt.Printf("  %s@%s%s %s\n  %s%s%s\n", colorYellow, s.Get("username").String(), colorReset,
		s.Get("bio").String(), colorCyan, image, colorReset)
}
