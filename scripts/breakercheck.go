// Breakercheck is a small operator tool that inspects and optionally resets
// the circuit breakers of a running instance through the admin API.
//
// Usage:
//
//	go run breakercheck.go -addr http://localhost:8080
//	go run breakercheck.go -addr http://localhost:8080 -reset tool_execution -key all
//	go run breakercheck.go -addr http://localhost:8080 -reset token_exchange -user ops@example.com
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	var (
		addr      = flag.String("addr", "http://localhost:8080", "Base URL of the admin service")
		resetType = flag.String("reset", "", "Reset circuit type: token_exchange or tool_execution (empty = just list)")
		key       = flag.String("key", "", "Source key for tool_execution resets, or 'all'")
		user      = flag.String("user", "", "Acting identity sent as X-Admin-User")
	)
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	if *resetType != "" {
		if err := reset(client, *addr, *resetType, *key, *user); err != nil {
			fmt.Fprintln(os.Stderr, "reset failed:", err)
			os.Exit(1)
		}
	}

	if err := list(client, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "listing failed:", err)
		os.Exit(1)
	}
}

func list(client *http.Client, addr string) error {
	resp, err := client.Get(addr + "/api/admin/circuit-breakers")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return err
	}

	fmt.Println(pretty.String())
	return nil
}

func reset(client *http.Client, addr, resetType, key, user string) error {
	payload, err := json.Marshal(map[string]string{"type": resetType, "key": key})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, addr+"/api/admin/circuit-breakers/reset", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Admin-User", user)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, bytes.TrimSpace(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
