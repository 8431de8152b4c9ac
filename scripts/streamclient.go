// Package main runs a demo WebSocket client against /v1/solve/stream.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve/stream"}
	hdr := http.Header{}
	if key := os.Getenv("API_KEY"); key != "" {
		hdr.Set("X-API-Key", key)
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	// A tiny two-stop instance with an inline matrix so no provider is hit.
	payload := []byte(`{
		"name": "demo",
		"depot": {
			"location": {"lat": 53.0542, "lng": 9.0316},
			"windows": [{"start": "08:00", "end": "18:00"}]
		},
		"stops": [
			{"id": "a", "location": {"lat": 53.10, "lng": 9.10}, "windows": [{"start": "09:00", "end": "12:00"}]},
			{"id": "b", "location": {"lat": 53.20, "lng": 9.05}, "windows": [{"start": "10:00", "end": "16:00"}]}
		],
		"matrix": {
			"travelSec": [[0, 600, 900], [600, 0, 700], [900, 700, 0]],
			"distanceM": [[0, 6000, 9000], [6000, 0, 7000], [9000, 7000, 0]]
		},
		"budgetSec": 2
	}`)
	if err := c.WriteJSON(wsMessage{Type: "solve", Payload: payload}); err != nil {
		log.Fatal(err)
	}

	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		if m.Type == "result" || m.Type == "error" {
			return
		}
	}
}
