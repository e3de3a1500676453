package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type semanticFrame struct {
	Type    string `json:"type"`
	Payload struct {
		SessionID string  `json:"session_id"`
		Text      string  `json:"text"`
		Sentiment string  `json:"sentiment"`
		Polarity  float64 `json:"polarity"`
		Priority  int     `json:"priority"`
		CaptureTs float64 `json:"capture_ts"`
	} `json:"payload"`
}

// Manual test client: registers as a receiver and prints every semantic frame
// the relay broadcasts.
func main() {
	addr := flag.String("addr", "localhost:8765", "relay server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	register, _ := json.Marshal(map[string]string{
		"type": "register",
		"role": "receiver",
	})
	if err := c.WriteMessage(websocket.TextMessage, register); err != nil {
		log.Fatal("register:", err)
	}
	log.Println("registered as receiver, waiting for semantic frames")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}

			var frame semanticFrame
			if err := json.Unmarshal(message, &frame); err != nil {
				log.Printf("unparseable frame: %s", string(message))
				continue
			}
			if frame.Type != "semantic" {
				log.Printf("unexpected frame type %q", frame.Type)
				continue
			}

			p := frame.Payload
			latency := float64(time.Now().UnixNano())/1e9 - p.CaptureTs
			log.Printf("[%s] p%d %s (%.2f) %.1fs: %q",
				p.SessionID, p.Priority, p.Sentiment, p.Polarity, latency, p.Text)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupt")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
