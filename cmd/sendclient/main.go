package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

// Manual test client: registers as a sender, slices a WAV file into segments
// and sends each one as a header frame followed by the raw audio bytes.
func main() {
	addr := flag.String("addr", "localhost:8765", "relay server address")
	audioPath := flag.String("audio", "sample_audio.wav", "WAV file to stream")
	sessionID := flag.String("session", fmt.Sprintf("session_%d", time.Now().Unix()), "session identifier")
	segmentSize := flag.Int("segment-bytes", 32000, "bytes of audio per segment")
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

	register := map[string]interface{}{
		"type":       "register",
		"role":       "sender",
		"session_id": *sessionID,
	}
	if err := sendJSON(c, register); err != nil {
		log.Fatal("register:", err)
	}
	log.Printf("registered as sender for session %s", *sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				log.Println("read:", err)
				return
			}
		}
	}()

	audio, err := os.ReadFile(*audioPath)
	if err != nil {
		log.Fatal("read audio:", err)
	}
	log.Printf("read %s (%d bytes)", *audioPath, len(audio))

	totalSegments := (len(audio) + *segmentSize - 1) / *segmentSize
	for i := 0; i < totalSegments; i++ {
		start := i * *segmentSize
		end := start + *segmentSize
		if end > len(audio) {
			end = len(audio)
		}
		segment := audio[start:end]

		header := map[string]interface{}{
			"type":       "audio_chunk",
			"session_id": *sessionID,
			"capture_ts": float64(time.Now().UnixNano()) / 1e9,
			"audio_size": len(segment),
		}
		if err := sendJSON(c, header); err != nil {
			log.Fatal("send header:", err)
		}
		if err := c.WriteMessage(websocket.BinaryMessage, segment); err != nil {
			log.Fatal("send audio:", err)
		}
		log.Printf("sent segment %d/%d (%d bytes)", i+1, totalSegments, len(segment))

		select {
		case <-interrupt:
			log.Println("interrupt")
			closeConn(c, done)
			return
		case <-time.After(200 * time.Millisecond):
		}
	}

	log.Printf("all segments sent for session %s", *sessionID)
	closeConn(c, done)
}

func sendJSON(c *websocket.Conn, message map[string]interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func closeConn(c *websocket.Conn, done chan struct{}) {
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
