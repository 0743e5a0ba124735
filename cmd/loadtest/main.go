package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	wsURL     = flag.String("url", "ws://localhost:8080/ws", "chat websocket endpoint")
	pairCount = flag.Int("pairs", 50, "number of user pairs")
	msgCount  = flag.Int("messages", 20, "private messages sent by each user")
	pause     = flag.Duration("pause", 10*time.Millisecond, "delay between messages")
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var received atomic.Int64

func main() {
	flag.Parse()
	log.Printf("starting load test: %d users, %d messages each", *pairCount*2, *msgCount)
	start := time.Now()

	var wg sync.WaitGroup
	// Pairs: u_0_a talks to u_0_b, u_1_a to u_1_b...
	for i := 0; i < *pairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}
	wg.Wait()

	log.Printf("load test complete in %s, %d private messages received", time.Since(start), received.Load())
}

func runPair(pairID int) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)

	connA, err := join(userA)
	if err != nil {
		log.Printf("join failed [%s]: %v", userA, err)
		return
	}
	defer connA.Close()
	connB, err := join(userB)
	if err != nil {
		log.Printf("join failed [%s]: %v", userB, err)
		return
	}
	defer connB.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go chat(&wg, connA, userA, userB)
	go chat(&wg, connB, userB, userA)
	wg.Wait()
}

func join(username string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
	if err != nil {
		return nil, err
	}
	err = emit(conn, "user_join", map[string]string{"username": username, "avatar": ""})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func chat(wg *sync.WaitGroup, conn *websocket.Conn, self, peer string) {
	defer wg.Done()

	done := make(chan struct{})
	go drain(conn, done)

	if err := emit(conn, "start_private_chat", peer); err != nil {
		log.Printf("start chat failed [%s]: %v", self, err)
		return
	}
	for i := 0; i < *msgCount; i++ {
		msg := map[string]string{
			"message": fmt.Sprintf("load test msg %d from %s", i, self),
			"to":      peer,
		}
		if err := emit(conn, "send_message", msg); err != nil {
			log.Printf("send failed [%s]: %v", self, err)
			break
		}
		time.Sleep(*pause)
	}

	// Give the last echoes a moment before hanging up.
	time.Sleep(500 * time.Millisecond)
	conn.Close()
	<-done
	log.Printf("%s finished sending %d msgs", self, *msgCount)
}

func drain(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Event == "private_message" {
			received.Add(1)
		}
	}
}

func emit(conn *websocket.Conn, event string, data any) error {
	return conn.WriteJSON(map[string]any{"event": event, "data": data})
}
