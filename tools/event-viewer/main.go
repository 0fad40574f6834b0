// Event Viewer follows interview sessions live. It consumes the turn and
// lifecycle topics and relays every event to connected browsers.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

//go:embed static/*
var staticFiles embed.FS

// Event is the union of turn and lifecycle payloads as shown in the browser.
type Event struct {
	Topic        string   `json:"topic"`
	EventType    string   `json:"eventType"`
	SessionID    string   `json:"sessionId"`
	Timestamp    int64    `json:"timestamp"`
	Status       string   `json:"status,omitempty"`
	Role         string   `json:"role,omitempty"`
	Intent       string   `json:"intent,omitempty"`
	TurnCount    int      `json:"turnCount,omitempty"`
	OverallScore *float64 `json:"overallScore,omitempty"`
	Turn         int      `json:"turn,omitempty"`
	Question     string   `json:"question,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

// decodeEvent reads a Kafka message. The eventType header wins over the payload field.
func decodeEvent(msg kafka.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return Event{}, err
	}
	ev.Topic = msg.Topic
	for _, h := range msg.Headers {
		if h.Key == "eventType" && len(h.Value) > 0 {
			ev.EventType = string(h.Value)
		}
	}
	if ev.SessionID == "" {
		ev.SessionID = string(msg.Key)
	}
	return ev, nil
}

// Hub fans events out to WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("Client connected. Total: %d", n)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("Client disconnected. Total: %d", n)
}

// Broadcast writes ev to every client, dropping the ones that fail.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("Write error: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		hub.add(conn)

		// the browser never sends, reading only detects the disconnect
		go func() {
			defer hub.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// readerConfigs returns a single group reader when group is set, otherwise
// one reader per partition so sessions hashed to any partition are seen.
func readerConfigs(brokers []string, topic, group string, partitions []kafka.Partition) []kafka.ReaderConfig {
	base := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	if group != "" {
		base.GroupID = group
		return []kafka.ReaderConfig{base}
	}

	var out []kafka.ReaderConfig
	for _, p := range partitions {
		if p.Topic != topic {
			continue
		}
		cfg := base
		cfg.Partition = p.ID
		out = append(out, cfg)
	}
	if len(out) == 0 {
		out = append(out, base)
	}
	return out
}

func lookupPartitions(ctx context.Context, brokers []string, topic string) ([]kafka.Partition, error) {
	var lastErr error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		partitions, err := conn.ReadPartitions(topic)
		conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return partitions, nil
	}
	return nil, lastErr
}

func consume(ctx context.Context, hub *Hub, brokers []string, topic, group string) {
	var partitions []kafka.Partition
	if group == "" {
		var err error
		if partitions, err = lookupPartitions(ctx, brokers, topic); err != nil {
			log.Printf("Could not list partitions of %s, reading partition 0: %v", topic, err)
		}
	}

	var wg sync.WaitGroup
	for _, cfg := range readerConfigs(brokers, topic, group, partitions) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			read(ctx, hub, cfg)
		}()
	}
	wg.Wait()
}

func read(ctx context.Context, hub *Hub, cfg kafka.ReaderConfig) {
	reader := kafka.NewReader(cfg)
	defer reader.Close()

	if cfg.GroupID == "" {
		// replay the last hour so a fresh page shows sessions in progress
		if err := reader.SetOffsetAt(ctx, time.Now().Add(-time.Hour)); err != nil {
			log.Printf("Could not seek %s/%d: %v", cfg.Topic, cfg.Partition, err)
		}
	}
	log.Printf("Consuming %s partition %d", cfg.Topic, cfg.Partition)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", cfg.Topic, err)
			time.Sleep(time.Second)
			continue
		}

		ev, err := decodeEvent(msg)
		if err != nil {
			log.Printf("Skipping malformed event on %s: %v", cfg.Topic, err)
			continue
		}
		log.Printf("Received %s for session %s", ev.EventType, ev.SessionID)
		hub.Broadcast(ev)
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicTurns := flag.String("topic-turns", "interview.transcript.turn", "Turn events topic")
	topicLifecycle := flag.String("topic-lifecycle", "interview.session.lifecycle", "Lifecycle events topic")
	group := flag.String("group", "", "Consumer group (empty reads every partition directly)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := newHub()
	brokerList := strings.Split(*brokers, ",")
	go consume(ctx, hub, brokerList, *topicTurns, *group)
	go consume(ctx, hub, brokerList, *topicLifecycle, *group)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Static files: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))

	srv := &http.Server{Addr: ":" + *port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Event Viewer on http://localhost:%s (topics %s, %s)", *port, *topicTurns, *topicLifecycle)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
