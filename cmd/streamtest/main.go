// streamtest connects to a running relay, subscribes to symbols, and prints
// price updates to the console.
// Usage: go run ./cmd/streamtest --addr ws://localhost:8000/ws BTCUSDT ETHUSDT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8000/ws", "relay WebSocket endpoint")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	symbols := flag.Args()
	if len(symbols) == 0 {
		symbols = []string{"BTCUSDT"}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, *addr, nil)
	if err != nil {
		logger.Error("failed to connect", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "addr", *addr, "symbols", symbols)

	sub := map[string]any{"type": "subscribe", "symbols": symbols}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("read error", "error", err)
			os.Exit(1)
		}

		if *verbose {
			fmt.Println(string(data))
			continue
		}

		var msg struct {
			Type string `json:"type"`
			Data struct {
				Symbol        string  `json:"symbol"`
				Price         float64 `json:"price"`
				ChangePercent string  `json:"change_percent"`
			} `json:"data"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("unparseable message", "raw", string(data))
			continue
		}

		switch msg.Type {
		case "price_update":
			fmt.Printf("%-10s %14.4f  %s\n", msg.Data.Symbol, msg.Data.Price, msg.Data.ChangePercent)
		case "error":
			logger.Warn("server error", "message", msg.Message)
		default:
			fmt.Println(string(data))
		}
	}
}
