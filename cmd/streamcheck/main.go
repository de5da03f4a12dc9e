// streamcheck verifies the market-data websocket feed end to end:
// connect, authenticate, subscribe, then log whatever arrives for a
// fixed window. It is a diagnostic, not part of the benchmark harness.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"strategy-bench/internal/stream"
)

const logPreview = 200

func main() {
	endpoint := flag.String("url", "wss://stream.data.alpaca.markets/v1beta3/crypto/us", "Feed websocket endpoint")
	symbolsFlag := flag.String("symbols", "BTC/USD,ETH/USD", "Comma-separated symbols to subscribe")
	window := flag.Duration("window", 30*time.Second, "How long to listen")
	flag.Parse()

	logger := log.New(os.Stderr, "[streamcheck] ", log.LstdFlags)

	// Credentials from .env or the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("load .env: %v", err)
	}
	apiKey := os.Getenv("ALPACA_API_KEY")
	apiSecret := os.Getenv("ALPACA_SECRET_KEY")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal("ALPACA_API_KEY and ALPACA_SECRET_KEY are required")
	}

	var symbols []string
	for _, s := range strings.Split(*symbolsFlag, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	if len(symbols) == 0 {
		logger.Fatal("-symbols must name at least one symbol")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, closing...", sig)
		cancel()
	}()

	logger.Printf("Connecting to %s...", *endpoint)
	client, welcome, err := stream.Dial(ctx, *endpoint, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer client.Close()
	logger.Printf("Connected. Welcome: %s", preview(welcome))

	authResp, err := client.Authenticate(apiKey, apiSecret)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}
	logger.Printf("Auth response: %s", preview(authResp))

	if err := client.Subscribe(symbols, symbols); err != nil {
		logger.Fatalf("subscribe: %v", err)
	}
	logger.Printf("Subscribed to trades and quotes for %s", strings.Join(symbols, ", "))

	logger.Printf("Listening for %v...", *window)
	count, err := client.Listen(ctx, *window,
		func(msg []byte) { logger.Printf("recv: %s", preview(msg)) },
		func() { logger.Print("no data in the last interval") },
	)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}

	logger.Printf("Done: %d frames received", count)
}

func preview(msg []byte) string {
	if len(msg) > logPreview {
		return string(msg[:logPreview]) + "..."
	}
	return string(msg)
}
