package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdp/qrterminal/v3"

	"github.com/scanrally/backend/internal/config"
	"github.com/scanrally/backend/internal/demo"
	"github.com/scanrally/backend/internal/engine"
	"github.com/scanrally/backend/internal/frontend"
	"github.com/scanrally/backend/internal/scoring"
	"github.com/scanrally/backend/internal/session"
	"github.com/scanrally/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	demoMode := flag.Bool("demo", false, "Generate demo scanner traffic")
	printQR := flag.Bool("qr", false, "Print the websocket URL as a QR code for scanner pairing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	table := scoring.NewTable(cfg.Scoring.Items, cfg.Scoring.DefaultPoints)
	store := session.NewStore()
	hub := ws.NewHub(ws.Scope(cfg.Server.BroadcastScope), cfg.Server.MaxConnections)
	eng := engine.New(store, table, hub, cfg.Session.GracePeriod)
	server := ws.NewServer(eng, store, hub, cfg.Server.AllowedOrigins, frontend.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *demoMode {
		log.Println("Starting in demo mode")
		gen := demo.NewGenerator(eng)
		gen.Start(ctx)
	}

	if *printQR {
		host := cfg.Server.Host
		if host == "0.0.0.0" || host == "" {
			if h, err := os.Hostname(); err == nil {
				host = h
			}
		}
		wsURL := fmt.Sprintf("ws://%s:%d/ws", host, cfg.Server.Port)
		fmt.Printf("Scan to pair a device with %s:\n", wsURL)
		qrterminal.GenerateHalfBlock(wsURL, qrterminal.L, os.Stdout)
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
