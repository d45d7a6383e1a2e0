// ABOUTME: Entry point for the Soundlink dispatch engine
// ABOUTME: Parses CLI flags, loads config, discovers the capture server, runs the app
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Soundlink-Project/soundlink-go/internal/app"
	"github.com/Soundlink-Project/soundlink-go/internal/config"
	"github.com/Soundlink-Project/soundlink-go/internal/discovery"
	"github.com/Soundlink-Project/soundlink-go/internal/version"
)

var (
	configPath = flag.String("config", "soundlink.yaml", "Config file path")
	serverAddr = flag.String("server", "", "Capture server address (overrides config)")
	stateAddr  = flag.String("state-addr", "127.0.0.1:8930", "Listen address for the GUI state websocket (empty to disable)")
	logFile    = flag.String("log-file", "", "Log file path (default: stdout only)")
	discover   = flag.Bool("discover", false, "Find a capture server via mDNS when no address is set")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	if *serverAddr != "" {
		cfg.ServerAddress = *serverAddr
	}

	// Manual address always wins; mDNS only fills a blank
	if cfg.ServerAddress == "" && *discover {
		log.Printf("No server address configured, browsing for capture servers...")
		disc := discovery.NewManager()
		disc.Browse()

		select {
		case server := <-disc.Servers():
			cfg.ServerAddress = fmt.Sprintf("%s:%d", server.Host, server.Port)
			log.Printf("Using discovered server at %s", cfg.ServerAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No capture server found after 10 seconds")
		}
		disc.Stop()
	}

	if cfg.ServerAddress == "" {
		log.Fatalf("No capture server address; set server_address in %s or pass -server", *configPath)
	}

	application, err := app.New(cfg, app.Options{
		ConfigPath: *configPath,
		StateAddr:  *stateAddr,
	})
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		cancel()
	}()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	log.Printf("Stopped")
}
