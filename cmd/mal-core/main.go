package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rphilander/mal/config"
	mal "github.com/rphilander/mal/core"
	"github.com/rphilander/mal/journal"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	opts := mal.SessionOptions{
		MaxDepth:  cfg.MaxDepth,
		MaxTraces: cfg.MaxTraces,
		Out:       os.Stdout,
	}
	var store *journal.Store
	if cfg.Journal != "" {
		store, err = journal.Open(cfg.Journal)
		if err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("opened journal: %s", store.Path())
		opts.Journal = store
	}

	session, err := mal.NewSession(opts)
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	core, err := mal.NewCore(session, cfg.Socket)
	if err != nil {
		log.Fatalf("failed to start core: %v", err)
	}

	// Handle shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		core.Shutdown()
		if store != nil {
			store.Close()
		}
		os.Remove(cfg.Socket)
		os.Exit(0)
	}()

	log.Printf("mal core listening on %s (journal: %q)", cfg.Socket, cfg.Journal)
	core.Run()
}
