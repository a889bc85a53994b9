package main

import (
	"flag"
	"log"
	"os"

	"github.com/peterh/liner"

	"github.com/rphilander/mal/config"
	mal "github.com/rphilander/mal/core"
	"github.com/rphilander/mal/journal"
	"github.com/rphilander/mal/repl"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides MAL_CONFIG)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("MAL_CONFIG", *configPath)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	opts := mal.SessionOptions{
		Out:       os.Stdout,
		MaxDepth:  cfg.MaxDepth,
		MaxTraces: cfg.MaxTraces,
	}
	if cfg.Journal != "" {
		store, err := journal.Open(cfg.Journal)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer store.Close()
		log.Printf("opened journal: %s", store.Path())
		opts.Journal = store
	}

	session, err := mal.NewSession(opts)
	if err != nil {
		log.Fatalf("start session: %v", err)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetWordCompleter(repl.Completer(session))

	if cfg.History != "" {
		if f, err := os.Open(cfg.History); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(cfg.History)
			if err != nil {
				log.Printf("write history: %v", err)
				return
			}
			defer f.Close()
			if _, err := line.WriteHistory(f); err != nil {
				log.Printf("write history: %v", err)
			}
		}()
	}

	if err := repl.Run(line, os.Stdout, session, cfg.Prompt); err != nil {
		log.Printf("repl: %v", err)
	}
}
