package main

import (
	"flag"
	"log"

	"csv-stock-merge/internal/api"
	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	runs, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer runs.Close()

	r := api.NewRouter(runs)
	r.Start(cfg.Store.APIAddr)
}
