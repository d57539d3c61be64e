package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repowiki/internal/artifact"
	"repowiki/internal/classify"
	"repowiki/internal/config"
	"repowiki/internal/events"
	"repowiki/internal/llm"
	"repowiki/internal/pipeline"
	"repowiki/internal/repo"
	"repowiki/internal/server"
	"repowiki/internal/store"
	"repowiki/internal/worker"
)

func main() {
	port := flag.String("port", "", "server port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}

	st, err := store.Open(store.Options{
		PostgresDSN: cfg.DatabaseDSN,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	markers := loadMarkers(cfg.MarkersPath)
	client := buildClient(cfg)
	defer client.Close()

	var sink pipeline.ArtifactSink
	if cfg.Artifact.Enabled {
		s3, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Fatalf("artifact store: %v", err)
		}
		sink = s3
	}

	hub := events.NewHub()
	orch := pipeline.New(pipeline.Deps{
		Store: st,
		Open: func(w *store.Warehouse) (repo.Source, error) {
			return repo.NewLocal(w.RepoPath)
		},
		Client:    client,
		Markers:   markers,
		Emitter:   hub,
		Artifacts: sink,
	}, pipeline.Config{
		RetryMax:     cfg.Pipeline.RetryMax,
		RetryBase:    cfg.Pipeline.RetryBase,
		Language:     cfg.Pipeline.Language,
		PreviewLimit: cfg.Pipeline.PreviewLimit,
	})

	queue := worker.NewQueue(orch, 64)
	queue.Start(cfg.Workers)
	defer queue.Stop()

	svc := server.NewService(st, orch, queue, hub)
	srv := server.New(cfg.Port, server.CORS(server.BuildMux(svc)))

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func loadMarkers(path string) classify.MarkerSet {
	if path == "" {
		return classify.DefaultMarkers()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read markers %s: %v", path, err)
	}
	m, err := classify.LoadMarkers(data)
	if err != nil {
		log.Fatalf("parse markers %s: %v", path, err)
	}
	return m
}

func buildClient(cfg *config.Config) llm.Client {
	switch cfg.LLM.Provider {
	case "fake":
		log.Println("using fake completion client")
		return &llm.FakeClient{}
	default:
		if cfg.LLM.APIKey == "" {
			log.Println("GEMINI_API_KEY not set, falling back to fake completion client")
			return &llm.FakeClient{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cli, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
			RPS:    cfg.LLM.RPS,
			Burst:  cfg.LLM.Burst,
		})
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
		return cli
	}
}
