// Package app wires configuration into the running gateway: model
// client, keyword service, spec store, web research, export store,
// workflow engine, HTTP surface.
package app

import (
	"context"
	"log"

	"github.com/ritik9294/catalog-assistant-v3/internal/export"
	"github.com/ritik9294/catalog-assistant-v3/internal/gateway/config"
	"github.com/ritik9294/catalog-assistant-v3/internal/gateway/handler"
	"github.com/ritik9294/catalog-assistant-v3/internal/gateway/server"
	"github.com/ritik9294/catalog-assistant-v3/internal/keyword"
	"github.com/ritik9294/catalog-assistant-v3/internal/llm"
	"github.com/ritik9294/catalog-assistant-v3/internal/research"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/specstore"
	"github.com/ritik9294/catalog-assistant-v3/internal/workflow"
)

type App struct {
	server *server.Server
	vision llm.VisionClient
	specs  *specstore.Store
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	vision, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:     cfg.Gemini.APIKey,
		TextModel:  cfg.Gemini.TextModel,
		ImageModel: cfg.Gemini.ImageModel,
		RPS:        cfg.Gemini.RPS,
		Burst:      cfg.Gemini.Burst,
	})
	if err != nil {
		return nil, err
	}

	keywords := keyword.NewClient(cfg.Keyword.BaseURL)

	var specs *specstore.Store
	if cfg.SpecDB.DSN != "" {
		specs, err = specstore.NewPostgres(cfg.SpecDB.DSN)
		if err != nil {
			// Template lookups degrade to AI-generated templates.
			log.Printf("app: spec store unavailable, continuing without it: %v", err)
			specs = nil
		}
	} else {
		log.Printf("app: SPEC_DB_DSN not set, spec templates disabled")
	}
	var specLookup workflow.SpecLookup = specstore.Disabled{}
	if specs != nil {
		specLookup = specs
	}

	var searcher research.Searcher = research.NopSearcher{}
	if cfg.Search.APIKey != "" && cfg.Search.CSEID != "" {
		g, err := research.NewGoogleSearcher(ctx, cfg.Search.APIKey, cfg.Search.CSEID)
		if err != nil {
			log.Printf("app: web research unavailable: %v", err)
		} else {
			searcher = g
		}
	} else {
		log.Printf("app: search credentials not set, brand research disabled")
	}

	var exports *export.S3Store
	if cfg.Artifact.Enabled {
		exports, err = export.NewS3Store(export.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Printf("app: export store unavailable: %v", err)
			exports = nil
		}
	}

	engine := workflow.New(vision, keywords, specLookup, searcher)
	sessions := session.NewStore()
	hub := handler.NewHub()
	sessionHandler := handler.NewSessionHandler(sessions, engine, exports, hub)

	mux := server.NewMux(sessionHandler)
	return &App{
		server: server.New(cfg.Port, mux),
		vision: vision,
		specs:  specs,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.specs != nil {
		_ = a.specs.Close()
	}
	if a.vision != nil {
		_ = a.vision.Close()
	}
	return err
}
