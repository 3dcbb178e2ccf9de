package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/aifinder/aifinder-api/config"
	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/internal/domain/repository"
	"github.com/aifinder/aifinder-api/internal/infrastructure/mongodb"
	"github.com/aifinder/aifinder-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn := mongodb.NewConn(logger)
	client, err := conn.Client(ctx, mongodb.ConnConfig{
		URI:         cfg.MongoURITools,
		MaxRetries:  cfg.MongoMaxRetries,
		RetryDelay:  cfg.MongoRetryDelay,
		ConnTimeout: cfg.MongoConnTimeout,
	})
	if err != nil {
		log.Fatalf("failed to connect to tools database: %v", err)
	}
	defer conn.Reset(context.Background())

	tools := mongodb.NewToolRepository(mongodb.NewStore(ctx, client, cfg.MongoToolsDBName, logger))

	samples := []entity.Tool{
		{
			Title:      "PromptPad",
			WebsiteURL: "https://promptpad.example.com",
			Category:   "writing",
			About:      "Drafting assistant that rewrites and expands rough notes.",
			Keywords:   []string{"writing", "drafting", "rewrite", "notes", "assistant"},
			ToolType:   entity.ToolTypeBrowser,
		},
		{
			Title:      "VoiceForge",
			WebsiteURL: "https://voiceforge.example.com",
			Category:   "audio",
			About:      "Text to speech studio with custom voice cloning.",
			Keywords:   []string{"audio", "speech", "voice", "cloning", "studio"},
			ToolType:   entity.ToolTypeDownloadable,
		},
		{
			Title:      "SnapDiagram",
			WebsiteURL: "https://snapdiagram.example.com",
			Category:   "productivity",
			About:      "Turns plain text descriptions into architecture diagrams.",
			Keywords:   []string{"diagrams", "architecture", "productivity", "visualization", "docs"},
			ToolType:   entity.ToolTypeBrowser,
		},
	}

	seeded, skipped := 0, 0
	for i := range samples {
		t := samples[i]
		t.IsActive = true
		if err := tools.Insert(ctx, &t); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				skipped++
				continue
			}
			log.Fatalf("failed to seed tool %q: %v", t.Title, err)
		}
		seeded++
	}
	fmt.Printf("seeded %d tools, skipped %d already present\n", seeded, skipped)
}
