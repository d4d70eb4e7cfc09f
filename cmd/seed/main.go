// Command seed loads demo helpers and posts into the remote document store so
// a fresh environment has something to browse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sahayakapp/sahayak-core/internal/domain"
	"github.com/sahayakapp/sahayak-core/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		remoteURL string
		apiKey    string
	)
	flag.StringVar(&remoteURL, "remote", envOrDefault("SAHAYAK_REMOTE_URL", ""), "remote document store base URL")
	flag.StringVar(&apiKey, "api-key", envOrDefault("SAHAYAK_REMOTE_API_KEY", ""), "remote store API key")
	flag.Parse()

	if remoteURL == "" || apiKey == "" {
		return fmt.Errorf("--remote and --api-key are required (or set SAHAYAK_REMOTE_URL and SAHAYAK_REMOTE_API_KEY)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := remote.NewClient(remoteURL, apiKey, logger)
	ctx := context.Background()

	now := time.Now().UTC()
	helpers := []domain.Entity{
		{
			Kind:        domain.KindHelper,
			Name:        "Raj Electrician",
			Description: "House wiring, fans, inverter installs",
			Coordinate:  &domain.Coordinate{Lat: 12.9716, Lon: 77.5946},
			Tags:        []string{"electrical", "verified"},
			Price:       "₹500/visit",
			Rating:      4.6,
		},
		{
			Kind:        domain.KindHelper,
			Name:        "Sam Mechanic",
			Description: "Two-wheeler and car engine repair",
			Coordinate:  &domain.Coordinate{Lat: 12.9352, Lon: 77.6245},
			Tags:        []string{"garage"},
			Price:       "₹200",
			Rating:      4.2,
		},
		{
			Kind:        domain.KindHelper,
			Name:        "Anu Plumbing Works",
			Description: "Pipe fitting and leak repair",
			Coordinate:  &domain.Coordinate{Lat: 12.9850, Lon: 77.6100},
			Price:       "Contact for price",
			Rating:      4.0,
		},
	}

	posts := []domain.Entity{
		{
			Kind:        domain.KindJob,
			Name:        "Need ceiling fan installed",
			Description: "Two fans, wiring already in place",
			Coordinate:  &domain.Coordinate{Lat: 12.9616, Lon: 77.5846},
			Price:       "₹800",
		},
		{
			Kind:        domain.KindPart,
			Name:        "Used car battery for sale",
			Description: "Exide 35Ah, one year old",
			Price:       "₹1500",
		},
	}

	for _, h := range helpers {
		h.ID = uuid.NewString()
		h.CreatedAt = now
		if err := client.CreateEntity(ctx, "helpers", h); err != nil {
			return fmt.Errorf("seed helper %q: %w", h.Name, err)
		}
		fmt.Printf("Seeded helper %s\n", h.Name)
	}

	for _, p := range posts {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		if err := client.CreateEntity(ctx, "posts", p); err != nil {
			return fmt.Errorf("seed post %q: %w", p.Name, err)
		}
		fmt.Printf("Seeded post %s\n", p.Name)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
