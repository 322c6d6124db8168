package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"survive/internal/config"
	"survive/internal/model"
	"survive/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seed writes a finished demo match into the archive so the history
// endpoints have something to show on a fresh database.
func main() {
	configPath := flag.String("config", "", "path to config file")
	roomID := flag.String("room", "DEMO42", "room code to file the match under")
	flag.Parse()

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	matches := repository.NewMatchRepo(client.Database(cfg.Mongo.Database))

	record := demoMatch(*roomID, cfg.Game, time.Now().UTC())
	if err := matches.Create(ctx, record); err != nil {
		log.Fatalf("Failed to insert match: %v", err)
	}

	fmt.Printf("Seeded match %s for room %s\n", record.ID, record.RoomID)
	for _, s := range record.Standings {
		fmt.Printf("  #%d %-10s %d\n", s.Rank, s.Name, s.Points)
	}
}

// demoMatch builds a five-player match that ran its full timer
func demoMatch(roomID string, rules config.GameConfig, endedAt time.Time) *model.MatchRecord {
	timer := rules.DefaultTimerSeconds
	started := endedAt.Add(-time.Duration(timer) * time.Second)

	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin"}
	standings := make([]model.Standing, len(names))
	for i, name := range names {
		animal := rules.CreatorAnimal
		if i > 0 && i-1 < len(rules.Animals) {
			animal = rules.Animals[i-1]
		}
		standings[i] = model.Standing{
			Rank:   i + 1,
			Name:   name,
			Animal: animal,
			Points: rules.InitialPoints + rules.SwapCost*(len(names)-2*i),
		}
	}

	return &model.MatchRecord{
		RoomID:       roomID,
		Reason:       "timer",
		TimerSeconds: timer,
		Rounds:       37,
		Standings:    standings,
		CreatedAt:    started.Add(-2 * time.Minute),
		StartedAt:    &started,
		EndedAt:      endedAt,
	}
}
