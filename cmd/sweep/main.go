package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ParikTV/balanza-server/internal/config"
	"github.com/ParikTV/balanza-server/internal/model"
)

// Removes finished sessions older than the cutoff, along with their
// players and reserved join codes. Meant to run from cron.
func main() {
	olderThan := flag.Duration("older-than", 24*time.Hour, "remove finished sessions ended before now minus this duration")
	dryRun := flag.Bool("dry-run", false, "report what would be removed without removing it")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	db := client.Database(cfg.MongoDB)
	sessions := db.Collection("sessions")
	players := db.Collection("players")

	cutoff := time.Now().Add(-*olderThan)
	filter := bson.M{
		"status":  bson.M{"$in": []model.SessionStatus{model.SessionFinishedSuccess, model.SessionFinishedFailure}},
		"endedAt": bson.M{"$lt": cutoff},
	}

	cursor, err := sessions.Find(ctx, filter)
	if err != nil {
		log.Fatalf("failed to list finished sessions: %v", err)
	}

	var stale []model.Session
	if err := cursor.All(ctx, &stale); err != nil {
		log.Fatalf("failed to decode sessions: %v", err)
	}

	if len(stale) == 0 {
		log.Println("nothing to sweep")
		return
	}

	for _, s := range stale {
		if *dryRun {
			log.Printf("would remove session %s (code %s, ended %s)", s.ID, s.Code, s.EndedAt.Format(time.RFC3339))
			continue
		}

		if _, err := players.DeleteMany(ctx, bson.M{"sessionId": s.ID}); err != nil {
			log.Printf("failed to remove players of %s: %v", s.ID, err)
			continue
		}
		if _, err := sessions.DeleteOne(ctx, bson.M{"_id": s.ID}); err != nil {
			log.Printf("failed to remove session %s: %v", s.ID, err)
			continue
		}
		if err := rdb.Del(ctx, fmt.Sprintf("session:%s", s.Code)).Err(); err != nil {
			log.Printf("failed to release code %s: %v", s.Code, err)
		}

		log.Printf("removed session %s (code %s)", s.ID, s.Code)
	}

	log.Printf("swept %d sessions", len(stale))
}
