package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"bulk-webhook/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collections holding append-only history, keyed to their timestamp field
var retained = map[string]string{
	"webhook_request_logs": "created_at",
	"error_logs":           "created_at",
	"system_logs":          "created_on_utc",
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	days := 30
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("Invalid RETENTION_DAYS %q", v)
		}
		days = n
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.DBName)

	fmt.Printf("Removing history older than %s (%d days)\n", cutoff.Format(time.RFC3339), days)
	for name, field := range retained {
		res, err := db.Collection(name).DeleteMany(ctx, bson.M{field: bson.M{"$lt": cutoff}})
		if err != nil {
			log.Printf("Failed to clean %s: %v\n", name, err)
			continue
		}
		fmt.Printf("%s: removed %d documents\n", name, res.DeletedCount)
	}

	fmt.Println("Cleanup complete.")
}
