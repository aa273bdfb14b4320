// Command reconcile_registrations brings registration records in line with the
// registrant lists stored on events. Registrants without an active record get one,
// and active records whose user is no longer a registrant are cancelled.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joeyave/club-events/configs"
	"github.com/joeyave/club-events/entity"
	"github.com/joeyave/club-events/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report mismatches without writing")
	flag.Parse()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		panic(fmt.Sprintf("failed to connect mongo: %v", err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		panic(fmt.Sprintf("failed to ping mongo: %v", err))
	}

	db := mongoClient.Database(cfg.Mongo.Name)
	eventRepository := repository.NewEventRepository(db)
	registrationRepository := repository.NewRegistrationRepository(db)

	processed := 0
	succeeded := 0
	failed := 0

	err = eventRepository.ForEach(context.Background(), func(event *entity.Event) error {
		processed++

		fixes, err := reconcile(context.Background(), registrationRepository, event, *dryRun)
		if err != nil {
			failed++
			fmt.Printf("[FAIL] %s %q: %v\n", event.ID.Hex(), event.Title, err)
			return nil
		}
		succeeded++
		if fixes > 0 {
			fmt.Printf("[OK] %s %q: %d fixed\n", event.ID.Hex(), event.Title, fixes)
		}
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("failed to iterate events: %v", err))
	}

	fmt.Printf("Reconciliation finished. processed=%d succeeded=%d failed=%d dry-run=%t\n", processed, succeeded, failed, *dryRun)
}

func reconcile(ctx context.Context, registrationRepository *repository.RegistrationRepository, event *entity.Event, dryRun bool) (int, error) {
	records, err := registrationRepository.FindManyByEventID(ctx, event.ID)
	if err != nil {
		return 0, err
	}

	statuses := make(map[primitive.ObjectID]entity.RegistrationStatus, len(records))
	for _, record := range records {
		statuses[record.UserID] = record.Status
	}

	fixes := 0

	for _, userID := range event.RegistrationIDs {
		status, ok := statuses[userID]
		if ok && status != entity.RegistrationCancelled {
			continue
		}
		fixes++
		if dryRun {
			continue
		}
		if _, err := registrationRepository.Upsert(ctx, event.ID, userID, entity.RegistrationRegistered); err != nil {
			return fixes, fmt.Errorf("upsert %s: %w", userID.Hex(), err)
		}
	}

	for userID, status := range statuses {
		if status != entity.RegistrationRegistered || event.HasRegistrant(userID) {
			continue
		}
		fixes++
		if dryRun {
			continue
		}
		if _, err := registrationRepository.UpdateStatus(ctx, event.ID, userID, entity.RegistrationCancelled); err != nil {
			return fixes, fmt.Errorf("cancel %s: %w", userID.Hex(), err)
		}
	}

	return fixes, nil
}
