// Package scheduler periodically sweeps all plants and sends watering
// reminders for the ones that are due.
package scheduler

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/floralog/floralog/engine"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
)

// sweepUserConcurrency bounds how many users a sweep processes at once.
const sweepUserConcurrency = 4

// PlantSource supplies users and plants. Satisfied by *store.Store.
type PlantSource interface {
	ListUsers(ctx context.Context) ([]*store.User, error)
	ListPlants(ctx context.Context, find *store.FindPlant) ([]*store.Plant, error)
	UpdatePlant(ctx context.Context, update *store.UpdatePlant) (*store.Plant, error)
}

// Recommender computes the watering recommendation. Satisfied by
// *engine.Service.
type Recommender interface {
	Recommend(ctx context.Context, plant *store.Plant, user *store.User) (*engine.Recommendation, error)
}

// ReminderSender delivers a reminder. Satisfied by *bot.Bot. A false
// return leaves the plant unmarked so the next sweep retries.
type ReminderSender interface {
	SendWateringReminder(user *store.User, plant *store.Plant, rec *engine.Recommendation) bool
}

// Scheduler runs the periodic due-plant sweep.
type Scheduler struct {
	profile *profile.Profile
	source  PlantSource
	engine  Recommender
	sender  ReminderSender
	now     func() time.Time
}

// New creates a scheduler.
func New(p *profile.Profile, source PlantSource, recommender Recommender, sender ReminderSender) *Scheduler {
	return &Scheduler{
		profile: p,
		source:  source,
		engine:  recommender,
		sender:  sender,
		now:     time.Now,
	}
}

// Start runs sweeps on the configured interval until the context is
// canceled. The first sweep runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.profile.SchedulerIntervalMinutes) * time.Minute
	if interval < time.Minute {
		interval = time.Minute
	}
	slog.Info("reminder scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx); err != nil {
		slog.Error("reminder sweep failed", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				slog.Error("reminder sweep failed", "err", err)
			}
		}
	}
}

// Sweep checks every plant of every user and sends a reminder when the
// plant is due and was not reminded today. Users are processed
// concurrently.
func (s *Scheduler) Sweep(ctx context.Context) error {
	sweepID := uuid.NewString()[:8]
	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepUserConcurrency)
	for _, user := range users {
		g.Go(func() error {
			s.sweepUser(ctx, sweepID, user)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("reminder sweep finished", "sweep", sweepID, "users", len(users))
	return nil
}

func (s *Scheduler) sweepUser(ctx context.Context, sweepID string, user *store.User) {
	plants, err := s.source.ListPlants(ctx, &store.FindPlant{UserID: &user.ID})
	if err != nil {
		slog.Error("failed to list plants", "sweep", sweepID, "user", user.TelegramID, "err", err)
		return
	}

	today := dateOnly(s.now())
	for _, plant := range plants {
		rec, err := s.engine.Recommend(ctx, plant, user)
		if err != nil {
			slog.Error("failed to recommend", "sweep", sweepID, "plant_id", plant.ID, "err", err)
			continue
		}

		dueDate := dateOnly(plant.LastWateredDate).AddDate(0, 0, int(math.Floor(rec.IntervalDays)))
		due := !today.Before(dueDate)
		remindedToday := plant.LastReminderDate != nil && dateOnly(*plant.LastReminderDate).Equal(today)
		if !due || remindedToday {
			continue
		}

		if !s.sender.SendWateringReminder(user, plant, rec) {
			continue
		}
		if _, err := s.source.UpdatePlant(ctx, &store.UpdatePlant{ID: plant.ID, LastReminderDate: &today}); err != nil {
			slog.Error("failed to mark reminder", "sweep", sweepID, "plant_id", plant.ID, "err", err)
			continue
		}
		slog.Info("watering reminder sent", "sweep", sweepID, "user", user.TelegramID,
			"plant_id", plant.ID, "interval", rec.IntervalDays)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
