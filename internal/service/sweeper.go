package service

import (
	"context"
	"log"
	"time"

	"rental/internal/repository"
)

// Sweeper runs the periodic background tasks: auto-confirming orders close
// to their rental start, flagging overdue rentals and sending start
// reminders. Each sweep is independent; a failure in one task never stops
// the others or the loop.
type Sweeper struct {
	orderService        *OrderService
	orderRepo           repository.OrderRepository
	notificationService *NotificationService
	interval            time.Duration
	autoConfirmWindow   time.Duration
	reminderWindow      time.Duration
	now                 func() time.Time
}

// NewSweeper creates a new Sweeper. clock defaults to time.Now when nil.
func NewSweeper(
	orderService *OrderService,
	orderRepo repository.OrderRepository,
	notificationService *NotificationService,
	interval time.Duration,
	autoConfirmWindow time.Duration,
	reminderWindow time.Duration,
	clock func() time.Time,
) *Sweeper {
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{
		orderService:        orderService,
		orderRepo:           orderRepo,
		notificationService: notificationService,
		interval:            interval,
		autoConfirmWindow:   autoConfirmWindow,
		reminderWindow:      reminderWindow,
		now:                 clock,
	}
}

// Run executes sweeps on the configured interval until ctx is canceled.
// Intended to run in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Sweeper started (interval %s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs all background tasks once.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.runTask(ctx, "auto-confirm", s.autoConfirmDue)
	s.runTask(ctx, "overdue", s.flagOverdue)
	s.runTask(ctx, "reminders", s.sendReminders)
}

func (s *Sweeper) runTask(ctx context.Context, name string, task func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Sweep task %s panicked: %v", name, r)
		}
	}()
	if err := task(ctx); err != nil {
		log.Printf("Sweep task %s failed: %v", name, err)
	}
}

// autoConfirmDue confirms PENDING orders whose rental start falls within the
// auto-confirm window.
func (s *Sweeper) autoConfirmDue(ctx context.Context) error {
	cutoff := s.now().Add(s.autoConfirmWindow)

	orders, err := s.orderRepo.GetPendingStartingBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, order := range orders {
		if _, err := s.orderService.ConfirmOrder(ctx, order.ID); err != nil {
			log.Printf("Auto-confirm of order %s failed: %v", order.ID, err)
			continue
		}
		log.Printf("Auto-confirmed order %s (rental starts %s)", order.ID, order.RentalStart.Format(time.RFC3339))
	}
	return nil
}

// flagOverdue notifies operations about ACTIVE orders past their rental end.
// The repository guard guarantees at most one notification per order even
// when multiple instances sweep concurrently.
func (s *Sweeper) flagOverdue(ctx context.Context) error {
	orders, err := s.orderRepo.GetOverdue(ctx, s.now())
	if err != nil {
		return err
	}

	for _, order := range orders {
		flagged, err := s.orderRepo.MarkOverdueNotified(ctx, order.ID, s.now())
		if err != nil {
			log.Printf("Marking order %s overdue failed: %v", order.ID, err)
			continue
		}
		if !flagged {
			continue // Another sweep got there first
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyOrderOverdue(ctx, order)
		}
	}
	return nil
}

// sendReminders sends a single reminder for CONFIRMED orders starting within
// the reminder window.
func (s *Sweeper) sendReminders(ctx context.Context) error {
	now := s.now()

	orders, err := s.orderRepo.GetReminderDue(ctx, now, now.Add(s.reminderWindow))
	if err != nil {
		return err
	}

	for _, order := range orders {
		sent, err := s.orderRepo.MarkReminderSent(ctx, order.ID, s.now())
		if err != nil {
			log.Printf("Marking reminder for order %s failed: %v", order.ID, err)
			continue
		}
		if !sent {
			continue
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyRentalReminder(ctx, order)
		}
	}
	return nil
}
