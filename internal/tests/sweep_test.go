package tests

import (
	"context"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/service"
)

func newSweepEnv() (*testEnv, *service.Sweeper) {
	env := newTestEnv(nil)
	sweeper := service.NewSweeper(
		env.Service,
		env.Orders,
		nil, // notifications
		time.Minute,
		15*time.Minute, // auto-confirm window
		24*time.Hour,   // reminder window
		fixedClock,
	)
	return env, sweeper
}

// ──────────────────────────────────────────────
// 1. AUTO-CONFIRM
// ──────────────────────────────────────────────

func TestSweep_AutoConfirmsOrdersNearStart(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	addTestOrder(env, "due", domain.OrderStatusPending, 10*time.Minute)
	addTestOrder(env, "not-due", domain.OrderStatusPending, 2*time.Hour)

	sweeper.Sweep(context.Background())

	if got := env.Orders.GetOrder("due").Status; got != domain.OrderStatusConfirmed {
		t.Errorf("expected due order to be CONFIRMED, got %s", got)
	}
	if got := env.Orders.GetOrder("not-due").Status; got != domain.OrderStatusPending {
		t.Errorf("expected not-due order to stay PENDING, got %s", got)
	}
}

func TestSweep_AutoConfirm_SkipsNonPending(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	addTestOrder(env, "canceled", domain.OrderStatusCanceled, 10*time.Minute)

	sweeper.Sweep(context.Background())

	if got := env.Orders.GetOrder("canceled").Status; got != domain.OrderStatusCanceled {
		t.Errorf("expected canceled order to stay CANCELED, got %s", got)
	}
}

// ──────────────────────────────────────────────
// 2. OVERDUE FLAGGING
// ──────────────────────────────────────────────

func TestSweep_FlagsOverdueRentals(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	// Rental ended an hour before the sweep runs.
	addTestOrder(env, "overdue", domain.OrderStatusActive, -25*time.Hour)
	addTestOrder(env, "running", domain.OrderStatusActive, -12*time.Hour)

	sweeper.Sweep(context.Background())

	if env.Orders.GetOrder("overdue").OverdueNotifiedAt.IsZero() {
		t.Error("expected overdue order to be flagged")
	}
	if !env.Orders.GetOrder("running").OverdueNotifiedAt.IsZero() {
		t.Error("expected running order not to be flagged")
	}

	// The order stays ACTIVE; flagging is a notification, not a transition.
	if got := env.Orders.GetOrder("overdue").Status; got != domain.OrderStatusActive {
		t.Errorf("expected overdue order to stay ACTIVE, got %s", got)
	}
}

func TestSweep_OverdueFlag_AtMostOnce(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	addTestOrder(env, "overdue", domain.OrderStatusActive, -25*time.Hour)

	sweeper.Sweep(context.Background())
	first := env.Orders.GetOrder("overdue").OverdueNotifiedAt
	if first.IsZero() {
		t.Fatal("expected overdue order to be flagged")
	}

	sweeper.Sweep(context.Background())
	if got := env.Orders.GetOrder("overdue").OverdueNotifiedAt; !got.Equal(first) {
		t.Errorf("expected flag timestamp to be written once, got %v then %v", first, got)
	}
}

// ──────────────────────────────────────────────
// 3. REMINDERS
// ──────────────────────────────────────────────

func TestSweep_SendsRemindersWithinWindow(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	addTestOrder(env, "soon", domain.OrderStatusConfirmed, 12*time.Hour)
	addTestOrder(env, "later", domain.OrderStatusConfirmed, 48*time.Hour)
	addTestOrder(env, "pending", domain.OrderStatusPending, 12*time.Hour)

	sweeper.Sweep(context.Background())

	if env.Orders.GetOrder("soon").ReminderSentAt.IsZero() {
		t.Error("expected reminder for order starting within the window")
	}
	if !env.Orders.GetOrder("later").ReminderSentAt.IsZero() {
		t.Error("expected no reminder for order starting after the window")
	}
	if !env.Orders.GetOrder("pending").ReminderSentAt.IsZero() {
		t.Error("expected no reminder for unconfirmed order")
	}
}

func TestSweep_Reminder_AtMostOnce(t *testing.T) {
	t.Parallel()

	env, sweeper := newSweepEnv()
	addTestOrder(env, "soon", domain.OrderStatusConfirmed, 12*time.Hour)

	sweeper.Sweep(context.Background())
	first := env.Orders.GetOrder("soon").ReminderSentAt
	if first.IsZero() {
		t.Fatal("expected reminder to be sent")
	}

	sweeper.Sweep(context.Background())
	if got := env.Orders.GetOrder("soon").ReminderSentAt; !got.Equal(first) {
		t.Errorf("expected reminder to be sent once, got %v then %v", first, got)
	}
}

// ──────────────────────────────────────────────
// 4. RUN LOOP
// ──────────────────────────────────────────────

func TestSweeperRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	sweeper := service.NewSweeper(env.Service, env.Orders, nil, time.Millisecond, 15*time.Minute, 24*time.Hour, fixedClock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to stop after context cancellation")
	}
}
