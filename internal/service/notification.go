package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"rental/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOrderConfirmed  NotificationType = "ORDER_CONFIRMED"
	NotificationOrderRejected   NotificationType = "ORDER_REJECTED"
	NotificationOrderCanceled   NotificationType = "ORDER_CANCELED"
	NotificationOrderStarted    NotificationType = "ORDER_STARTED"
	NotificationOrderCompleted  NotificationType = "ORDER_COMPLETED"
	NotificationOrderOverdue    NotificationType = "ORDER_OVERDUE"
	NotificationRentalReminder  NotificationType = "RENTAL_REMINDER"
	NotificationPaymentRequired NotificationType = "PAYMENT_REQUIRED"
)

// AdminRecipient routes a notification to the back-office operators rather
// than an individual user.
const AdminRecipient = "admin"

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// template holds the user-facing strings for one event type. All outbound
// content goes through this single table instead of per-event mail classes.
type template struct {
	title   string
	message string // fmt format string, applied to per-event args
}

var templates = map[NotificationType]template{
	NotificationOrderConfirmed:  {"Booking Confirmed", "Your booking from %s to %s is confirmed."},
	NotificationOrderRejected:   {"Booking Rejected", "Your booking was rejected: %s"},
	NotificationOrderCanceled:   {"Booking Canceled", "Your booking starting %s has been canceled."},
	NotificationOrderStarted:    {"Rental Started", "Your rental has started. Enjoy the ride!"},
	NotificationOrderCompleted:  {"Rental Completed", "Your rental is complete. Total: %.2f %s"},
	NotificationOrderOverdue:    {"Rental Overdue", "Order %s was not returned by %s."},
	NotificationRentalReminder:  {"Upcoming Rental", "Your rental starts at %s. Don't forget your driver's license."},
	NotificationPaymentRequired: {"Payment Required", "Complete your payment of %.2f %s to confirm the booking."},
}

// NotificationService delivers notifications on order events. Delivery
// failures are the caller's to swallow: transitions never fail because a
// notification could not be sent.
type NotificationService struct {
	// A real deployment would hold push/email/SMS clients here; the back
	// office currently logs and relies on the mobile app polling.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOrderConfirmed notifies the renter that the booking is confirmed.
func (s *NotificationService) NotifyOrderConfirmed(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationOrderConfirmed, order.UserID,
		[]interface{}{formatTime(order.RentalStart), formatTime(order.RentalEnd)},
		map[string]interface{}{"order_id": order.ID, "vehicle_id": order.VehicleID})
}

// NotifyOrderRejected notifies the renter that the booking was rejected.
func (s *NotificationService) NotifyOrderRejected(ctx context.Context, order *domain.Order, reason string) error {
	return s.dispatch(ctx, NotificationOrderRejected, order.UserID,
		[]interface{}{reason},
		map[string]interface{}{"order_id": order.ID, "reason": reason})
}

// NotifyOrderCanceled notifies the renter that the booking was canceled.
func (s *NotificationService) NotifyOrderCanceled(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationOrderCanceled, order.UserID,
		[]interface{}{formatTime(order.RentalStart)},
		map[string]interface{}{"order_id": order.ID})
}

// NotifyOrderStarted notifies the renter that the rental is active.
func (s *NotificationService) NotifyOrderStarted(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationOrderStarted, order.UserID,
		nil,
		map[string]interface{}{"order_id": order.ID, "started_at": order.StartedAt})
}

// NotifyOrderCompleted notifies the renter that the rental is complete.
func (s *NotificationService) NotifyOrderCompleted(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationOrderCompleted, order.UserID,
		[]interface{}{order.TotalAmount, order.Currency},
		map[string]interface{}{"order_id": order.ID, "total_amount": order.TotalAmount})
}

// NotifyOrderOverdue alerts the back office that a rental was not returned.
func (s *NotificationService) NotifyOrderOverdue(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationOrderOverdue, AdminRecipient,
		[]interface{}{order.ID, formatTime(order.RentalEnd)},
		map[string]interface{}{"order_id": order.ID, "user_id": order.UserID, "rental_end": order.RentalEnd})
}

// NotifyRentalReminder reminds the renter of an upcoming rental.
func (s *NotificationService) NotifyRentalReminder(ctx context.Context, order *domain.Order) error {
	return s.dispatch(ctx, NotificationRentalReminder, order.UserID,
		[]interface{}{formatTime(order.RentalStart)},
		map[string]interface{}{"order_id": order.ID, "rental_start": order.RentalStart})
}

// NotifyPaymentRequired asks the renter to complete checkout.
func (s *NotificationService) NotifyPaymentRequired(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	return s.dispatch(ctx, NotificationPaymentRequired, order.UserID,
		[]interface{}{payment.Amount, order.Currency},
		map[string]interface{}{"order_id": order.ID, "payment_id": payment.ID, "checkout_ref": payment.CheckoutRef})
}

// dispatch renders the template for the event type and sends it.
func (s *NotificationService) dispatch(ctx context.Context, typ NotificationType, recipientID string, args []interface{}, data map[string]interface{}) error {
	tmpl, ok := templates[typ]
	if !ok {
		return fmt.Errorf("no template for notification type %s", typ)
	}

	return s.send(ctx, Notification{
		Type:        typ,
		RecipientID: recipientID,
		Title:       tmpl.title,
		Message:     fmt.Sprintf(tmpl.message, args...),
		Data:        data,
		CreatedAt:   time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
