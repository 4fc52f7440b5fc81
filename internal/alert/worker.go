// Package alert delivers emergency notifications to a user's guardians.
// Delivery is fire-and-forget: the flight-facing request path only enqueues,
// and per-recipient failures are logged and swallowed so one dead phone
// number or expired push endpoint never blocks the rest of the fan-out.
package alert

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"drone-dispatch-backend/internal/model"
)

// Alert is one emergency event to fan out. Lat/Lng carry the caller's last
// reported position.
type Alert struct {
	UserID int64
	Lat    float64
	Lng    float64
}

// SMSSender delivers a text message to a single phone number.
type SMSSender interface {
	Send(phone, body string) error
}

// LogSMSSender writes messages to the process log instead of a carrier
// gateway. Used until an SMS provider is wired in.
type LogSMSSender struct{}

func (s *LogSMSSender) Send(phone, body string) error {
	log.Printf("SMS to %s: %s", phone, body)
	return nil
}

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of PushSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for delivering emergency alerts.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sms     SMSSender
	push    PushSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sms:     &LogSMSSender{},
		push:    &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Alert worker %d started", id)
	for {
		select {
		case a := <-wp.jobs:
			log.Printf("Alert worker %d processing emergency for user %d", id, a.UserID)
			wp.fanOut(ctx, a)
		case <-ctx.Done():
			log.Printf("Alert worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(a Alert) {
	wp.jobs <- a
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// fanOut texts every guardian of the user and pushes a confirmation to the
// user's own registered devices.
func (wp *WorkerPool) fanOut(ctx context.Context, a Alert) {
	var user model.User
	err := wp.db.WithContext(ctx).
		Preload("Guardians").
		First(&user, a.UserID).Error
	if err != nil {
		log.Printf("Error fetching user %d for emergency alert: %v", a.UserID, err)
		return
	}

	name := user.Username
	if name == "" {
		name = user.Phone
	}
	body := fmt.Sprintf("[EMERGENCY] %s needs help. Last known location: %.6f, %.6f", name, a.Lat, a.Lng)

	sent := 0
	for _, g := range user.Guardians {
		if err := wp.sms.Send(g.Phone, body); err != nil {
			log.Printf("Error sending emergency SMS to guardian %s of user %d: %v", g.Phone, a.UserID, err)
			continue
		}
		sent++
	}
	log.Printf("Emergency for user %d: notified %d of %d guardians", a.UserID, sent, len(user.Guardians))

	wp.confirmToUser(ctx, a.UserID, sent, len(user.Guardians))
}

// confirmToUser pushes a receipt to the user's devices so they know the
// alert went out even if no guardian responds.
func (wp *WorkerPool) confirmToUser(ctx context.Context, userID int64, sent, total int) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for user %d: %v", userID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("Emergency alert delivered to %d of %d guardians", sent, total)
	for _, sub := range subscriptions {
		wp.sendPush(ctx, sub, []byte(message))
	}
}

// sendPush sends a single web push notification.
func (wp *WorkerPool) sendPush(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.push.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
