package services

import (
	"context"
	"log"
	"sync"
	"time"

	"calixoAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes created notifications out-of-band through
// a small worker pool so request handlers never wait on FCM.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
	Preferences  *notification.NotificationPreferences
	Tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()

	// Daily cleanup of old read notifications
	go dispatcher.cleanupOldNotifications()

	return dispatcher
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification

	if job.Preferences.PushEnabled && len(job.Tokens) > 0 && d.pushProvider != nil {
		err := d.pushProvider.SendPush(ctx, job.Tokens, notif.Title, notif.Body, notif.Data)
		if err != nil {
			log.Printf("Push failed for user %s: %v", notif.UserID, err)
			d.markAsFailed(ctx, notif.ID.String(), err)
			return
		}
	} else {
		log.Printf("Skipping push: Enabled=%v, Tokens=%d, ProviderSet=%v",
			job.Preferences.PushEnabled, len(job.Tokens), d.pushProvider != nil)
	}

	d.markAsSent(ctx, notif.ID.String())
}

// DispatchNotification queues a notification for delivery.
func (d *NotificationDispatcher) DispatchNotification(ctx context.Context, notif *notification.Notification, prefs *notification.NotificationPreferences, tokens []notification.DeviceToken) {
	job := &DispatchJob{
		Notification: notif,
		Preferences:  prefs,
		Tokens:       tokens,
	}

	select {
	case d.jobQueue <- job:
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue notification %s: queue full", notif.ID)
	}
}

func (d *NotificationDispatcher) cleanupOldNotifications() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.performCleanup()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) performCleanup() {
	ctx := context.Background()

	query := `
		DELETE FROM notifications
		WHERE read_at < NOW() - INTERVAL '90 days'
	`

	result, err := d.service.db.Exec(ctx, query)
	if err != nil {
		log.Printf("Failed to cleanup old notifications: %v", err)
		return
	}

	if rowsAffected := result.RowsAffected(); rowsAffected > 0 {
		log.Printf("Cleaned up %d old notifications", rowsAffected)
	}
}

func (d *NotificationDispatcher) markAsSent(ctx context.Context, notificationID string) {
	query := `
		UPDATE notifications
		SET status = 'sent', sent_at = NOW()
		WHERE id = $1
	`

	if _, err := d.service.db.Exec(ctx, query, notificationID); err != nil {
		log.Printf("Failed to mark notification %s as sent: %v", notificationID, err)
	}
}

func (d *NotificationDispatcher) markAsFailed(ctx context.Context, notificationID string, err error) {
	query := `
		UPDATE notifications
		SET status = 'failed'
		WHERE id = $1
	`

	if _, dbErr := d.service.db.Exec(ctx, query, notificationID); dbErr != nil {
		log.Printf("Failed to mark notification %s as failed: %v", notificationID, dbErr)
	}
	log.Printf("Notification %s failed: %v", notificationID, err)
}

// Stop drains the worker pool gracefully.
func (d *NotificationDispatcher) Stop() {
	log.Println("Stopping notification dispatcher...")
	close(d.stopChan)
	d.wg.Wait()
	log.Println("Notification dispatcher stopped")
}

// MockPushProvider is used by tests and when FCM credentials are absent.
type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	log.Printf("MOCK PUSH: Sending to %d devices: %s - %s", len(tokens), title, body)
	return nil
}
