package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calixoAPI/internal/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{
		db: db,
	}
	// Memory-based dispatch queue; nothing durable needed here.
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found for clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

// Per-type content templates, rendered with {{key}} substitution from the
// request data.
var notificationTemplates = map[notification.NotificationType][2]string{
	notification.TypeStreakMilestone:   {"Streak milestone!", "You are on a {{streak}} day streak. Keep it up!"},
	notification.TypeShareReminder:     {"Share your win", "Your completed challenge is waiting to be shared for +2 coins."},
	notification.TypeFollowedCompleted: {"{{username}} completed a challenge", "Check out their post in your feed."},
	notification.TypeNewFollower:       {"New follower", "{{username}} started following you."},
	notification.TypePostLiked:         {"{{username}} liked your post", "Your post is getting attention."},
	notification.TypeCouponPurchased:   {"Coupon unlocked", "Your {{brand}} coupon is ready in your wallet."},
}

// CreateNotification inserts a notification row and queues it for push
// delivery unless the user disabled the type.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	tpl, ok := notificationTemplates[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown notification type: %s", req.Type)
	}
	title := renderTemplate(tpl[0], req.Data)
	body := renderTemplate(tpl[1], req.Data)

	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}

	prefs, err := s.GetUserPreferencesByUUID(ctx, req.UserID)
	if err != nil {
		prefs, err = s.createDefaultPreferences(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
	}

	if enabled, ok := prefs.EnabledTypes[string(req.Type)]; ok && !enabled {
		return nil, nil // user disabled this type, silently skip
	}
	if !prefs.InAppEnabled {
		return nil, nil
	}

	dataJSON, _ := json.Marshal(req.Data)

	query := `
		INSERT INTO notifications (id, user_id, type, priority, status, title, body, data, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, type, priority, status, title, body, data, actor_id, sent_at, read_at, created_at
	`

	notif := &notification.Notification{}
	var dataStr string

	err = s.db.QueryRow(
		ctx, query,
		uuid.New(), req.UserID, req.Type, priority, notification.StatusPending,
		title, body, dataJSON, req.ActorID,
	).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
		&notif.Title, &notif.Body, &dataStr, &notif.ActorID, &notif.SentAt,
		&notif.ReadAt, &notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	json.Unmarshal([]byte(dataStr), &notif.Data)

	tokens, err := s.getDeviceTokens(ctx, req.UserID)
	if err != nil {
		tokens = nil // no tokens is fine, push is skipped
	}

	go s.dispatcher.DispatchNotification(context.Background(), notif, prefs, tokens)

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	whereClause := "WHERE user_id = $1"
	if unreadOnly {
		whereClause += " AND read_at IS NULL"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, priority, status, title, body, data, actor_id, sent_at, read_at, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, whereClause)

	rows, err := s.db.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		notif := &notification.Notification{}
		var dataStr string
		if err := rows.Scan(&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
			&notif.Title, &notif.Body, &dataStr, &notif.ActorID, &notif.SentAt,
			&notif.ReadAt, &notif.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		json.Unmarshal([]byte(dataStr), &notif.Data)
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var totalCount, unreadCount int
	countClause := "WHERE user_id = $1"
	if err := s.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM notifications %s", countClause), userID).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID).Scan(&unreadCount); err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &notification.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
		TotalCount:    totalCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var unreadCount int
	query := "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL"
	if err := s.db.QueryRow(ctx, query, userID).Scan(&unreadCount); err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return unreadCount, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
	`
	result, err := s.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`
	_, err = s.db.Exec(ctx, query, userID)
	return err
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := "DELETE FROM notifications WHERE id = $1 AND user_id = $2"
	result, err := s.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) GetUserPreferences(ctx context.Context, clerkID string) (*notification.NotificationPreferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.GetUserPreferencesByUUID(ctx, userID)
}

func (s *NotificationService) GetUserPreferencesByUUID(ctx context.Context, userID uuid.UUID) (*notification.NotificationPreferences, error) {
	query := `
		SELECT user_id, push_enabled, in_app_enabled, enabled_types, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`
	prefs := &notification.NotificationPreferences{}
	var enabledTypesStr string

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.InAppEnabled, &enabledTypesStr, &prefs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preferences not found")
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	json.Unmarshal([]byte(enabledTypesStr), &prefs.EnabledTypes)
	return prefs, nil
}

func (s *NotificationService) UpdateUserPreferences(ctx context.Context, clerkID string, req *notification.UpdatePreferencesRequest) (*notification.NotificationPreferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	updates := []string{}
	args := []interface{}{userID}
	argCount := 2

	if req.PushEnabled != nil {
		updates = append(updates, fmt.Sprintf("push_enabled = $%d", argCount))
		args = append(args, *req.PushEnabled)
		argCount++
	}
	if req.InAppEnabled != nil {
		updates = append(updates, fmt.Sprintf("in_app_enabled = $%d", argCount))
		args = append(args, *req.InAppEnabled)
		argCount++
	}
	if req.EnabledTypes != nil {
		typesJSON, _ := json.Marshal(req.EnabledTypes)
		updates = append(updates, fmt.Sprintf("enabled_types = $%d", argCount))
		args = append(args, typesJSON)
		argCount++
	}

	if len(updates) == 0 {
		return s.GetUserPreferencesByUUID(ctx, userID)
	}

	query := fmt.Sprintf(`
		UPDATE notification_preferences
		SET %s, updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id
	`, strings.Join(updates, ", "))

	var id uuid.UUID
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return s.GetUserPreferencesByUUID(ctx, userID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO device_tokens (id, user_id, token, platform)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), userID, req.Token, req.Platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT id, user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) createDefaultPreferences(ctx context.Context, userID uuid.UUID) (*notification.NotificationPreferences, error) {
	query := `INSERT INTO notification_preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}
	return s.GetUserPreferencesByUUID(ctx, userID)
}

func renderTemplate(template string, data map[string]any) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
	}
	return result
}
