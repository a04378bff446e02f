package notification

import (
	"context"
	"math"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is one slice of a user's inbox
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	CurrentPage   int                   `json:"currentPage"`
	TotalPages    int                   `json:"totalPages"`
	TotalItems    int64                 `json:"totalItems"`
	ItemsPerPage  int                   `json:"itemsPerPage"`
}

func (p Page) HasNextPage() bool     { return p.CurrentPage < p.TotalPages }
func (p Page) HasPreviousPage() bool { return p.CurrentPage > 1 }

// Inbox holds the user-facing notification actions. Every action checks that
// the caller is the recipient.
type Inbox struct {
	notifications repositories.NotificationRepository

	Now func() time.Time
}

func NewInbox(notifications repositories.NotificationRepository) *Inbox {
	return &Inbox{notifications: notifications, Now: time.Now}
}

func (i *Inbox) owned(ctx context.Context, id primitive.ObjectID, userID string) (*models.Notification, error) {
	n, err := i.notifications.GetNotificationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Recipient != userID {
		return nil, models.ErrUnauthorizedAccess
	}
	return n, nil
}

// MarkRead moves an unread notification to read; read or archived ones are returned unchanged.
func (i *Inbox) MarkRead(ctx context.Context, id primitive.ObjectID, userID string) (*models.Notification, error) {
	n, err := i.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n.Status != models.NotificationUnread {
		return n, nil
	}
	now := i.Now()
	if err := i.notifications.MarkAsRead(ctx, id, now); err != nil {
		return nil, err
	}
	n.Status = models.NotificationRead
	n.ReadAt = &now
	n.UpdatedAt = now
	return n, nil
}

func (i *Inbox) Archive(ctx context.Context, id primitive.ObjectID, userID string) (*models.Notification, error) {
	n, err := i.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n.Status == models.NotificationArchived {
		return n, nil
	}
	now := i.Now()
	if err := i.notifications.Archive(ctx, id, now); err != nil {
		return nil, err
	}
	n.Status = models.NotificationArchived
	n.ArchivedAt = &now
	n.UpdatedAt = now
	return n, nil
}

func (i *Inbox) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	if _, err := i.owned(ctx, id, userID); err != nil {
		return err
	}
	return i.notifications.DeleteNotification(ctx, id)
}

// List pages through the user's inbox, newest first; page and limit are clamped to sane values.
func (i *Inbox) List(ctx context.Context, userID string, filter models.NotificationFilter, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	items, total, err := i.notifications.GetByRecipient(ctx, userID, filter, page, limit)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Notifications: items,
		CurrentPage:   page,
		TotalPages:    int(math.Ceil(float64(total) / float64(limit))),
		TotalItems:    total,
		ItemsPerPage:  limit,
	}, nil
}

func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return i.notifications.GetUnreadCount(ctx, userID)
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return i.notifications.MarkAllAsRead(ctx, userID, i.Now())
}
