package notification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samudra-paket/erp/backend/internal/delivery"
	"github.com/samudra-paket/erp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTemplateRepo struct {
	byCode map[string]*models.NotificationTemplate
}

func newFakeTemplateRepo(tpls ...*models.NotificationTemplate) *fakeTemplateRepo {
	f := &fakeTemplateRepo{byCode: map[string]*models.NotificationTemplate{}}
	for _, t := range tpls {
		t.ID = primitive.NewObjectID()
		f.byCode[t.Code] = t
	}
	return f
}

func (f *fakeTemplateRepo) CreateTemplate(_ context.Context, tpl *models.NotificationTemplate) error {
	if _, ok := f.byCode[tpl.Code]; ok {
		return fmt.Errorf("notification template %s: %w", tpl.Code, models.ErrDuplicateCode)
	}
	tpl.ID = primitive.NewObjectID()
	cp := *tpl
	f.byCode[tpl.Code] = &cp
	return nil
}

func (f *fakeTemplateRepo) GetTemplateByCode(_ context.Context, code string) (*models.NotificationTemplate, error) {
	tpl, ok := f.byCode[code]
	if !ok {
		return nil, fmt.Errorf("notification template %s: %w", code, models.ErrNotFound)
	}
	cp := *tpl
	return &cp, nil
}

func (f *fakeTemplateRepo) SaveTemplate(_ context.Context, tpl *models.NotificationTemplate) error {
	if _, ok := f.byCode[tpl.Code]; !ok {
		return fmt.Errorf("notification template %s: %w", tpl.Code, models.ErrNotFound)
	}
	cp := *tpl
	f.byCode[tpl.Code] = &cp
	return nil
}

type fakePreferenceRepo struct {
	byUser map[string]*models.NotificationPreference
}

func newFakePreferenceRepo(prefs ...*models.NotificationPreference) *fakePreferenceRepo {
	f := &fakePreferenceRepo{byUser: map[string]*models.NotificationPreference{}}
	for _, p := range prefs {
		f.byUser[p.User] = p
	}
	return f
}

func (f *fakePreferenceRepo) FindOrCreate(_ context.Context, defaults *models.NotificationPreference) (*models.NotificationPreference, error) {
	if p, ok := f.byUser[defaults.User]; ok {
		return p, nil
	}
	defaults.ID = primitive.NewObjectID()
	f.byUser[defaults.User] = defaults
	return defaults, nil
}

func (f *fakePreferenceRepo) SavePreference(_ context.Context, pref *models.NotificationPreference) error {
	f.byUser[pref.User] = pref
	return nil
}

type fakeNotificationRepo struct {
	byID map[primitive.ObjectID]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byID: map[primitive.ObjectID]*models.Notification{}}
}

func (f *fakeNotificationRepo) add(n models.Notification) primitive.ObjectID {
	n.ID = primitive.NewObjectID()
	f.byID[n.ID] = &n
	return n.ID
}

func (f *fakeNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	cp := *n
	cp.DeliveryStatus = map[models.Channel]models.ChannelDelivery{}
	for k, v := range n.DeliveryStatus {
		cp.DeliveryStatus[k] = v
	}
	f.byID[n.ID] = &cp
	return nil
}

func (f *fakeNotificationRepo) GetNotificationByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotificationRepo) SetDeliveryStatus(_ context.Context, id primitive.ObjectID, ch models.Channel, status models.ChannelDelivery) error {
	n, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	n.DeliveryStatus[ch] = status
	return nil
}

func (f *fakeNotificationRepo) GetByRecipient(_ context.Context, recipient string, filter models.NotificationFilter, page, limit int) ([]models.Notification, int64, error) {
	var all []models.Notification
	for _, n := range f.byID {
		if n.Recipient != recipient {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Status == "" && n.Status == models.NotificationArchived {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		all = append(all, *n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(_ context.Context, recipient string) (int64, error) {
	var c int64
	for _, n := range f.byID {
		if n.Recipient == recipient && n.Status == models.NotificationUnread {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationRepo) MarkAsRead(_ context.Context, id primitive.ObjectID, at time.Time) error {
	if n, ok := f.byID[id]; ok && n.Status == models.NotificationUnread {
		n.Status = models.NotificationRead
		n.ReadAt = &at
	}
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(_ context.Context, recipient string, at time.Time) (int64, error) {
	var c int64
	for _, n := range f.byID {
		if n.Recipient == recipient && n.Status == models.NotificationUnread {
			n.Status = models.NotificationRead
			n.ReadAt = &at
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationRepo) Archive(_ context.Context, id primitive.ObjectID, at time.Time) error {
	n, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	n.Status = models.NotificationArchived
	n.ArchivedAt = &at
	return nil
}

func (f *fakeNotificationRepo) DeleteNotification(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// recordingAdapter captures sends and answers with a scripted error.
type recordingAdapter struct {
	err      error
	contacts []delivery.Contact
	contents []models.NotificationContent
}

func (a *recordingAdapter) Send(_ context.Context, _ models.Channel, contact delivery.Contact, content models.NotificationContent) (delivery.Result, error) {
	a.contacts = append(a.contacts, contact)
	a.contents = append(a.contents, content)
	if a.err != nil {
		return delivery.Result{}, a.err
	}
	return delivery.Result{Delivered: true, Metadata: map[string]any{"provider": "test"}}, nil
}
