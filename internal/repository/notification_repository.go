package repository

import (
	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository is the durable notification ledger. It also
// satisfies notify.Store, so live feeds reconcile against the same rows.
type NotificationRepository interface {
	Create(n *model.Notification) error
	CreateBatch(ns []model.Notification) error
	RecentForRecipient(recipientID uint, limit int) ([]model.Notification, error)
	UnreadCount(recipientID uint) (int64, error)
	MarkRead(id string) error
	MarkAllRead(recipientID uint) error
	Delete(id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) CreateBatch(ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.Create(&ns).Error
}

func (r *notificationRepository) RecentForRecipient(recipientID uint, limit int) ([]model.Notification, error) {
	var ns []model.Notification
	q := r.db.Where("recipient_id = ?", recipientID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&ns).Error
	return ns, err
}

func (r *notificationRepository) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(id string) error {
	return r.db.Model(&model.Notification{}).Where("id = ?", id).Update("read", true).Error
}

// MarkAllRead is a bulk predicate update: every unread row for the
// recipient flips in one statement.
func (r *notificationRepository) MarkAllRead(recipientID uint) error {
	return r.db.Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}

func (r *notificationRepository) Delete(id string) error {
	return r.db.Delete(&model.Notification{}, "id = ?", id).Error
}
