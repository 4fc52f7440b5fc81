package store

import (
	"context"

	"gorm.io/gorm/clause"

	"drone-dispatch-backend/internal/model"
)

func (s *gormStore) CountGuardians(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Guardian{}).
		Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (s *gormStore) CreateGuardian(ctx context.Context, g *model.Guardian) error {
	return s.db.WithContext(ctx).Create(g).Error
}

func (s *gormStore) GuardiansForUser(ctx context.Context, userID int64) ([]model.Guardian, error) {
	var guardians []model.Guardian
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&guardians).Error; err != nil {
		return nil, err
	}
	return guardians, nil
}

func (s *gormStore) GuardianForUser(ctx context.Context, id, userID int64) (*model.Guardian, error) {
	var g model.Guardian
	if err := s.db.WithContext(ctx).First(&g, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *gormStore) SaveGuardian(ctx context.Context, g *model.Guardian) error {
	return s.db.WithContext(ctx).Save(g).Error
}

func (s *gormStore) DeleteGuardian(ctx context.Context, g *model.Guardian) error {
	return s.db.WithContext(ctx).Delete(g).Error
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
