package repository

import (
	"context"
	"errors"

	"villabook/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *DefaultBookingRepository {
	return &DefaultBookingRepository{db: db}
}

func (b *DefaultBookingRepository) FindByID(ctx context.Context, id int) (*entity.Booking, error) {
	var booking entity.Booking
	err := b.db.WithContext(ctx).
		Preload("Owner").
		Preload("Validator").
		First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &booking, err
}

// FindOverlapping finds non-cancelled bookings whose closed range intersects
// [startsAt, endsAt], ignoring excludeID when non-zero.
func (b *DefaultBookingRepository) FindOverlapping(ctx context.Context, startsAt, endsAt int64, excludeID int) ([]*entity.Booking, error) {
	q := b.db.WithContext(ctx).
		Preload("Owner").
		Where("status <> ?", entity.StatusCancelled).
		Where("starts_at <= ?", endsAt).
		Where("ends_at >= ?", startsAt)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var bookings []*entity.Booking
	err := q.Order("starts_at asc").Find(&bookings).Error
	return bookings, err
}

// FindAll lists bookings, optionally restricted to an owner and a status.
func (b *DefaultBookingRepository) FindAll(ctx context.Context, userID int, status string) ([]*entity.Booking, error) {
	q := b.db.WithContext(ctx).Preload("Owner").Preload("Validator")
	if userID != 0 {
		q = q.Where("added_by = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var bookings []*entity.Booking
	err := q.Order("starts_at asc").Find(&bookings).Error
	return bookings, err
}

func (b *DefaultBookingRepository) FindByUserID(ctx context.Context, id int) ([]*entity.Booking, error) {
	return b.FindAll(ctx, id, "")
}

// FindActiveBetween finds active bookings intersecting [from, to).
func (b *DefaultBookingRepository) FindActiveBetween(ctx context.Context, from, to int64) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := b.db.WithContext(ctx).
		Preload("Owner").
		Where("status <> ?", entity.StatusCancelled).
		Where("starts_at < ?", to).
		Where("ends_at >= ?", from).
		Order("starts_at asc").
		Find(&bookings).Error
	return bookings, err
}

func (b *DefaultBookingRepository) Save(ctx context.Context, booking *entity.Booking) error {
	return b.db.WithContext(ctx).Omit("Owner", "Validator").Save(booking).Error
}

func (b *DefaultBookingRepository) Delete(ctx context.Context, booking *entity.Booking) error {
	return b.db.WithContext(ctx).Delete(booking).Error
}
