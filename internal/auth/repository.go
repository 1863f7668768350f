package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFoundByGivenValue = errors.New("record not found by given value")
	// ErrValueAlreadyExists means the 256-bit random value collided. That is
	// an internal fault, not a user-facing condition.
	ErrValueAlreadyExists   = errors.New("refresh token value already exists")
	ErrUnresponsiveDatabase = errors.New("error occurred during writing to refresh token records table")
)

type RecordRepository interface {
	Create(ctx context.Context, record *RefreshTokenRecord) error
	ReadByValue(ctx context.Context, value string) (*RefreshTokenRecord, error)
	// RevokeIfActive sets revoked_at (and, for rotations, replaced_by_value)
	// only if the record is still unrevoked. The returned bool reports
	// whether this caller won; a false return means someone else already
	// consumed the record. This conditional write is what keeps two
	// concurrent rotations of the same token from both succeeding.
	RevokeIfActive(ctx context.Context, id uint, revokedAt time.Time, replacedByValue *string) (bool, error)
	// RevokeAllForUser marks every live record of a user revoked. Used by
	// the optional containment policy when a replay is detected.
	RevokeAllForUser(ctx context.Context, userID uint, revokedAt time.Time) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *RefreshTokenRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrValueAlreadyExists
		}
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *recordRepository) ReadByValue(ctx context.Context, value string) (*RefreshTokenRecord, error) {
	var record RefreshTokenRecord
	err := r.db.WithContext(ctx).
		Where("value = ?", value).
		First(&record).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFoundByGivenValue
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &record, nil
}

func (r *recordRepository) RevokeIfActive(ctx context.Context, id uint, revokedAt time.Time, replacedByValue *string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&RefreshTokenRecord{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Updates(map[string]interface{}{
			"revoked_at":        revokedAt,
			"replaced_by_value": replacedByValue,
		})
	if res.Error != nil {
		return false, ErrUnresponsiveDatabase
	}
	return res.RowsAffected == 1, nil
}

func (r *recordRepository) RevokeAllForUser(ctx context.Context, userID uint, revokedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&RefreshTokenRecord{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt).
		Error
	if err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}
