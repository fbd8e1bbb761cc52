package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/satriahrh/diet-coach/domain"
)

type MemberRepository struct {
	db *gorm.DB
}

var _ domain.MemberRepository = (*MemberRepository)(nil)

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrMemberExists
	}
	return err
}

func (r *MemberRepository) FindByID(ctx context.Context, memberID string) (*domain.Member, error) {
	var m domain.Member
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) Exists(ctx context.Context, memberID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Member{}).Where("member_id = ?", memberID).Count(&n).Error
	return n > 0, err
}
