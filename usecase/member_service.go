package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

const dateLayout = "20060102"

type MemberService struct {
	members domain.MemberRepository
	hasher  domain.PasswordHasher
	now     func() time.Time
}

func NewMemberService(members domain.MemberRepository, hasher domain.PasswordHasher) *MemberService {
	return &MemberService{members: members, hasher: hasher, now: time.Now}
}

func (s *MemberService) Signup(ctx context.Context, in domain.SignupInput) (*domain.Member, error) {
	in.MemberID = strings.TrimSpace(in.MemberID)
	in.Name = strings.TrimSpace(in.Name)
	if in.MemberID == "" || in.Password == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: memberId, password and name are required", domain.ErrInvalidInput)
	}
	if len(in.MemberID) > 50 {
		return nil, fmt.Errorf("%w: memberId is longer than 50 characters", domain.ErrInvalidInput)
	}

	exists, err := s.members.Exists(ctx, in.MemberID)
	if err != nil {
		return nil, fmt.Errorf("check member id: %w", err)
	}
	if exists {
		return nil, domain.ErrMemberExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	m := &domain.Member{
		MemberID:     in.MemberID,
		PasswordHash: hash,
		Name:         in.Name,
		BirthDate:    strings.TrimSpace(in.BirthDate),
		Gender:       strings.ToUpper(strings.TrimSpace(in.Gender)),
		Role:         domain.RoleUser,
		UseYn:        domain.UseYes,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}

	log.WithCtx(ctx).Info("member signed up", zap.String("new_member_id", m.MemberID))
	return m, nil
}

// CheckIDDuplicate reports whether memberID is already taken.
func (s *MemberService) CheckIDDuplicate(ctx context.Context, memberID string) (bool, error) {
	return s.members.Exists(ctx, strings.TrimSpace(memberID))
}

func (s *MemberService) Authenticate(ctx context.Context, memberID, password string) (*domain.Member, error) {
	m, err := s.members.FindByID(ctx, strings.TrimSpace(memberID))
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if m.UseYn != domain.UseYes {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(m.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return m, nil
}

func (s *MemberService) Info(ctx context.Context, memberID string) (*domain.MemberInfo, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	genderName := "Female"
	if m.Gender == domain.GenderMale {
		genderName = "Male"
	}
	return &domain.MemberInfo{
		Age:        ageOn(m.BirthDate, s.now()),
		Gender:     m.Gender,
		GenderName: genderName,
	}, nil
}

// ageOn returns full years between a yyyyMMdd birth date and now, or nil
// when the birth date does not parse.
func ageOn(birthDate string, now time.Time) *int {
	if len(birthDate) != len(dateLayout) {
		return nil
	}
	birth, err := time.ParseInLocation(dateLayout, birthDate, now.Location())
	if err != nil {
		return nil
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return &age
}
