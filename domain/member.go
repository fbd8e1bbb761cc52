package domain

import (
	"context"
	"time"
)

const (
	RoleUser = "ROLE_USER"
	UseYes   = "Y"

	GenderMale   = "M"
	GenderFemale = "F"
)

// Member is a registered account. Name and BirthDate are stored encrypted.
type Member struct {
	MemberID     string    `gorm:"column:member_id;primaryKey;size:50" json:"memberId"`
	PasswordHash string    `gorm:"column:password;size:255;not null" json:"-"`
	Name         string    `gorm:"column:name;size:255;not null;serializer:encrypted" json:"name"`
	BirthDate    string    `gorm:"column:birth_date;size:255;serializer:encrypted" json:"birthDate,omitempty"`
	Gender       string    `gorm:"column:gender;size:1" json:"gender,omitempty"`
	Role         string    `gorm:"column:role;size:20" json:"role"`
	UseYn        string    `gorm:"column:use_yn;size:1" json:"useYn"`
	CreatedAt    time.Time `gorm:"column:reg_dt;autoCreateTime" json:"regDt"`
	UpdatedAt    time.Time `gorm:"column:chg_dt;autoUpdateTime" json:"chgDt"`
}

func (Member) TableName() string { return "tb_member" }

type SignupInput struct {
	MemberID  string `json:"memberId" form:"memberId"`
	Password  string `json:"password" form:"password"`
	Name      string `json:"name" form:"name"`
	BirthDate string `json:"birthDate" form:"birthDate"`
	Gender    string `json:"gender" form:"gender"`
}

type MemberInfo struct {
	Age        *int   `json:"age"`
	Gender     string `json:"gender"`
	GenderName string `json:"genderName"`
}

type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, memberID string) (*Member, error)
	Exists(ctx context.Context, memberID string) (bool, error)
}
