package session

import (
	"context"
	"errors"
	"time"

	"github.com/nexusforge/console/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionModel struct {
	Profile   string                          `gorm:"primaryKey;column:profile"`
	Token     string                          `gorm:"column:token"`
	TokenType string                          `gorm:"column:token_type"`
	User      datatypes.JSONType[models.User] `gorm:"column:user_profile"`
	UpdatedAt time.Time                       `gorm:"column:updated_at"`
}

func (SessionModel) TableName() string {
	return "console_sessions"
}

// DBStore keeps one row per console profile, for shared workstations where
// the session must follow the operator across hosts.
type DBStore struct {
	db      *gorm.DB
	profile string
}

func NewDBStore(db *gorm.DB, profile string) *DBStore {
	return &DBStore{db: db, profile: profile}
}

func (d *DBStore) AutoMigrate() error {
	return d.db.AutoMigrate(&SessionModel{})
}

func (d *DBStore) Load(ctx context.Context) (Session, error) {
	var row SessionModel
	result := d.db.WithContext(ctx).First(&row, "profile = ?", d.profile)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Session{}, ErrNoSession
	}
	if result.Error != nil {
		return Session{}, result.Error
	}
	return Session{Token: row.Token, TokenType: row.TokenType, User: row.User.Data()}, nil
}

func (d *DBStore) Save(ctx context.Context, s Session) error {
	row := SessionModel{
		Profile:   d.profile,
		Token:     s.Token,
		TokenType: s.TokenType,
		User:      datatypes.NewJSONType(s.User),
		UpdatedAt: time.Now().UTC(),
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "token_type", "user_profile", "updated_at"}),
	}).Create(&row).Error
}

func (d *DBStore) Clear(ctx context.Context) error {
	return d.db.WithContext(ctx).Where("profile = ?", d.profile).Delete(&SessionModel{}).Error
}
