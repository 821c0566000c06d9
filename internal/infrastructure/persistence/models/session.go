package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kaely/console/internal/domain/session"
)

// SessionModel is the persistence model for browser sessions.
type SessionModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantSlug    string    `gorm:"type:varchar(64);not null;index"`
	UserJSON      string    `gorm:"column:user_payload;type:jsonb"`
	Token         string    `gorm:"type:text"`
	TokenExpires  *time.Time
	Authenticated bool      `gorm:"not null;default:false"`
	Initialized   bool      `gorm:"not null;default:false"`
	UpdatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for SessionModel
func (SessionModel) TableName() string {
	return "sessions"
}

// ToDomain converts SessionModel to a domain Session
func (m *SessionModel) ToDomain() (*session.Session, error) {
	sess := &session.Session{
		ID:            m.ID,
		TenantSlug:    m.TenantSlug,
		Token:         m.Token,
		Authenticated: m.Authenticated,
		Initialized:   m.Initialized,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.TokenExpires != nil {
		sess.TokenExpires = *m.TokenExpires
	}
	if m.UserJSON != "" {
		var user session.User
		if err := json.Unmarshal([]byte(m.UserJSON), &user); err != nil {
			return nil, err
		}
		sess.User = &user
	}
	return sess, nil
}

// SessionModelFromDomain converts a domain Session to a SessionModel
func SessionModelFromDomain(sess *session.Session) (*SessionModel, error) {
	model := &SessionModel{
		ID:            sess.ID,
		TenantSlug:    sess.TenantSlug,
		Token:         sess.Token,
		Authenticated: sess.Authenticated,
		Initialized:   sess.Initialized,
		UpdatedAt:     sess.UpdatedAt,
	}
	if !sess.TokenExpires.IsZero() {
		expires := sess.TokenExpires
		model.TokenExpires = &expires
	}
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return nil, err
		}
		model.UserJSON = string(data)
	}
	return model, nil
}
