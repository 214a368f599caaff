package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile holds the editable, display-oriented details of a user. It is
// stored separately from the credentials so it can be created lazily.
type Profile struct {
	UserID     uuid.UUID `json:"user_id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Location   string    `json:"location"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Timezone   string    `json:"timezone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewProfile builds a profile for userID. When the user record is known the
// profile is seeded from it, otherwise every field starts blank.
func NewProfile(userID uuid.UUID, user *User) *Profile {
	now := time.Now().UTC()
	p := &Profile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user != nil {
		first, last, _ := strings.Cut(user.Name, " ")
		p.FirstName = first
		p.LastName = strings.TrimSpace(last)
		p.Email = user.Email
		p.Role = user.Role
	}
	return p
}

// ProfileUpdate lists every profile field that can be changed. A nil pointer
// leaves the stored value unchanged.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Location   *string
	Role       *string
	Department *string
	Timezone   *string
}

// IsEmpty reports whether the update carries no fields.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Phone == nil && u.Location == nil && u.Role == nil &&
		u.Department == nil && u.Timezone == nil
}

// Apply merges the supplied fields into p and bumps UpdatedAt.
func (u ProfileUpdate) Apply(p *Profile, now time.Time) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.Email, u.Email)
	set(&p.Phone, u.Phone)
	set(&p.Location, u.Location)
	set(&p.Role, u.Role)
	set(&p.Department, u.Department)
	set(&p.Timezone, u.Timezone)
	p.UpdatedAt = now
}
