package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Projection selects which profile fields are expanded when a user id is
// embedded in a response.
type Projection int

const (
	// ProjectNone carries the id only.
	ProjectNone Projection = iota
	// ProjectContact expands name and email.
	ProjectContact
	// ProjectCard expands name, email and avatar.
	ProjectCard
	// ProjectProfile expands name, email, avatar, bio and followers.
	ProjectProfile
	// ProjectBadge expands name and avatar.
	ProjectBadge
)

// UserRef is an expanded user reference. Every field of its projection is
// encoded, empty or not; fields outside it are left out.
type UserRef struct {
	ID         string     `json:"_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Avatar     string     `json:"avatar"`
	Bio        string     `json:"bio"`
	Followers  []string   `json:"followers"`
	Projection Projection `json:"-"`
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"_id": r.ID}
	switch r.Projection {
	case ProjectContact:
		out["name"], out["email"] = r.Name, r.Email
	case ProjectCard:
		out["name"], out["email"], out["avatar"] = r.Name, r.Email, r.Avatar
	case ProjectProfile:
		out["name"], out["email"], out["avatar"], out["bio"] = r.Name, r.Email, r.Avatar, r.Bio
		followers := r.Followers
		if followers == nil {
			followers = []string{}
		}
		out["followers"] = followers
	case ProjectBadge:
		out["name"], out["avatar"] = r.Name, r.Avatar
	}
	return json.Marshal(out)
}

// Project expands id through u using the requested projection. A nil user
// yields a reference carrying only the id.
func Project(id string, u *User, p Projection) UserRef {
	ref := UserRef{ID: id}
	if u == nil {
		return ref
	}
	ref.Projection = p
	switch p {
	case ProjectContact:
		ref.Name, ref.Email = u.Name, u.Email
	case ProjectCard:
		ref.Name, ref.Email, ref.Avatar = u.Name, u.Email, u.Avatar
	case ProjectProfile:
		ref.Name, ref.Email, ref.Avatar, ref.Bio = u.Name, u.Email, u.Avatar, u.Bio
		ref.Followers = append([]string{}, u.Followers...)
	case ProjectBadge:
		ref.Name, ref.Avatar = u.Name, u.Avatar
	}
	return ref
}

// NewUser creates an empty profile for an identity seen for the first time.
func NewUser(id string, now time.Time) *User {
	return &User{
		ID:        id,
		Followers: []string{},
		Following: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	return validate.Struct(u)
}

// ApplyProfile overwrites the editable profile fields. Empty name or email
// keep the stored value.
func (u *User) ApplyProfile(name, email, avatar, bio string, now time.Time) {
	if n := strings.TrimSpace(name); n != "" {
		u.Name = n
	}
	if e := strings.TrimSpace(email); e != "" {
		u.Email = strings.ToLower(e)
	}
	u.Avatar = avatar
	u.Bio = bio
	u.UpdatedAt = now
}

// HasFollower reports whether id follows u.
func (u *User) HasFollower(id string) bool {
	return contains(u.Followers, id)
}

// ToggleFollower flips followerID's membership in u.followers and returns
// the new membership.
func (u *User) ToggleFollower(followerID string, now time.Time) bool {
	var following bool
	u.Followers, following = toggle(u.Followers, followerID)
	u.UpdatedAt = now
	return following
}

// SetFollowing makes u.following agree with following for targetID.
func (u *User) SetFollowing(targetID string, following bool, now time.Time) {
	has := contains(u.Following, targetID)
	if has != following {
		u.Following, _ = toggle(u.Following, targetID)
	}
	u.UpdatedAt = now
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toggle(ids []string, id string) ([]string, bool) {
	if !contains(ids, id) {
		return append(ids, id), true
	}
	kept := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept, false
}
