package store

import "github.com/tgienger/taskboard/internal/models"

// UserState holds the signed-in user's profile
type UserState struct {
	Profile *models.UserProfile `json:"profile,omitempty"`
}

// UserStore is the store type for UserState
type UserStore = Store[UserState]

// NewUserStore returns an empty user store
func NewUserStore() *UserStore {
	return New(UserState{})
}

// SetUser replaces the profile wholesale, or clears it when p is nil
func SetUser(p *models.UserProfile) Reducer[UserState] {
	return func(s UserState) UserState {
		if p == nil {
			s.Profile = nil
			return s
		}
		cp := *p
		s.Profile = &cp
		return s
	}
}

// PatchUser applies a self-edit to the stored profile
func PatchUser(patch models.ProfilePatch) Reducer[UserState] {
	return func(s UserState) UserState {
		if s.Profile == nil || patch.IsEmpty() {
			return s
		}
		p := patch.Apply(*s.Profile)
		s.Profile = &p
		return s
	}
}
