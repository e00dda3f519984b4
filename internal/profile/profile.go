// Package profile keeps the per-owner display preferences: the name shown
// on the dashboard and a reference to an avatar image. Entries live only
// in a cache and are cleared when the owner signs out.
package profile

import (
	"errors"
	"strings"
	"unicode/utf8"

	"seta/internal/cache"
)

const (
	DefaultDisplayName = "Student"
	maxDisplayName     = 50
	maxAvatarRef       = 2048
)

var (
	ErrDisplayNameTooLong = errors.New("display name too long (max 50 characters)")
	ErrAvatarRefTooLong   = errors.New("avatar reference too long")
	ErrMissingOwner       = errors.New("missing owner")
)

type Profile struct {
	OwnerID     string `json:"owner_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

type Service struct {
	cache cache.Cache[Profile]
}

func NewService(c cache.Cache[Profile]) *Service {
	return &Service{cache: c}
}

// Get returns the owner's profile, or the default one when nothing is cached.
func (s *Service) Get(ownerID string) Profile {
	if p, ok := s.cache.Get(ownerID); ok {
		return p
	}
	return Profile{OwnerID: ownerID, DisplayName: DefaultDisplayName}
}

// Put stores the owner's profile. A blank display name resets to the default.
func (s *Service) Put(ownerID string, p Profile) (Profile, error) {
	if ownerID == "" {
		return Profile{}, ErrMissingOwner
	}
	p.OwnerID = ownerID
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.AvatarRef = strings.TrimSpace(p.AvatarRef)
	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}
	if utf8.RuneCountInString(p.DisplayName) > maxDisplayName {
		return Profile{}, ErrDisplayNameTooLong
	}
	if len(p.AvatarRef) > maxAvatarRef {
		return Profile{}, ErrAvatarRefTooLong
	}
	s.cache.Set(ownerID, p)
	return p, nil
}

// Clear drops the owner's cached profile.
func (s *Service) Clear(ownerID string) {
	s.cache.Delete(ownerID)
}
