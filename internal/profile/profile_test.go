package profile

import (
	"errors"
	"strings"
	"testing"

	"seta/internal/cache"
)

func TestProfileLifecycle(t *testing.T) {
	s := NewService(cache.NewLRUCache[Profile](10, 0))

	if p := s.Get("u1"); p.DisplayName != DefaultDisplayName || p.OwnerID != "u1" {
		t.Fatalf("default profile = %+v", p)
	}

	saved, err := s.Put("u1", Profile{OwnerID: "someone-else", DisplayName: "  Asha ", AvatarRef: "avatars/u1.png"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if saved.OwnerID != "u1" || saved.DisplayName != "Asha" {
		t.Fatalf("saved = %+v", saved)
	}
	if p := s.Get("u1"); p != saved {
		t.Fatalf("Get() = %+v, want %+v", p, saved)
	}
	if p := s.Get("u2"); p.DisplayName != DefaultDisplayName {
		t.Fatalf("other owners must not see u1's profile: %+v", p)
	}

	s.Clear("u1")
	if p := s.Get("u1"); p.DisplayName != DefaultDisplayName || p.AvatarRef != "" {
		t.Fatalf("profile after sign-out = %+v", p)
	}
}

func TestProfilePutValidation(t *testing.T) {
	s := NewService(cache.NewLRUCache[Profile](10, 0))
	if _, err := s.Put("", Profile{}); !errors.Is(err, ErrMissingOwner) {
		t.Errorf("expected ErrMissingOwner, got %v", err)
	}
	if _, err := s.Put("u1", Profile{DisplayName: strings.Repeat("x", 51)}); !errors.Is(err, ErrDisplayNameTooLong) {
		t.Errorf("expected ErrDisplayNameTooLong, got %v", err)
	}
	p, err := s.Put("u1", Profile{DisplayName: "   "})
	if err != nil || p.DisplayName != DefaultDisplayName {
		t.Errorf("blank name should reset to default: %+v %v", p, err)
	}
}
