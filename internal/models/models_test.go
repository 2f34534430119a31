package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"Premium", RolePremium},
		{"user", RoleStandard},
		{"", RoleStandard},
		{" ADMIN ", RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestUserRecord_HasActivePremium(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		rec  UserRecord
		want bool
	}{
		{name: "standard without purchase", rec: UserRecord{Role: "user"}, want: false},
		{name: "premium role with future expiry", rec: UserRecord{Role: "premium", PremiumExpiry: &future}, want: true},
		{name: "premium role expired", rec: UserRecord{Role: "premium", PremiumExpiry: &past}, want: false},
		{name: "premium role without expiry", rec: UserRecord{Role: "premium"}, want: true},
		{name: "admin with purchase", rec: UserRecord{Role: "admin", PremiumTaken: &past, PremiumExpiry: &future}, want: true},
		{name: "admin without purchase", rec: UserRecord{Role: "admin"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.HasActivePremium(now))
		})
	}
}

func TestMergeCurrentUser_TakesAuthorizationFromRecordOnly(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	a := IdentityAssertion{UID: "u1", DisplayName: "Ann", Email: "ann@example.com", PhotoURL: "https://img/ann.png", IDToken: "raw"}
	rec := UserRecord{UID: "u1", Name: "Server Name", Role: "premium", PremiumExpiry: &future}

	u := MergeCurrentUser(a, rec, now)

	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "https://img/ann.png", u.Image)
	assert.Equal(t, "raw", u.IDToken)
	assert.Equal(t, RolePremium, u.Role)
	assert.True(t, u.Premium)
	assert.False(t, u.IsAdmin())
}

func TestIdentityAssertion_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, IdentityAssertion{}.Expired(now))
	assert.True(t, IdentityAssertion{ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, IdentityAssertion{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestNewArticleDraft(t *testing.T) {
	author := CurrentUser{Name: "Ann", Email: "ann@example.com", Image: "i"}
	a := NewArticleDraft("T", "img", "Daily", "D", []string{"go"}, author)

	assert.Equal(t, ArticlePending, a.Status)
	assert.False(t, a.IsPremium)
	assert.Equal(t, "ann@example.com", a.AuthorEmail)
	assert.Equal(t, []string{"go"}, a.Tags)
}
