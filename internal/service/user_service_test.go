package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/events"
	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/presence"
	"tabletop/backend/internal/repository/memory"
	"tabletop/backend/internal/service"
)

func newUserService(store *memory.Store, tracker presence.Tracker) *service.UserService {
	return service.NewUserService(store, store, tracker, fakeTokens{}, discard)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store, presence.NewMemory())

	user, token, err := svc.Register(ctx, service.RegisterParams{
		Username: "meeple",
		Email:    "Meeple@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "meeple@example.com", user.Email)
	assert.Equal(t, models.AccountPersonal, user.AccountType)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, _, err = svc.Register(ctx, service.RegisterParams{Username: "meeple", Email: "x@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	token, err = svc.Login(ctx, "meeple@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	_, err = svc.Login(ctx, "meeple", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newUserService(memory.New(), presence.NewMemory())
	base := service.RegisterParams{Username: "player", Email: "p@example.com", Password: "password123"}

	tests := []struct {
		name  string
		edit  func(*service.RegisterParams)
		field string
	}{
		{"short username", func(p *service.RegisterParams) { p.Username = "ab" }, "username"},
		{"username with space", func(p *service.RegisterParams) { p.Username = "a b c" }, "username"},
		{"bad email", func(p *service.RegisterParams) { p.Email = "nope" }, "email"},
		{"short password", func(p *service.RegisterParams) { p.Password = "short" }, "password"},
		{"unknown account type", func(p *service.RegisterParams) { p.AccountType = "guild" }, "account_type"},
		{"business without name", func(p *service.RegisterParams) { p.AccountType = models.AccountBusiness }, "business_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.edit(&p)
			_, _, err := svc.Register(context.Background(), p)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestProfileAndSearch(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tracker := presence.NewMemory()
	svc := newUserService(store, tracker)
	friends := service.NewFriendService(store, store, events.Nop{}, &recordingNotifier{}, discard)

	alice, bob, carol := createUser(t, store, "alice"), createUser(t, store, "bob"), createUser(t, store, "carol")
	_, err := friends.Request(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = friends.Accept(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = friends.Request(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, tracker.SetOnline(ctx, bob.ID))

	p, err := svc.Profile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, friendship.ViewFriends, p.Relation)
	assert.EqualValues(t, 1, p.FriendsCount)
	assert.True(t, p.Online)

	p, err = svc.Profile(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, friendship.ViewPendingReceived, p.Relation)
	assert.False(t, p.Online)

	results, total, err := svc.Search(ctx, alice.ID, "", service.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range results {
		assert.NotEqual(t, alice.ID, r.User.ID)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store, presence.NewMemory())
	u := createUser(t, store, "writer")

	bio := "I love worker placement"
	name := " Casey "
	updated, err := svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Bio: &bio, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "Casey", updated.FullName)

	_, err = svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Business: &service.BusinessDetails{Name: "Cafe"}})
	assert.True(t, apperr.IsValidation(err))

	updated, err = svc.SetAvatar(ctx, u.ID, "http://minio/tabletop/avatars/x.png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/tabletop/avatars/x.png", updated.AvatarURL)
}
