package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop/backend/internal/events"
	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/handler"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/presence"
	"tabletop/backend/internal/progression"
	"tabletop/backend/internal/repository/memory"
	"tabletop/backend/internal/service"
	"tabletop/backend/internal/storage"
	"tabletop/backend/pkg/jwt"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	issuer   *jwt.Issuer
	hub      *hub.Hub
	presence *presence.Memory
}

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, prefix string, r io.Reader, _ int64) (string, error) {
	contentType, _, err := storage.Sniff(r)
	if err != nil {
		return "", err
	}
	name, err := storage.ObjectName(prefix, contentType)
	if err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + path.Dir(name) + "/image.png", nil
}

func newTestServer(t *testing.T, uploads storage.Uploader) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard

	store := memory.New()
	issuer := jwt.NewIssuer("test-secret", time.Hour)
	realtime := hub.New(discard)
	tracker := presence.NewMemory()
	publisher := events.Nop{}

	h := handler.New(handler.Deps{
		Users:        service.NewUserService(store, store, tracker, issuer, discard),
		Friends:      service.NewFriendService(store, store, publisher, realtime, discard),
		Points:       service.NewPointsService(store, store, progression.Default(), publisher, realtime, discard),
		Games:        service.NewGameService(store, publisher, realtime, discard),
		Messages:     service.NewMessageService(store, store, publisher, realtime, discard),
		Achievements: service.NewAchievementService(store, discard),
		Uploads:      uploads,
		Hub:          realtime,
		Presence:     tracker,
		Log:          discard,
	})
	return &testServer{
		router:   handler.NewRouter(h, issuer, store),
		store:    store,
		issuer:   issuer,
		hub:      realtime,
		presence: tracker,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register signs a user up and returns their token and id.
func (s *testServer) register(t *testing.T, username string) (string, uint) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp handler.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id, err := s.issuer.ParseToken(resp.Token)
	require.NoError(t, err)
	return resp.Token, id
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	u := models.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, s.store.Create(context.Background(), &u))
	token, err := s.issuer.GenerateToken(u.ID)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	token, id := s.register(t, "meeple")

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "meeple", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "short", "email": "short@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "MEEPLE@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "meeple", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "nobody", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[handler.PrivateUserResponse](t, w)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "meeple@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/games", "garbage", nil).Code)
}

func TestUpdateProfileAndSearch(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	alice, _ := s.register(t, "alice")
	_, bobID := s.register(t, "bob")
	s.register(t, "bobby")

	w := s.do(t, http.MethodPatch, "/users/me", alice, gin.H{"bio": "Loves worker placement"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Loves worker placement", decode[handler.PrivateUserResponse](t, w).Bio)

	w = s.do(t, http.MethodGet, "/users?q=bob", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[handler.PaginatedResponse[handler.UserSummary]](t, w)
	assert.Equal(t, int64(2), page.Meta.TotalItems)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", bobID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[handler.PublicUserResponse](t, w)
	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, friendship.ViewNone, profile.Friendship)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/users/999", alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/users/abc", alice, nil).Code)
}

func TestFriendFlow(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	alice, aliceID := s.register(t, "alice")
	bob, bobID := s.register(t, "bob")

	path := func(id uint, action string) string { return fmt.Sprintf("/users/%d/%s", id, action) }

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path(aliceID, "request"), alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path(999, "request"), alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path(aliceID, "accept"), bob, nil).Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, path(bobID, "request"), alice, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path(bobID, "request"), alice, nil).Code)

	w := s.do(t, http.MethodGet, "/users/me/friends/requests?direction=incoming", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	incoming := decode[[]handler.UserSummary](t, w)
	require.Len(t, incoming, 1)
	assert.Equal(t, aliceID, incoming[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/users/me/friends/requests?direction=sideways", bob, nil).Code)

	w = s.do(t, http.MethodGet, path(bobID, "friendship"), alice, nil)
	assert.Equal(t, friendship.ViewPendingSent, decode[handler.FriendshipResponse](t, w).Status)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path(aliceID, "accept"), bob, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path(aliceID, "request"), bob, nil).Code)

	w = s.do(t, http.MethodGet, "/users/me/friends", alice, nil)
	friends := decode[[]handler.FriendResponse](t, w)
	require.Len(t, friends, 1)
	assert.Equal(t, bobID, friends[0].ID)
	assert.False(t, friends[0].Online)

	require.NoError(t, s.presence.SetOnline(context.Background(), bobID))
	w = s.do(t, http.MethodGet, "/users/me/friends", alice, nil)
	friends = decode[[]handler.FriendResponse](t, w)
	require.Len(t, friends, 1)
	assert.True(t, friends[0].Online)

	w = s.do(t, http.MethodGet, "/users/me/friends", bob, nil)
	mine := decode[[]handler.FriendResponse](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, aliceID, mine[0].ID)
	assert.False(t, mine[0].Online)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path(aliceID, "remove"), bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path(aliceID, "remove"), bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path(bobID, "cancel"), alice, nil).Code)
}

func TestPointsAndUnlocks(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	admin := s.admin(t)
	token, userID := s.register(t, "meeple")

	w := s.do(t, http.MethodGet, "/users/me/points", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"total_points": 0,
		"level": 1,
		"title": "Novice",
		"next_level_threshold": 30,
		"progress": 0,
		"unlocks": {}
	}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/admin/achievements", admin, gin.H{
		"code": "first_game", "title": "First Game", "category": "games", "points": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	achievement := decode[handler.AchievementResponse](t, w)
	assert.Equal(t, 1, achievement.Target)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/admin/users/%d/achievements/%d", userID, achievement.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	points := decode[handler.PointsResponse](t, w)
	assert.Equal(t, 50, points.TotalPoints)
	assert.Equal(t, 2, points.Level)
	assert.Equal(t, progression.Unlock{Unlocked: true, Selected: "banner1"}, points.Unlocks["profileBanner"])

	w = s.do(t, http.MethodPut, "/users/me/unlocks/profileBanner", token, gin.H{"option": "banner2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "banner2", decode[handler.PointsResponse](t, w).Unlocks["profileBanner"].Selected)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/users/me/unlocks/profileBanner", token, gin.H{"option": "banner9"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/users/me/unlocks/profileTheme", token, gin.H{"option": "blue"}).Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d/points", userID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "banner2", decode[handler.PointsResponse](t, w).Unlocks["profileBanner"].Selected)

	w = s.do(t, http.MethodGet, "/users/me/achievements", token, nil)
	mine := decode[[]handler.UserAchievementResponse](t, w)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Unlocked)
}

func TestProgressionCatalog(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})

	w := s.do(t, http.MethodGet, "/progression/levels", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]progression.LevelThreshold](t, w), len(progression.DefaultLevels))

	w = s.do(t, http.MethodGet, "/progression/rewards", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	anonymous := decode[[]handler.RewardResponse](t, w)
	require.Len(t, anonymous, len(progression.DefaultRewards))
	assert.Nil(t, anonymous[0].Unlocked)

	token, _ := s.register(t, "meeple")
	w = s.do(t, http.MethodGet, "/progression/rewards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]handler.RewardResponse](t, w)
	require.NotNil(t, mine[0].Unlocked)
	assert.False(t, *mine[0].Unlocked)

	w = s.do(t, http.MethodGet, "/progression/rewards", "expired-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[[]handler.RewardResponse](t, w)[0].Unlocked)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	token, _ := s.register(t, "meeple")

	w := s.do(t, http.MethodPost, "/admin/achievements", token, gin.H{
		"code": "x", "title": "X", "category": "games", "points": 5,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.admin(t)
	w = s.do(t, http.MethodPost, "/admin/achievements", admin, gin.H{
		"code": "x", "title": "X", "category": "cooking", "points": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/admin/achievements/42", admin, nil).Code)
}

func gameBody(spots int) gin.H {
	return gin.H{
		"title":            "Catan Night",
		"category":         "Strategy",
		"starts_at":        time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"duration_minutes": 120,
		"location":         "The Dice Tower Cafe",
		"spots_total":      spots,
	}
}

func TestGamesAndReservations(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	host, hostID := s.register(t, "host")
	alice, aliceID := s.register(t, "alice")
	bob, _ := s.register(t, "bob")

	w := s.do(t, http.MethodPost, "/games", host, gameBody(1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[handler.GameResponse](t, w)
	assert.Equal(t, "catan-night", game.Slug)
	assert.Equal(t, 1, game.SpotsAvailable)
	assert.Equal(t, hostID, game.Host.ID)

	bad := gameBody(0)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/games", host, bad).Code)

	gamePath := fmt.Sprintf("/games/%d", game.ID)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, gamePath+"/reserve", host, nil).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, gamePath+"/reserve", alice, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, gamePath+"/reserve", alice, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, gamePath+"/reserve", bob, nil).Code)

	w = s.do(t, http.MethodGet, gamePath+"/attendees", bob, nil)
	attendees := decode[[]handler.ReservationResponse](t, w)
	require.Len(t, attendees, 1)
	assert.Equal(t, aliceID, attendees[0].User.ID)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, gamePath, alice, gameBody(4)).Code)
	w = s.do(t, http.MethodPut, gamePath, host, gameBody(4))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[handler.GameResponse](t, w).SpotsAvailable)

	w = s.do(t, http.MethodGet, "/games?category=Strategy", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[handler.PaginatedResponse[handler.GameResponse]](t, w).Meta.TotalItems)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d/games", hostID), bob, nil)
	assert.Len(t, decode[[]handler.GameResponse](t, w), 1)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, gamePath+fmt.Sprintf("/attendees/%d", aliceID), bob, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, gamePath+fmt.Sprintf("/attendees/%d", aliceID), host, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, gamePath+"/cancel", alice, nil).Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, gamePath+"/reserve", bob, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, gamePath+"/cancel", bob, nil).Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, gamePath, host, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, gamePath, host, nil).Code)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartImage(t *testing.T, target, token string) *http.Request {
	t.Helper()
	return multipartFile(t, target, token, pngBytes)
}

func multipartFile(t *testing.T, target, token string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1"+target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploads(t *testing.T) {
	t.Run("disabled storage", func(t *testing.T) {
		s := newTestServer(t, storage.Disabled{})
		token, _ := s.register(t, "meeple")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, multipartImage(t, "/users/me/avatar", token))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("avatar and game image", func(t *testing.T) {
		s := newTestServer(t, fakeUploader{})
		token, _ := s.register(t, "meeple")
		other, _ := s.register(t, "other")

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, multipartFile(t, "/users/me/avatar", token, []byte("<script>alert(1)</script>")))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		s.router.ServeHTTP(w, multipartImage(t, "/users/me/avatar", token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "https://cdn.example.com/avatars/image.png", decode[handler.PrivateUserResponse](t, w).AvatarURL)

		game := decode[handler.GameResponse](t, s.do(t, http.MethodPost, "/games", token, gameBody(2)))
		imagePath := fmt.Sprintf("/games/%d/image", game.ID)

		w = httptest.NewRecorder()
		s.router.ServeHTTP(w, multipartImage(t, imagePath, other))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = httptest.NewRecorder()
		s.router.ServeHTTP(w, multipartImage(t, imagePath, token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "https://cdn.example.com/games/image.png", decode[handler.GameResponse](t, w).ImageURL)
	})
}

func TestMessages(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	alice, aliceID := s.register(t, "alice")
	bob, bobID := s.register(t, "bob")

	toBob := fmt.Sprintf("/messages/%d", bobID)
	w := s.do(t, http.MethodPost, toBob, alice, gin.H{"content": "  See you at 7?  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sent := decode[service.MessagePayload](t, w)
	assert.Equal(t, "See you at 7?", sent.Content)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, toBob, alice, gin.H{"content": "   "}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, toBob, alice, gin.H{"content": strings.Repeat("x", 2001)}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, fmt.Sprintf("/messages/%d", aliceID), alice, gin.H{"content": "me"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/messages/999", alice, gin.H{"content": "hello?"}).Code)

	w = s.do(t, http.MethodGet, "/messages/unread", bob, nil)
	assert.Equal(t, int64(1), decode[handler.UnreadResponse](t, w).Unread)

	w = s.do(t, http.MethodGet, "/messages", bob, nil)
	conversations := decode[[]handler.ConversationResponse](t, w)
	require.Len(t, conversations, 1)
	assert.Equal(t, aliceID, conversations[0].PartnerID)
	assert.Equal(t, int64(1), conversations[0].Unread)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/messages/%d", aliceID), bob, nil)
	assert.Len(t, decode[[]service.MessagePayload](t, w), 1)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, fmt.Sprintf("/messages/%d/read", aliceID), bob, nil).Code)
	w = s.do(t, http.MethodGet, "/messages/unread", bob, nil)
	assert.Equal(t, int64(0), decode[handler.UnreadResponse](t, w).Unread)
}

// streamRecorder adds the CloseNotifier gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamEvents(t *testing.T) {
	s := newTestServer(t, storage.Disabled{})
	alice, aliceID := s.register(t, "alice")
	_, bobID := s.register(t, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+alice)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Connected(aliceID) == 1 }, time.Second, 5*time.Millisecond)
	s.hub.Publish(aliceID, hub.Event{Type: "friend.requested", Payload: gin.H{"user_id": bobID}})
	// Give the stream a moment to drain before disconnecting.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	assert.Equal(t, 0, s.hub.Connected(aliceID))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event:message")
	assert.Contains(t, rec.Body.String(), `"type":"friend.requested"`)
}
