package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/presence"
)

// ErrInvalidCredentials is returned by Login for an unknown login or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(userID uint) (string, error)
}

// RegisterParams is the input for Register.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	AccountType models.AccountType
	Business    BusinessDetails
}

// BusinessDetails is only kept for business accounts.
type BusinessDetails struct {
	Name    string
	Type    string
	Address string
	City    string
	State   string
	Zip     string
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	FullName *string
	Bio      *string
	Business *BusinessDetails
}

// Profile is a user as seen by a viewer.
type Profile struct {
	User         models.User
	FriendsCount int64
	Relation     friendship.View
	Online       bool
}

type UserService struct {
	users    UserStore
	friends  FriendStore
	presence presence.Tracker
	tokens   TokenIssuer
	log      *slog.Logger
}

func NewUserService(users UserStore, friends FriendStore, tracker presence.Tracker, tokens TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{users: users, friends: friends, presence: tracker, tokens: tokens, log: log}
}

// Register creates the account and returns a session token.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*models.User, string, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if err := validateRegistration(p); err != nil {
		return nil, "", err
	}

	exists, err := s.users.Exists(ctx, p.Username, p.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apperr.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		FullName:     p.FullName,
		AccountType:  p.AccountType,
	}
	if user.AccountType == "" {
		user.AccountType = models.AccountPersonal
	}
	if user.AccountType == models.AccountBusiness {
		applyBusiness(user, p.Business)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", "user_id", user.ID, "account_type", user.AccountType)
	return user, token, nil
}

// Login accepts a username or an email.
func (s *UserService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.GenerateToken(user.ID)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Profile loads targetID as seen by viewerID.
func (s *UserService) Profile(ctx context.Context, viewerID, targetID uint) (Profile, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return Profile{}, err
	}
	return s.buildProfile(ctx, viewerID, *user)
}

// UpdateProfile applies the changes and returns the stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, u ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		if utf8.RuneCountInString(name) > 255 {
			return nil, apperr.Invalid("full_name", "must be at most 255 characters")
		}
		fields["full_name"] = name
	}
	if u.Bio != nil {
		if utf8.RuneCountInString(*u.Bio) > 1000 {
			return nil, apperr.Invalid("bio", "must be at most 1000 characters")
		}
		fields["bio"] = *u.Bio
	}
	if u.Business != nil {
		if user.AccountType != models.AccountBusiness {
			return nil, apperr.Invalid("business", "only business accounts have business details")
		}
		fields["business_name"] = u.Business.Name
		fields["business_type"] = u.Business.Type
		fields["business_address"] = u.Business.Address
		fields["business_city"] = u.Business.City
		fields["business_state"] = u.Business.State
		fields["business_zip"] = u.Business.Zip
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// SetAvatar stores an already uploaded avatar URL.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, url string) (*models.User, error) {
	if err := s.users.Update(ctx, userID, map[string]any{"avatar_url": url}); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// Search lists users whose username matches query, never the viewer.
func (s *UserService) Search(ctx context.Context, viewerID uint, query string, page Page) ([]Profile, int64, error) {
	users, total, err := s.users.Search(ctx, strings.TrimSpace(query), viewerID, page.Normalize())
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]Profile, 0, len(users))
	for _, user := range users {
		p, err := s.buildProfile(ctx, viewerID, user)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, nil
}

func (s *UserService) buildProfile(ctx context.Context, viewerID uint, user models.User) (Profile, error) {
	count, err := s.friends.CountRelations(ctx, user.ID, models.StatusAccepted, DirectionAny)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{User: user, FriendsCount: count, Relation: friendship.ViewNone}

	if viewerID != 0 && viewerID != user.ID {
		pair, err := lookupPair(ctx, s.friends, viewerID, user.ID)
		if err != nil {
			return Profile{}, err
		}
		p.Relation = friendship.StatusOf(pair)
	}

	// Presence is advisory; a tracker outage shows the user as offline.
	status, err := s.presence.Status(ctx, user.ID)
	if err != nil {
		s.log.Warn("presence lookup failed", "user_id", user.ID, "err", err)
	}
	p.Online = status == presence.StatusOnline
	return p, nil
}

func validateRegistration(p RegisterParams) error {
	if n := utf8.RuneCountInString(p.Username); n < 3 || n > 30 {
		return apperr.Invalid("username", "must be between 3 and 30 characters")
	}
	if strings.ContainsAny(p.Username, " @") {
		return apperr.Invalid("username", "must not contain spaces or @")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return apperr.Invalid("email", "is not a valid address")
	}
	if len(p.Password) < 8 {
		return apperr.Invalid("password", "must be at least 8 characters")
	}
	switch p.AccountType {
	case "", models.AccountPersonal:
	case models.AccountBusiness:
		if strings.TrimSpace(p.Business.Name) == "" {
			return apperr.Invalid("business_name", "is required for business accounts")
		}
	default:
		return apperr.Invalid("account_type", "must be personal or business")
	}
	return nil
}

func applyBusiness(user *models.User, b BusinessDetails) {
	user.BusinessName = b.Name
	user.BusinessType = b.Type
	user.BusinessAddress = b.Address
	user.BusinessCity = b.City
	user.BusinessState = b.State
	user.BusinessZip = b.Zip
}
