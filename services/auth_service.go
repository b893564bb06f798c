package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/utils"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
)

const (
	tokenTTL = 24 * time.Hour

	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	GoogleEnabled() bool
	AuthCodeURL(state string) (string, error)
	// CompleteGoogleLogin exchanges the code, reads the Google profile and
	// creates or refreshes the local user.
	CompleteGoogleLogin(ctx context.Context, code string) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	IssueToken(user *models.User) (string, time.Time, error)
	ParseToken(tokenString string) (models.Identity, error)
	CurrentUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	oauth       *oauth2.Config
	userInfoURL string
	jwtSecret   []byte
	adminEmails map[string]bool
	now         func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, google GoogleOAuthConfig, jwtSecret string, adminEmails []string) AuthService {
	s := &authService{
		userRepo:    userRepo,
		userInfoURL: googleUserInfoURL,
		jwtSecret:   []byte(jwtSecret),
		adminEmails: make(map[string]bool, len(adminEmails)),
		now:         time.Now,
	}
	for _, email := range adminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			s.adminEmails[email] = true
		}
	}
	if google.Enabled() {
		s.oauth = &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleEndpoint,
		}
	}
	return s
}

func (s *authService) GoogleEnabled() bool {
	return s.oauth != nil
}

func (s *authService) AuthCodeURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

type googleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *authService) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google userinfo returned %d: %s", resp.StatusCode, body)
	}
	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	return &profile, nil
}

func (s *authService) roleFor(email string, current models.UserRole) models.UserRole {
	if s.adminEmails[strings.ToLower(email)] || current == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleViewer
}

func (s *authService) CompleteGoogleLogin(ctx context.Context, code string) (*models.User, error) {
	if s.oauth == nil {
		return nil, ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrAuthenticationFailed)
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", ErrAuthenticationFailed, err)
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if profile.Email == "" || !profile.EmailVerified {
		return nil, fmt.Errorf("%w: google account has no verified email", ErrAuthenticationFailed)
	}

	var avatar *string
	if profile.Picture != "" {
		avatar = &profile.Picture
	}
	subject := profile.Subject

	user, err := s.userRepo.GetByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		now := s.now().UTC()
		user = &models.User{
			Email:         strings.ToLower(profile.Email),
			Name:          profile.Name,
			Role:          s.roleFor(profile.Email, models.RoleViewer),
			GoogleSubject: &subject,
			AvatarURL:     avatar,
			LastLoginAt:   &now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, handleRepositoryError(err)
		}
		return user, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user.GoogleSubject != nil && *user.GoogleSubject != subject {
		return nil, fmt.Errorf("%w: google account does not match the stored identity", ErrAuthenticationFailed)
	}
	if profile.Name != "" {
		user.Name = profile.Name
	}
	user.Role = s.roleFor(user.Email, user.Role)
	user.GoogleSubject = &subject
	user.AvatarURL = avatar
	if err := s.userRepo.UpdateLogin(ctx, user); err != nil {
		return nil, handleRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, validationError("email and password are required")
	}
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := s.userRepo.UpdateLogin(ctx, user); err != nil {
		return nil, handleRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		jwtClaimUserID: user.ID,
		jwtClaimRole:   user.Role,
		"name":         user.Name,
		"exp":          expiresAt.Unix(),
		"iat":          now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func (s *authService) ParseToken(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, ErrAuthenticationFailed
	}

	userIDFloat, ok := claims[jwtClaimUserID].(float64)
	if !ok || userIDFloat != float64(int(userIDFloat)) || userIDFloat <= 0 {
		return models.Identity{}, fmt.Errorf("%w: invalid '%s' claim", ErrAuthenticationFailed, jwtClaimUserID)
	}
	roleStr, _ := claims[jwtClaimRole].(string)
	role := models.UserRole(roleStr)
	if role != models.RoleAdmin && role != models.RoleViewer {
		return models.Identity{}, fmt.Errorf("%w: invalid role value in claim: %q", ErrAuthenticationFailed, roleStr)
	}
	return models.Identity{UserID: int(userIDFloat), Role: role}, nil
}

func (s *authService) CurrentUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.UserID <= 0 {
		return nil, ErrAuthenticationFailed
	}
	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}
