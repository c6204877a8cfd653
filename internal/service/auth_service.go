package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-dataset-registry/internal/model"
	"go-dataset-registry/pkg/apierror"
)

const (
	bcryptCost = 12

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type refreshRecord struct {
	userID    string
	expiresAt time.Time
}

// AuthService owns accounts and tokens. Accounts live in a JSON file so the
// registry runs without a database; refresh tokens are process-local and
// rotate on every use.
type AuthService struct {
	usersFile  string
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu         sync.RWMutex
	byUsername map[string]model.User
	byID       map[string]model.User
	refresh    map[string]refreshRecord
}

func NewAuthService(usersFile string, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*AuthService, error) {
	if strings.TrimSpace(usersFile) == "" {
		return nil, errors.New("users file path is required")
	}
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	s := &AuthService{
		usersFile:  usersFile,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		byUsername: map[string]model.User{},
		byID:       map[string]model.User{},
		refresh:    map[string]refreshRecord{},
	}

	if err := s.loadUsers(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AuthService) Login(username string, password string) (model.TokenPair, error) {
	s.mu.RLock()
	user, exists := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	s.mu.RUnlock()
	if !exists {
		return model.TokenPair{}, invalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, invalidCredentials()
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Register(username string, password string, role string) (model.AuthUser, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	role = strings.ToLower(strings.TrimSpace(role))

	if username == "" || password == "" {
		return model.AuthUser{}, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST",
			"username and password are required", "", http.StatusBadRequest)
	}
	if role == "" {
		role = model.RoleViewer
	}
	if !model.ValidRole(role) {
		return model.AuthUser{}, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST",
			"invalid role", role, http.StatusBadRequest)
	}

	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[key]; exists {
		return model.AuthUser{}, apierror.Wrap(model.ErrUserAlreadyExists, "ALREADY_EXISTS",
			"username already exists", username, http.StatusConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.AuthUser{}, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	s.byUsername[key] = user
	s.byID[user.ID] = user

	if err := s.saveUsersLocked(); err != nil {
		delete(s.byUsername, key)
		delete(s.byID, user.ID)
		return model.AuthUser{}, err
	}

	return user.Public(), nil
}

// Refresh rotates a refresh token: the presented token is retired and a fresh
// pair is issued. A token that was already rotated, expired, or never issued
// by this process is refused.
func (s *AuthService) Refresh(refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	s.pruneRefreshLocked()
	record, exists := s.refresh[refreshToken]
	if !exists || record.userID != claims.UserID {
		s.mu.Unlock()
		return model.TokenPair{}, apierror.Wrap(model.ErrTokenNotFound, "UNAUTHORIZED",
			"refresh token is invalid", "", http.StatusUnauthorized)
	}
	delete(s.refresh, refreshToken)
	user, userExists := s.byID[claims.UserID]
	s.mu.Unlock()

	if !userExists {
		return model.TokenPair{}, apierror.Wrap(model.ErrUserNotFound, "UNAUTHORIZED",
			"user not found", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.refresh, refreshToken)
	s.pruneRefreshLocked()
	s.mu.Unlock()
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED",
				"invalid token signing method", "", http.StatusUnauthorized)
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED",
			"invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED",
			"invalid token claims", "", http.StatusUnauthorized)
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED",
			"invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED",
			"invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}

func (s *AuthService) GetUserByID(userID string) (model.AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.byID[userID]
	if !exists {
		return model.AuthUser{}, apierror.Wrap(model.ErrUserNotFound, "NOT_FOUND",
			"user not found", userID, http.StatusNotFound)
	}

	return user.Public(), nil
}

func (s *AuthService) issueTokenPair(user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "access",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "refresh",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	s.refresh[refreshToken] = refreshRecord{userID: user.ID, expiresAt: now.Add(s.refreshTTL)}
	s.mu.Unlock()

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.Public(),
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) pruneRefreshLocked() {
	now := time.Now()
	for token, record := range s.refresh {
		if now.After(record.expiresAt) {
			delete(s.refresh, token)
		}
	}
}

func (s *AuthService) loadUsers() error {
	if err := os.MkdirAll(filepath.Dir(s.usersFile), 0o755); err != nil {
		return err
	}

	data, err := os.ReadFile(s.usersFile)
	if os.IsNotExist(err) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		if err := s.seedDefaultAdmin(); err != nil {
			return err
		}
		data, err = os.ReadFile(s.usersFile)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var users []model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return err
	}
	if len(users) == 0 {
		if err := s.seedDefaultAdmin(); err != nil {
			return err
		}
		return s.loadUsers()
	}

	byUsername := map[string]model.User{}
	byID := map[string]model.User{}
	for _, user := range users {
		byUsername[strings.ToLower(user.Username)] = user
		byID[user.ID] = user
	}

	s.mu.Lock()
	s.byUsername = byUsername
	s.byID = byID
	s.mu.Unlock()

	return nil
}

func (s *AuthService) seedDefaultAdmin() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcryptCost)
	if err != nil {
		return err
	}

	defaultAdmin := []model.User{{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}}

	data, err := json.MarshalIndent(defaultAdmin, "", "  ")
	if err != nil {
		return err
	}

	slog.Warn("seeded default admin account, change its password", "users_file", s.usersFile)
	return os.WriteFile(s.usersFile, data, 0o600)
}

func (s *AuthService) saveUsersLocked() error {
	users := make([]model.User, 0, len(s.byID))
	for _, user := range s.byID {
		users = append(users, user)
	}
	sort.Slice(users, func(i int, j int) bool {
		return users[i].Username < users[j].Username
	})

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.usersFile, data, 0o600)
}

func invalidCredentials() error {
	return apierror.Wrap(model.ErrInvalidCredentials, "UNAUTHORIZED",
		"invalid credentials", "", http.StatusUnauthorized)
}
