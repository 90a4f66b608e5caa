package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/database/shelves"
	"github.com/sudarmaa/sudarmaa/internal/entities"
	"github.com/sudarmaa/sudarmaa/internal/validation"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

// LocalUsername owns the catalogue when authentication is disabled.
const LocalUsername = "local"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

type emailCheck struct {
	Email string `json:"email" validate:"email,max=254"`
}

// Service handles registration, credentials and API tokens.
type Service struct {
	db        *gorm.DB
	config    config.Auth
	validator *validation.Validator
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		validator: validation.New(),
	}
}

func (s *Service) validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if err := s.validator.Validate(emailCheck{Email: email}); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

func validRole(role entities.UserRole) bool {
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleEditor, entities.UserRoleViewer:
		return true
	}
	return false
}

// CreateUser registers a user and their default shelves in one transaction.
// Either the user and every default shelf exist afterwards, or neither does.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if !validRole(role) {
		return nil, ErrInvalidRole
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.register(user); err != nil {
		return nil, err
	}

	zap.L().Info("user created", zap.Uint("user_id", user.ID), zap.String("username", username), zap.String("role", string(role)))
	return user, nil
}

func (s *Service) register(user *entities.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&entities.User{}).
			Where("username = ? OR email = ?", user.Username, user.Email).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing > 0 {
			return ErrUserExists
		}

		if err := tx.Omit("Groups", "Shelves").Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := shelves.NewRepository(tx).CreateDefaultShelves(user.ID); err != nil {
			return fmt.Errorf("failed to create default shelves: %w", err)
		}
		return nil
	})
}

// EnsureLocalUser returns the user that owns data when authentication is
// disabled, registering it on first use.
func (s *Service) EnsureLocalUser() (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ?", LocalUsername).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Nobody logs in as the local user; the password only has to be unguessable.
	password, err := randomHex(24)
	if err != nil {
		return nil, err
	}
	return s.CreateUser(LocalUsername, LocalUsername+"@localhost.localdomain", password, entities.UserRoleAdmin)
}

// Authenticate validates credentials and returns the user. Accounts lock
// after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user)
		return nil, err
	}

	now := time.Now()
	err = s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		zap.L().Warn("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return &user, nil
}

func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}

	threshold := s.config.MaxLoginAttempts
	if threshold <= 0 {
		threshold = 5
	}
	if user.FailedLoginCount >= threshold {
		lockout := s.config.LockoutDuration
		if lockout <= 0 {
			lockout = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().Add(lockout)
		zap.L().Warn("account locked", zap.Uint("user_id", user.ID), zap.Duration("lockout", lockout))
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		zap.L().Warn("failed to record failed login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidateToken resolves a plaintext bearer token to its user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user entities.User
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return &user, nil
}

// GenerateToken replaces the user's API token. The plaintext is returned once;
// only its hash is stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	err := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password and stores a new one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(&entities.User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

// UpdateEmail changes a user's email address.
func (s *Service) UpdateEmail(userID uint, email string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.GetUserByID(userID); err != nil {
		return nil, err
	}

	var taken int64
	if err := s.db.Model(&entities.User{}).Where("email = ? AND id <> ?", email, userID).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrUserExists
	}

	if err := s.db.Model(&entities.User{}).Where("id = ?", userID).Update("email", email).Error; err != nil {
		return nil, err
	}
	return s.GetUserByID(userID)
}

// SetRole changes a user's role.
func (s *Service) SetRole(userID uint, role entities.UserRole) (*entities.User, error) {
	if !validRole(role) {
		return nil, ErrInvalidRole
	}
	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUserByID(userID)
}

// UserHasPermission reports whether the user may perform codename. Admins
// hold every permission; other users need it through a group.
func (s *Service) UserHasPermission(userID uint, codename string) (bool, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return false, err
	}
	if user.Role == entities.UserRoleAdmin {
		return true, nil
	}
	return groups.NewRepository(s.db).UserHasPermission(userID, codename)
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Where("username <> ?", LocalUsername).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// AllowSignup reports whether self-registration is open.
func (s *Service) AllowSignup() bool {
	return s.config.AllowSignup
}
