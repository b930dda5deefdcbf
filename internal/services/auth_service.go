package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/models"
	"perfpredict/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to password changes.
const MinPasswordLength = 6

// AuthService handles registration, login, session tokens and account management.
type AuthService struct {
	store     repositories.Storage
	jwtSecret []byte
	tokenTTL  time.Duration // session token lifetime
	log       logrus.FieldLogger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repositories.Storage, jwtSecret string, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
		log:       log,
	}
}

// RegisterUser hashes the password, stores the user and returns its ID.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (string, error) {
	if username == "" || email == "" || password == "" {
		return "", apperrors.Validation("username, email and password are required")
	}

	if _, err := s.store.FindUserByUsernameOrEmail(ctx, username, email); err == nil {
		return "", fmt.Errorf("register %q: %w", username, apperrors.ErrDuplicateUser)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: failed to hash password: %v", apperrors.ErrInternal, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	// InsertUser re-checks uniqueness atomically, so a concurrent
	// registration still ends in ErrDuplicateUser.
	if err := s.store.InsertUser(ctx, user); err != nil {
		return "", err
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return user.ID, nil
}

// LoginUser authenticates a user and returns a signed session token.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, apperrors.Validation("username and password are required")
	}

	user, err := s.store.FindUserByUsernameOrEmail(ctx, username, "")
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Do not reveal whether the username exists
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to generate token: %v", apperrors.ErrInternal, err)
	}

	return tokenString, user, nil
}

// ValidateToken checks signature and expiry and returns the bound user ID.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: invalid token: %v", apperrors.ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", apperrors.ErrInvalidCredentials)
	}
	// MapClaims.Valid accepts tokens without exp; session tokens always carry one.
	if !claims.VerifyExpiresAt(jwt.TimeFunc().Unix(), true) {
		return "", fmt.Errorf("%w: invalid token: missing or past expiry", apperrors.ErrInvalidCredentials)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: invalid token: no user_id claim", apperrors.ErrInvalidCredentials)
	}
	return userID, nil
}

// GetProfile returns the stored user.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.FindUserByID(ctx, userID)
}

// ChangePassword replaces the password hash after verifying the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.Validation("current password and new password are required")
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrInvalidCredentials)
	}
	if len(newPassword) < MinPasswordLength {
		return apperrors.Validation("new password must be at least %d characters long", MinPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: failed to hash password: %v", apperrors.ErrInternal, err)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// ChangeEmail moves the account to newEmail after verifying the password.
func (s *AuthService) ChangeEmail(ctx context.Context, userID, newEmail, password string) error {
	if newEmail == "" || password == "" {
		return apperrors.Validation("new email and password are required")
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("%w: password is incorrect", apperrors.ErrInvalidCredentials)
	}
	if user.Email == newEmail {
		return nil
	}

	if err := s.store.UpdateEmail(ctx, userID, newEmail); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("Email changed")
	return nil
}

// UpdateProfile replaces username and email together.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, username, email string) error {
	if username == "" || email == "" {
		return apperrors.Validation("username and email are required")
	}

	return s.store.UpdateUser(ctx, &models.User{
		ID:       userID,
		Username: username,
		Email:    email,
	})
}

// DeleteAccount removes the user's predictions and then the user.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.store.DeleteAllPredictionsForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("Account deleted")
	return nil
}
