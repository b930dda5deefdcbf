package repositories

import (
	"context"

	"perfpredict/internal/models"
)

// Storage is the persistence capability shared by every service. It has a
// durable implementation (GORMStorage) and a process-local fallback
// (MemoryStorage); one of them is chosen at startup by Open.
//
// Errors are classified with the apperrors sentinels: ErrNotFound,
// ErrDuplicateUser, and ErrStorageUnavailable for backend failures.
type Storage interface {
	// InsertUser stores a new user, assigning its ID when empty. Fails with
	// ErrDuplicateUser if the username or email is already taken.
	InsertUser(ctx context.Context, user *models.User) error
	// FindUserByUsernameOrEmail returns the first user whose username equals
	// username or whose email equals email. Empty arguments never match.
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateUser replaces username, email and password hash of the user with
	// user.ID in one atomic step; an empty PasswordHash keeps the stored one.
	// Fails with ErrDuplicateUser if another user holds the new username or email.
	UpdateUser(ctx context.Context, user *models.User) error
	// UpdatePassword writes only the password hash, leaving username and
	// email as they are at the time of the write.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateEmail writes only the email. Fails with ErrDuplicateUser if
	// another user holds it.
	UpdateEmail(ctx context.Context, id, email string) error
	// DeleteUser removes the user together with any predictions it still owns.
	DeleteUser(ctx context.Context, id string) error

	// InsertPrediction appends a record. Fails with ErrNotFound if the owner
	// does not exist.
	InsertPrediction(ctx context.Context, prediction *models.Prediction) error
	// ListPredictionsForUser returns the user's records newest first.
	ListPredictionsForUser(ctx context.Context, userID string) ([]models.Prediction, error)
	DeleteAllPredictionsForUser(ctx context.Context, userID string) error

	Close() error
}
