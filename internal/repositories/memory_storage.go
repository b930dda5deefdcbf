package repositories

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/models"

	"github.com/google/uuid"
)

// MemoryStorage is the in-process fallback implementation of Storage.
// Nothing survives a restart.
type MemoryStorage struct {
	usersMu sync.RWMutex
	users   map[string]models.User // keyed by username
	byID    map[string]string      // user ID -> username

	predictionsMu sync.RWMutex
	predictions   []models.Prediction // append-only, insertion order
	nextID        uint
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[string]models.User),
		byID:  make(map[string]string),
	}
}

// InsertUser adds a new user.
func (s *MemoryStorage) InsertUser(_ context.Context, user *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if s.conflictLocked("", user.Username, user.Email) {
		return fmt.Errorf("insert user %q: %w", user.Username, apperrors.ErrDuplicateUser)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.Username] = *user
	s.byID[user.ID] = user.Username
	return nil
}

// FindUserByUsernameOrEmail looks a user up by username first, then by email.
func (s *MemoryStorage) FindUserByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	if username != "" {
		if user, ok := s.users[username]; ok {
			return &user, nil
		}
	}
	if email != "" {
		for _, user := range s.users {
			if user.Email == email {
				return &user, nil
			}
		}
	}
	return nil, fmt.Errorf("user %q/%q: %w", username, email, apperrors.ErrNotFound)
}

// FindUserByID returns a copy of the user with the given ID.
func (s *MemoryStorage) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	username, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, apperrors.ErrNotFound)
	}
	user := s.users[username]
	return &user, nil
}

// UpdateUser replaces the mutable fields of an existing user.
func (s *MemoryStorage) UpdateUser(_ context.Context, user *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	oldUsername, ok := s.byID[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, apperrors.ErrNotFound)
	}
	if s.conflictLocked(user.ID, user.Username, user.Email) {
		return fmt.Errorf("update user %s: %w", user.ID, apperrors.ErrDuplicateUser)
	}

	stored := s.users[oldUsername]
	stored.Username = user.Username
	stored.Email = user.Email
	if user.PasswordHash != "" {
		stored.PasswordHash = user.PasswordHash
	}

	delete(s.users, oldUsername)
	s.users[stored.Username] = stored
	s.byID[stored.ID] = stored.Username
	return nil
}

func (s *MemoryStorage) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	username, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update password for %s: %w", id, apperrors.ErrNotFound)
	}
	stored := s.users[username]
	stored.PasswordHash = passwordHash
	s.users[username] = stored
	return nil
}

func (s *MemoryStorage) UpdateEmail(_ context.Context, id, email string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	username, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update email for %s: %w", id, apperrors.ErrNotFound)
	}
	for _, other := range s.users {
		if other.ID != id && other.Email == email {
			return fmt.Errorf("update email for %s: %w", id, apperrors.ErrDuplicateUser)
		}
	}
	stored := s.users[username]
	stored.Email = email
	s.users[username] = stored
	return nil
}

// DeleteUser removes the user and every prediction it owns.
func (s *MemoryStorage) DeleteUser(_ context.Context, id string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	username, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found for deletion: %w", id, apperrors.ErrNotFound)
	}

	s.predictionsMu.Lock()
	s.removePredictionsLocked(id)
	s.predictionsMu.Unlock()

	delete(s.users, username)
	delete(s.byID, id)
	return nil
}

// InsertPrediction appends a prediction record for an existing user.
func (s *MemoryStorage) InsertPrediction(_ context.Context, prediction *models.Prediction) error {
	// Holding the users read lock keeps DeleteUser from running between the
	// owner check and the append.
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	if _, ok := s.byID[prediction.UserID]; !ok {
		return fmt.Errorf("prediction owner %s: %w", prediction.UserID, apperrors.ErrNotFound)
	}

	s.predictionsMu.Lock()
	defer s.predictionsMu.Unlock()

	s.nextID++
	prediction.ID = s.nextID
	if prediction.CreatedAt.IsZero() {
		prediction.CreatedAt = time.Now().UTC()
	}
	s.predictions = append(s.predictions, *prediction)
	return nil
}

// ListPredictionsForUser filters the shared sequence down to one user.
func (s *MemoryStorage) ListPredictionsForUser(_ context.Context, userID string) ([]models.Prediction, error) {
	s.predictionsMu.RLock()
	defer s.predictionsMu.RUnlock()

	result := make([]models.Prediction, 0)
	for i := len(s.predictions) - 1; i >= 0; i-- {
		if s.predictions[i].UserID == userID {
			result = append(result, s.predictions[i])
		}
	}
	// result is in reverse insertion order, so equal timestamps stay
	// most-recently-inserted first.
	slices.SortStableFunc(result, func(a, b models.Prediction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

// DeleteAllPredictionsForUser drops every record owned by userID.
func (s *MemoryStorage) DeleteAllPredictionsForUser(_ context.Context, userID string) error {
	s.predictionsMu.Lock()
	defer s.predictionsMu.Unlock()

	s.removePredictionsLocked(userID)
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// conflictLocked reports whether a user other than exceptID already holds
// username or email. Caller must hold usersMu.
func (s *MemoryStorage) conflictLocked(exceptID, username, email string) bool {
	for _, other := range s.users {
		if other.ID == exceptID {
			continue
		}
		if other.Username == username || other.Email == email {
			return true
		}
	}
	return false
}

// removePredictionsLocked filters in place. Caller must hold predictionsMu.
func (s *MemoryStorage) removePredictionsLocked(userID string) {
	s.predictions = slices.DeleteFunc(s.predictions, func(p models.Prediction) bool {
		return p.UserID == userID
	})
}
