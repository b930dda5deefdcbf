package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMStorage is the durable implementation of Storage.
type GORMStorage struct {
	db *gorm.DB
}

// NewGORMStorage creates a new instance of GORMStorage. The schema must
// already be migrated, see Migrate.
func NewGORMStorage(db *gorm.DB) *GORMStorage {
	return &GORMStorage{
		db: db,
	}
}

// Migrate creates or updates the users and predictions tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Prediction{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// InsertUser creates a new user in the database.
func (r *GORMStorage) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := userConflict(tx, "", user.Username, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateUser
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return classify(fmt.Sprintf("insert user %q", user.Username), err)
	}
	return nil
}

// FindUserByUsernameOrEmail retrieves the first user matching either field.
func (r *GORMStorage) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, fmt.Errorf("user lookup without username or email: %w", apperrors.ErrNotFound)
	}

	query := r.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR email = ?", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	default:
		query = query.Where("email = ?", email)
	}

	var user models.User
	if err := query.Order("created_at").First(&user).Error; err != nil {
		return nil, classify(fmt.Sprintf("get user %q/%q", username, email), err)
	}
	return &user, nil
}

// FindUserByID retrieves a user by their ID from the database.
func (r *GORMStorage) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, classify(fmt.Sprintf("get user by ID %s", id), err)
	}
	return &user, nil
}

// UpdateUser checks uniqueness and writes the new fields inside one transaction.
func (r *GORMStorage) UpdateUser(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			return apperrors.ErrNotFound
		}

		taken, err := userConflict(tx, user.ID, user.Username, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateUser
		}

		fields := map[string]any{
			"username": user.Username,
			"email":    user.Email,
		}
		if user.PasswordHash != "" {
			fields["password_hash"] = user.PasswordHash
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(fields).Error
	})
	if err != nil {
		return classify(fmt.Sprintf("update user %s", user.ID), err)
	}
	return nil
}

// UpdatePassword touches the password_hash column only.
func (r *GORMStorage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return classify(fmt.Sprintf("update password for %s", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(fmt.Sprintf("update password for %s", id), apperrors.ErrNotFound)
	}
	return nil
}

// UpdateEmail checks email uniqueness and touches the email column only.
func (r *GORMStorage) UpdateEmail(ctx context.Context, id, email string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return apperrors.ErrDuplicateUser
		}

		res := tx.Model(&models.User{}).Where("id = ?", id).Update("email", email)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return classify(fmt.Sprintf("update email for %s", id), err)
	}
	return nil
}

// DeleteUser removes the user and its predictions in one transaction.
func (r *GORMStorage) DeleteUser(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Prediction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return classify(fmt.Sprintf("delete user %s", id), err)
	}
	return nil
}

// InsertPrediction stores one prediction record.
func (r *GORMStorage) InsertPrediction(ctx context.Context, prediction *models.Prediction) error {
	if prediction.CreatedAt.IsZero() {
		prediction.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", prediction.UserID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return apperrors.ErrNotFound
		}
		// The foreign key still guards against a concurrent account deletion.
		return tx.Omit("User").Create(prediction).Error
	})
	if err != nil {
		return classify(fmt.Sprintf("insert prediction for user %s", prediction.UserID), err)
	}
	return nil
}

// ListPredictionsForUser returns the user's records, newest first.
func (r *GORMStorage) ListPredictionsForUser(ctx context.Context, userID string) ([]models.Prediction, error) {
	predictions := make([]models.Prediction, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&predictions).Error
	if err != nil {
		return nil, classify(fmt.Sprintf("list predictions for user %s", userID), err)
	}
	return predictions, nil
}

// DeleteAllPredictionsForUser removes every record owned by userID.
func (r *GORMStorage) DeleteAllPredictionsForUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Prediction{}).Error; err != nil {
		return classify(fmt.Sprintf("delete predictions for user %s", userID), err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *GORMStorage) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// userConflict reports whether a user other than exceptID holds username or email.
func userConflict(tx *gorm.DB, exceptID, username, email string) (bool, error) {
	query := tx.Model(&models.User{}).Where("(username = ? OR email = ?)", username, email)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// classify maps gorm and driver errors onto the apperrors taxonomy.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrDuplicateUser), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, apperrors.ErrDuplicateUser)
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorageUnavailable, err)
	}
}
