package records

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 6

// SignupInput describes a new account. Name and BirthDate feed the client
// profile created together with the user.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	Name      string
	BirthDate *time.Time
	Superuser bool
}

func (in *SignupInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

func (in *SignupInput) validate(requireEmail bool) error {
	var v ValidationError
	if in.Username == "" {
		v.Add("username", "required")
	} else if len(in.Username) > 150 {
		v.Add("username", "must be at most 150 characters")
	}
	if in.Email == "" {
		if requireEmail {
			v.Add("email", "required")
		}
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		v.Add("email", "invalid email")
	}
	if len(in.Password) < minPasswordLen {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		v.Add("birth_date", "cannot be in the future")
	}
	return v.Err()
}

// RegisterUser creates the account and its client in one transaction.
// Taken usernames and emails are reported as field errors wrapping
// ErrUsernameTaken and ErrEmailInUse.
func RegisterUser(ctx context.Context, db *gorm.DB, in SignupInput) (*models.User, *models.Client, error) {
	in.normalize()
	if err := in.validate(!in.Superuser); err != nil {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	roleName := models.RoleUser
	if in.Superuser {
		roleName = models.RoleAdministrator
	}

	var user models.User
	var client *models.Client
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAccountFree(tx, in.Username, in.Email, 0); err != nil {
			return err
		}
		role, err := database.RoleByName(ctx, tx, roleName)
		if err != nil {
			return err
		}
		user = models.User{
			Username:       in.Username,
			Email:          in.Email,
			HashedPassword: hash,
			RoleID:         &role.ID,
			Role:           *role,
		}
		user.SetName(in.Name)
		if err := tx.Omit("Role").Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &FieldConflict{Field: "username", Err: ErrUsernameTaken}
			}
			return fmt.Errorf("create user: %w", err)
		}
		client, err = EnsureClient(ctx, tx, &user)
		if err != nil {
			return err
		}
		if in.BirthDate != nil {
			client.BirthDate = *in.BirthDate
			if err := tx.Model(client).Update("birth_date", client.BirthDate).Error; err != nil {
				return fmt.Errorf("set birth date: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, client, nil
}

// FieldConflict reports a uniqueness conflict on one input field.
type FieldConflict struct {
	Field string
	Err   error
}

func (e *FieldConflict) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldConflict) Unwrap() error { return e.Err }

// checkAccountFree fails when username or email belong to another user.
// Email comparison is case-insensitive.
func checkAccountFree(tx *gorm.DB, username, email string, self uint) error {
	var n int64
	if username != "" {
		if err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", username, self).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &FieldConflict{Field: "username", Err: ErrUsernameTaken}
		}
	}
	if email != "" {
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), self).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &FieldConflict{Field: "email", Err: ErrEmailInUse}
		}
	}
	return nil
}

// Authenticate checks a username and password pair.
func Authenticate(ctx context.Context, db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Preload("Role").Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// SetPassword replaces the password of username and revokes its refresh tokens.
func SetPassword(ctx context.Context, db *gorm.DB, username, password string) error {
	if len(password) < minPasswordLen {
		return fieldError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("username = ?", username).Update("hashed_password", hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = (?)", tx.Model(&models.User{}).Select("id").Where("username = ?", username)).
			Update("revoked", true).Error
	})
}

// ProfileInput updates the account name and email.
type ProfileInput struct {
	Name  *string
	Email *string
}

// UpdateProfile changes the actor's account and mirrors name and email onto
// the linked client, creating the client when needed.
func UpdateProfile(ctx context.Context, db *gorm.DB, actor *models.User, in ProfileInput) (*models.User, *models.Client, error) {
	if actor == nil {
		return nil, nil, ErrNoActor
	}
	user := *actor
	if in.Name != nil {
		user.SetName(strings.TrimSpace(*in.Name))
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, nil, fieldError("email", "invalid email")
			}
		}
		user.Email = email
	}

	var client *models.Client
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAccountFree(tx, "", user.Email, user.ID); err != nil {
			return err
		}
		err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
		}).Error
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if client, err = EnsureClient(ctx, tx, &user); err != nil {
			return err
		}
		if err := SyncClientFromUser(ctx, tx, &user); err != nil {
			return fmt.Errorf("sync client: %w", err)
		}
		client, err = clientByUser(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, client, nil
}
