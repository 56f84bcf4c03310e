package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"gorm.io/gorm"
)

// DefaultBirthDate is stored for auto-provisioned clients until the owner
// fills in the real date.
var DefaultBirthDate = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

const nicknameSize = 50

// EnsureClient returns the Client linked to user, creating it when missing.
// An unlinked client the user registered for themselves (same nickname or
// email) is linked instead of duplicated. Run it on the caller's transaction
// so the client disappears with a rolled back workflow.
func EnsureClient(ctx context.Context, tx *gorm.DB, user *models.User) (*models.Client, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrNoActor
	}
	db := tx.WithContext(ctx)

	c, err := clientByUser(db, user.ID)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return c, err
	}

	var orphan models.Client
	q := db.Where("user_id IS NULL AND created_by_id = ?", user.ID)
	if email := strings.TrimSpace(user.Email); email != "" {
		q = q.Where("nickname = ? OR LOWER(email) = ?", user.Username, strings.ToLower(email))
	} else {
		q = q.Where("nickname = ?", user.Username)
	}
	err = q.Order("id").First(&orphan).Error
	switch {
	case err == nil:
		err = db.Transaction(func(sp *gorm.DB) error {
			return sp.Model(&orphan).Update("user_id", user.ID).Error
		})
		if err == nil {
			orphan.UserID = &user.ID
			return &orphan, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		c = newClientFor(user)
		// savepoint: a lost race must not abort the caller's transaction
		err = db.Transaction(func(sp *gorm.DB) error {
			return sp.Create(c).Error
		})
		if err == nil {
			return c, nil
		}
	}
	if database.IsUniqueViolation(err) {
		return clientByUser(db, user.ID)
	}
	return nil, fmt.Errorf("%w: %v", ErrProvisionFailed, err)
}

func clientByUser(db *gorm.DB, userID uint) (*models.Client, error) {
	var c models.Client
	if err := db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func newClientFor(user *models.User) *models.Client {
	nick := user.Username
	if len(nick) > nicknameSize {
		nick = nick[:nicknameSize]
	}
	uid := user.ID
	return &models.Client{
		Name:        user.DisplayName(),
		Nickname:    nick,
		Email:       user.Email,
		BirthDate:   DefaultBirthDate,
		CreatedByID: user.ID,
		UserID:      &uid,
	}
}

// SyncClientFromUser copies the account email onto the linked client, and
// the full name when the account has one. A client name edited by hand is
// kept for accounts without a name.
func SyncClientFromUser(ctx context.Context, tx *gorm.DB, user *models.User) error {
	fields := map[string]any{
		"email":         user.Email,
		"last_activity": time.Now(),
	}
	if name := user.FullName(); name != "" {
		fields["name"] = name
	}
	return tx.WithContext(ctx).Model(&models.Client{}).
		Where("user_id = ?", user.ID).
		Updates(fields).Error
}

// touchClients refreshes last_activity once per distinct client.
func touchClients(tx *gorm.DB, ids ...uint) error {
	seen := make(map[uint]struct{}, len(ids))
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return nil
	}
	return tx.Model(&models.Client{}).Where("id IN ?", uniq).Update("last_activity", time.Now()).Error
}
