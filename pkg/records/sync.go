package records

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SyncResult counts what LinkClientsToUsers did.
type SyncResult struct {
	Linked  int
	Created int
	Skipped int
}

// LinkClientsToUsers links every client without an account to the user with
// the same email. With createMissing, clients left over get a new account
// with a unique username and an unusable password.
func LinkClientsToUsers(ctx context.Context, db *gorm.DB, createMissing bool) (SyncResult, error) {
	var res SyncResult
	var clients []models.Client
	if err := db.WithContext(ctx).Where("user_id IS NULL").Order("id").Find(&clients).Error; err != nil {
		return res, err
	}
	for i := range clients {
		c := &clients[i]
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			user, err := userForClient(tx, c)
			if err != nil {
				return err
			}
			if user == nil {
				if !createMissing {
					res.Skipped++
					return nil
				}
				if user, err = createUserForClient(ctx, tx, c); err != nil {
					return err
				}
				res.Created++
			} else {
				res.Linked++
			}
			return tx.Model(c).Update("user_id", user.ID).Error
		})
		if err != nil {
			return res, fmt.Errorf("client %d: %w", c.ID, err)
		}
	}
	return res, nil
}

// userForClient finds the oldest account sharing the client's email that
// has no client yet.
func userForClient(tx *gorm.DB, c *models.Client) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return nil, nil
	}
	var u models.User
	err := tx.Where("LOWER(email) = ?", email).
		Where("id NOT IN (?)", tx.Model(&models.Client{}).Select("user_id").Where("user_id IS NOT NULL")).
		Order("id").First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func createUserForClient(ctx context.Context, tx *gorm.DB, c *models.Client) (*models.User, error) {
	base := c.Nickname
	if base == "" {
		base, _, _ = strings.Cut(c.Email, "@")
	}
	if base == "" {
		base = "client" + strconv.FormatUint(uint64(c.ID), 10)
	}
	username, err := uniqueUsername(tx, base)
	if err != nil {
		return nil, err
	}
	hash, err := unusablePassword()
	if err != nil {
		return nil, err
	}
	role, err := database.RoleByName(ctx, tx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:       username,
		Email:          strings.ToLower(strings.TrimSpace(c.Email)),
		HashedPassword: hash,
		RoleID:         &role.ID,
	}
	u.SetName(c.Name)
	if err := tx.Omit("Role").Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return &u, nil
}

// uniqueUsername appends 1, 2, ... to base until no user has that name.
func uniqueUsername(tx *gorm.DB, base string) (string, error) {
	name := base
	for i := 1; ; i++ {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", name).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return name, nil
		}
		name = base + strconv.Itoa(i)
	}
}

// unusablePassword hashes random bytes nobody knows; the account needs a
// password reset before it can log in.
func unusablePassword() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), bcrypt.DefaultCost)
}
