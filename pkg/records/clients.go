package records

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"adoptm3/models"

	"gorm.io/gorm"
)

type ClientInput struct {
	Name      string
	Nickname  string
	Email     string
	BirthDate time.Time
	AddressID *uint
	// PhotoPath replaces the stored photo when not empty.
	PhotoPath string
}

func (in *ClientInput) validate(tx *gorm.DB) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	var v ValidationError
	if in.Name == "" {
		v.Add("name", "required")
	} else if len(in.Name) > 150 {
		v.Add("name", "must be at most 150 characters")
	}
	if in.Nickname == "" {
		v.Add("nickname", "required")
	} else if len(in.Nickname) > nicknameSize {
		v.Add("nickname", fmt.Sprintf("must be at most %d characters", nicknameSize))
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			v.Add("email", "invalid email")
		}
	}
	if in.BirthDate.IsZero() {
		v.Add("birth_date", "required")
	} else if in.BirthDate.After(time.Now()) {
		v.Add("birth_date", "cannot be in the future")
	}
	if in.AddressID != nil {
		if ok, err := exists[models.Address](tx, *in.AddressID); err != nil {
			return err
		} else if !ok {
			v.Add("address_id", "unknown address")
		}
	}
	return v.Err()
}

func CreateClient(ctx context.Context, db *gorm.DB, actor *models.User, in ClientInput) (*models.Client, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	tx := db.WithContext(ctx)
	if err := in.validate(tx); err != nil {
		return nil, err
	}
	c := models.Client{
		Name:        in.Name,
		Nickname:    in.Nickname,
		Email:       in.Email,
		BirthDate:   in.BirthDate,
		PhotoPath:   in.PhotoPath,
		AddressID:   in.AddressID,
		CreatedByID: actor.ID,
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &c, nil
}

// UpdateClient edits a client the actor may change and returns the photo
// path it replaced, if any, so the caller can remove the old object.
func UpdateClient(ctx context.Context, db *gorm.DB, actor *models.User, id uint, in ClientInput) (*models.Client, string, error) {
	tx := db.WithContext(ctx)
	c, err := GetWritable[models.Client](ctx, db, actor, id)
	if err != nil {
		return nil, "", err
	}
	if err := in.validate(tx); err != nil {
		return nil, "", err
	}
	var oldPhoto string
	cols := []string{"name", "nickname", "email", "birth_date", "address_id", "last_activity"}
	if in.PhotoPath != "" {
		oldPhoto = c.PhotoPath
		c.PhotoPath = in.PhotoPath
		cols = append(cols, "photo_path")
	}
	c.Name, c.Nickname, c.Email, c.BirthDate, c.AddressID = in.Name, in.Nickname, in.Email, in.BirthDate, in.AddressID
	c.LastActivity = time.Now()
	if err := tx.Model(c).Select(cols).Updates(c).Error; err != nil {
		return nil, "", fmt.Errorf("update client: %w", err)
	}
	return c, oldPhoto, nil
}

// DeleteClient removes a client that owns no relics and appears in no
// adoption. It returns the photo path to clean up.
func DeleteClient(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (string, error) {
	c, err := GetWritable[models.Client](ctx, db, actor, id)
	if err != nil {
		return "", err
	}
	tx := db.WithContext(ctx)
	var refs int64
	if err := tx.Model(&models.Relic{}).Where("client_id = ?", id).Count(&refs).Error; err != nil {
		return "", err
	}
	if refs == 0 {
		err := tx.Model(&models.Adoption{}).
			Where("previous_owner_id = ? OR new_owner_id = ?", id, id).
			Count(&refs).Error
		if err != nil {
			return "", err
		}
	}
	if refs > 0 {
		return "", ErrInUse
	}
	if err := deleteWritable[models.Client](ctx, db, actor, id); err != nil {
		return "", err
	}
	return c.PhotoPath, nil
}

func GetClient(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.Client, error) {
	return first[models.Client](Readable(db.WithContext(ctx), actor).Preload("Address.City.State"), id)
}

type ClientFilter struct {
	Name           string
	Nickname       string
	Email          string
	BirthAfter     *time.Time
	BirthBefore    *time.Time
	RegisterAfter  *time.Time
	RegisterBefore *time.Time
	CreatedBy      *uint
}

// ListClients returns every client matching f; clients are readable by
// any authenticated user.
func ListClients(ctx context.Context, db *gorm.DB, actor *models.User, f ClientFilter, p Page) (*List[models.Client], error) {
	q := Readable(db.WithContext(ctx).Model(&models.Client{}), actor)
	q = contains(q, "name", f.Name)
	q = contains(q, "nickname", f.Nickname)
	q = contains(q, "email", f.Email)
	q = dateRange(q, "birth_date", f.BirthAfter, f.BirthBefore)
	q = dateRange(q, "register_date", f.RegisterAfter, f.RegisterBefore)
	if f.CreatedBy != nil {
		q = q.Where("created_by_id = ?", *f.CreatedBy)
	}
	return paginate[models.Client](q, p, "name, id")
}

func dateRange(q *gorm.DB, col string, after, before *time.Time) *gorm.DB {
	if after != nil {
		q = q.Where(col+" >= ?", *after)
	}
	if before != nil {
		q = q.Where(col+" <= ?", *before)
	}
	return q
}
