package records

import (
	"context"
	"errors"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"gorm.io/gorm"
)

// Writable narrows q to the rows actor may edit or delete: everything for a
// superuser, the actor's own rows otherwise, nothing without an actor.
func Writable(q *gorm.DB, actor *models.User) *gorm.DB {
	switch {
	case actor == nil:
		return q.Where("1 = 0")
	case actor.IsSuperuser():
		return q
	default:
		return q.Where("created_by_id = ?", actor.ID)
	}
}

// Readable narrows q for globally readable entities: every row for any
// authenticated actor.
func Readable(q *gorm.DB, actor *models.User) *gorm.DB {
	if actor == nil {
		return q.Where("1 = 0")
	}
	return q
}

// first loads one row by id and maps a miss to ErrNotFound.
func first[T any](q *gorm.DB, id uint) (*T, error) {
	var out T
	if err := q.First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// GetWritable loads a row the actor may change.
func GetWritable[T any](ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*T, error) {
	return first[T](Writable(db.WithContext(ctx), actor), id)
}

// deleteWritable removes a row the actor may change. References still
// pointing at it surface as ErrInUse.
func deleteWritable[T any](ctx context.Context, db *gorm.DB, actor *models.User, id uint) error {
	row, err := GetWritable[T](ctx, db, actor, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(row).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	return nil
}

func exists[T any](tx *gorm.DB, id uint) (bool, error) {
	var n int64
	var m T
	if err := tx.Model(&m).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
