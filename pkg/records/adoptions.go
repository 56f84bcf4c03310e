package records

import (
	"context"
	"errors"
	"fmt"

	"adoptm3/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdoptionInput describes a transfer. PreviousOwnerID defaults to the
// relic's current owner and NewOwnerID to the actor's own client. Without
// RelicID the adoption is a history-only record and both owners are required.
type AdoptionInput struct {
	RelicID         *uint
	PreviousOwnerID *uint
	NewOwnerID      *uint
	PaymentStatus   bool
}

// CreateAdoption records a transfer and moves the relic to the new owner.
// Everything runs on one transaction; on postgres the relic row is locked
// so concurrent transfers of the same relic serialize.
func CreateAdoption(ctx context.Context, db *gorm.DB, actor *models.User, in AdoptionInput) (*models.Adoption, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	var adoption models.Adoption
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.RelicID == nil {
			return createHistoryAdoption(tx, actor, in, &adoption)
		}

		relic, err := lockRelic(tx, *in.RelicID)
		if errors.Is(err, ErrNotFound) {
			return fieldError("relic_id", "unknown relic")
		}
		if err != nil {
			return err
		}

		previous := relic.ClientID
		if in.PreviousOwnerID != nil && *in.PreviousOwnerID != previous {
			return ErrStaleOwner
		}

		var next uint
		if in.NewOwnerID != nil {
			if ok, err := exists[models.Client](tx, *in.NewOwnerID); err != nil {
				return err
			} else if !ok {
				return fieldError("new_owner_id", "unknown client")
			}
			next = *in.NewOwnerID
		} else {
			own, err := EnsureClient(ctx, tx, actor)
			if err != nil {
				return err
			}
			next = own.ID
		}

		adoption = models.Adoption{
			PaymentStatus:   in.PaymentStatus,
			RelicID:         &relic.ID,
			PreviousOwnerID: previous,
			NewOwnerID:      next,
			CreatedByID:     actor.ID,
		}
		if err := tx.Create(&adoption).Error; err != nil {
			return fmt.Errorf("create adoption: %w", err)
		}
		if err := tx.Model(relic).Update("client_id", next).Error; err != nil {
			return fmt.Errorf("transfer relic: %w", err)
		}
		if err := touchClients(tx, previous, next); err != nil {
			return err
		}
		detail := models.AdoptionRelic{AdoptionID: adoption.ID, RelicID: relic.ID, CreatedByID: actor.ID}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("create adoption detail: %w", err)
		}
		if adoption.PaymentStatus {
			return settleRelicAdoptions(tx, relic.ID, adoption.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetAdoption(ctx, db, actor, adoption.ID)
}

func createHistoryAdoption(tx *gorm.DB, actor *models.User, in AdoptionInput, out *models.Adoption) error {
	var v ValidationError
	if in.PreviousOwnerID == nil {
		v.Add("previous_owner_id", "required without relic_id")
	}
	if in.NewOwnerID == nil {
		v.Add("new_owner_id", "required without relic_id")
	}
	if err := v.Err(); err != nil {
		return err
	}
	for field, id := range map[string]uint{"previous_owner_id": *in.PreviousOwnerID, "new_owner_id": *in.NewOwnerID} {
		ok, err := exists[models.Client](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			v.Add(field, "unknown client")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}
	*out = models.Adoption{
		PaymentStatus:   in.PaymentStatus,
		PreviousOwnerID: *in.PreviousOwnerID,
		NewOwnerID:      *in.NewOwnerID,
		CreatedByID:     actor.ID,
	}
	if err := tx.Create(out).Error; err != nil {
		return fmt.Errorf("create adoption: %w", err)
	}
	return touchClients(tx, out.PreviousOwnerID, out.NewOwnerID)
}

func lockRelic(tx *gorm.DB, id uint) (*models.Relic, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return first[models.Relic](q, id)
}

// settleRelicAdoptions marks every other unpaid adoption of the relic as
// paid: a relic's fee is settled once any of its transfers is paid.
func settleRelicAdoptions(tx *gorm.DB, relicID, except uint) error {
	err := tx.Model(&models.Adoption{}).
		Where("relic_id = ? AND id <> ? AND payment_status = ?", relicID, except, false).
		Update("payment_status", true).Error
	if err != nil {
		return fmt.Errorf("settle adoptions: %w", err)
	}
	return nil
}

// UpdateAdoptionPayment changes the payment status of an adoption the actor
// may change. Owners are never re-derived from history.
func UpdateAdoptionPayment(ctx context.Context, db *gorm.DB, actor *models.User, id uint, paid bool) (*models.Adoption, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := first[models.Adoption](Writable(tx, actor), id)
		if err != nil {
			return err
		}
		if err := tx.Model(a).Update("payment_status", paid).Error; err != nil {
			return err
		}
		if paid && a.RelicID != nil {
			return settleRelicAdoptions(tx, *a.RelicID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetAdoption(ctx, db, actor, id)
}

// DeleteAdoption removes a history row. The relic keeps its current owner.
func DeleteAdoption(ctx context.Context, db *gorm.DB, actor *models.User, id uint) error {
	return deleteWritable[models.Adoption](ctx, db, actor, id)
}

func GetAdoption(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.Adoption, error) {
	q := Writable(db.WithContext(ctx), actor).Preload("Relic").Preload("PreviousOwner").Preload("NewOwner")
	return first[models.Adoption](q, id)
}

type AdoptionFilter struct {
	RelicID *uint
	Paid    *bool
}

// ListAdoptions lists the actor's adoptions, or all of them for a superuser.
func ListAdoptions(ctx context.Context, db *gorm.DB, actor *models.User, f AdoptionFilter, p Page) (*List[models.Adoption], error) {
	q := Writable(db.WithContext(ctx).Model(&models.Adoption{}), actor)
	if f.RelicID != nil {
		q = q.Where("relic_id = ?", *f.RelicID)
	}
	if f.Paid != nil {
		q = q.Where("payment_status = ?", *f.Paid)
	}
	return paginate[models.Adoption](q, p, "adoption_date DESC, id DESC", "Relic", "PreviousOwner", "NewOwner")
}
