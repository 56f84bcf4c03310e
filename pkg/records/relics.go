package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/database"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const (
	publicIDSize = 12

	// no '_' or '-' so ids survive being embedded in file names
	publicIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type RelicInput struct {
	Name         string
	Description  string
	ObtainedDate *time.Time
	AdoptionFee  bool
}

func (in *RelicInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	var v ValidationError
	if in.Name == "" {
		v.Add("name", "required")
	} else if len(in.Name) > 150 {
		v.Add("name", "must be at most 150 characters")
	}
	if len(in.Description) > 500 {
		v.Add("description", "must be at most 500 characters")
	}
	if in.ObtainedDate != nil && in.ObtainedDate.After(time.Now()) {
		v.Add("obtained_date", "cannot be in the future")
	}
	return v.Err()
}

// NewImage is an already stored upload waiting to be attached to a relic.
type NewImage struct {
	StorePath   string
	ContentType string
	Width       int
	Height      int
	Size        int64
	Main        bool
}

// NewPublicID returns a short url safe identifier for a relic.
func NewPublicID() (string, error) {
	return gonanoid.Generate(publicIDAlphabet, publicIDSize)
}

// CreateRelic stores a relic owned by the actor's client together with its
// images. The client is provisioned on the same transaction when missing.
func CreateRelic(ctx context.Context, db *gorm.DB, actor *models.User, in RelicInput, images []NewImage) (*models.Relic, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrImageRequired
	}
	publicID, err := NewPublicID()
	if err != nil {
		return nil, fmt.Errorf("public id: %w", err)
	}

	var relic models.Relic
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := EnsureClient(ctx, tx, actor)
		if err != nil {
			return err
		}
		relic = models.Relic{
			PublicID:     publicID,
			Name:         in.Name,
			Description:  in.Description,
			ObtainedDate: in.ObtainedDate,
			AdoptionFee:  in.AdoptionFee,
			ClientID:     owner.ID,
			CreatedByID:  actor.ID,
		}
		if err := tx.Create(&relic).Error; err != nil {
			return fmt.Errorf("create relic: %w", err)
		}
		if err := insertImages(tx, relic.ID, images, 0); err != nil {
			return err
		}
		if err := NormalizeMainImage(tx, relic.ID); err != nil {
			return err
		}
		return touchClients(tx, owner.ID)
	})
	if err != nil {
		return nil, err
	}
	return GetRelic(ctx, db, actor, relic.ID)
}

// UpdateRelic edits relic attributes and appends images. The owner only
// changes through an adoption.
func UpdateRelic(ctx context.Context, db *gorm.DB, actor *models.User, id uint, in RelicInput, images []NewImage) (*models.Relic, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		relic, err := first[models.Relic](Writable(tx, actor), id)
		if err != nil {
			return err
		}
		relic.Name, relic.Description, relic.ObtainedDate, relic.AdoptionFee = in.Name, in.Description, in.ObtainedDate, in.AdoptionFee
		err = tx.Model(relic).Select("name", "description", "obtained_date", "adoption_fee", "updated_at").Updates(relic).Error
		if err != nil {
			return fmt.Errorf("update relic: %w", err)
		}
		if err := appendImages(tx, relic.ID, images); err != nil {
			return err
		}
		return touchClients(tx, relic.ClientID)
	})
	if err != nil {
		return nil, err
	}
	return GetRelic(ctx, db, actor, id)
}

// AddRelicImages attaches stored uploads to a relic the actor may change.
// An incoming image flagged main takes over from the current main image.
func AddRelicImages(ctx context.Context, db *gorm.DB, actor *models.User, relicID uint, images []NewImage) ([]models.RelicImage, error) {
	if len(images) == 0 {
		return nil, ErrImageRequired
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		relic, err := first[models.Relic](Writable(tx, actor), relicID)
		if err != nil {
			return err
		}
		if err := appendImages(tx, relic.ID, images); err != nil {
			return err
		}
		return touchClients(tx, relic.ClientID)
	})
	if err != nil {
		return nil, err
	}
	return relicImages(db.WithContext(ctx), relicID)
}

func appendImages(tx *gorm.DB, relicID uint, images []NewImage) error {
	if len(images) == 0 {
		return nil
	}
	for _, img := range images {
		if img.Main {
			err := tx.Model(&models.RelicImage{}).Where("relic_id = ?", relicID).Update("is_main", false).Error
			if err != nil {
				return err
			}
			break
		}
	}
	var next int
	err := tx.Model(&models.RelicImage{}).Where("relic_id = ?", relicID).
		Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error
	if err != nil {
		return err
	}
	if err := insertImages(tx, relicID, images, next); err != nil {
		return err
	}
	return NormalizeMainImage(tx, relicID)
}

func insertImages(tx *gorm.DB, relicID uint, images []NewImage, startPos int) error {
	rows := make([]models.RelicImage, 0, len(images))
	for i, img := range images {
		rows = append(rows, models.RelicImage{
			RelicID:     relicID,
			StorePath:   img.StorePath,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			Size:        img.Size,
			Position:    startPos + i,
			IsMain:      img.Main,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("create relic images: %w", err)
	}
	return nil
}

// NormalizeMainImage leaves exactly one main image on a relic with images:
// the first flagged one by position, or the first image when none is.
func NormalizeMainImage(tx *gorm.DB, relicID uint) error {
	imgs, err := relicImages(tx, relicID)
	if err != nil {
		return err
	}
	if len(imgs) == 0 {
		return nil
	}
	keep := imgs[0].ID
	for _, img := range imgs {
		if img.IsMain {
			keep = img.ID
			break
		}
	}
	err = tx.Model(&models.RelicImage{}).
		Where("relic_id = ? AND id <> ? AND is_main = ?", relicID, keep, true).
		Update("is_main", false).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.RelicImage{}).Where("id = ?", keep).Update("is_main", true).Error
}

func relicImages(tx *gorm.DB, relicID uint) ([]models.RelicImage, error) {
	var imgs []models.RelicImage
	err := tx.Where("relic_id = ?", relicID).Order("position, id").Find(&imgs).Error
	return imgs, err
}

// imageWithRelic loads an image whose relic the actor may change.
func imageWithRelic(tx *gorm.DB, actor *models.User, imageID uint) (*models.RelicImage, *models.Relic, error) {
	img, err := first[models.RelicImage](tx, imageID)
	if err != nil {
		return nil, nil, err
	}
	relic, err := first[models.Relic](Writable(tx, actor), img.RelicID)
	if err != nil {
		return nil, nil, err
	}
	return img, relic, nil
}

// SetMainImage flags one image as main and clears the flag on its siblings.
func SetMainImage(ctx context.Context, db *gorm.DB, actor *models.User, imageID uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, relic, err := imageWithRelic(tx, actor, imageID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.RelicImage{}).Where("relic_id = ?", img.RelicID).Update("is_main", false).Error; err != nil {
			return err
		}
		if err := tx.Model(img).Update("is_main", true).Error; err != nil {
			return err
		}
		return touchClients(tx, relic.ClientID)
	})
}

// DeleteRelicImage removes one image and returns its store path. The last
// image of a relic cannot be removed.
func DeleteRelicImage(ctx context.Context, db *gorm.DB, actor *models.User, imageID uint) (string, error) {
	var path string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, relic, err := imageWithRelic(tx, actor, imageID)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.RelicImage{}).Where("relic_id = ?", relic.ID).Count(&n).Error; err != nil {
			return err
		}
		if n <= 1 {
			return ErrImageRequired
		}
		if err := tx.Delete(img).Error; err != nil {
			return err
		}
		path = img.StorePath
		if err := NormalizeMainImage(tx, relic.ID); err != nil {
			return err
		}
		return touchClients(tx, relic.ClientID)
	})
	return path, err
}

// DeleteRelic removes a relic without adoption history together with its
// images and returns the store paths of the removed images.
func DeleteRelic(ctx context.Context, db *gorm.DB, actor *models.User, id uint) ([]string, error) {
	var paths []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		relic, err := first[models.Relic](Writable(tx, actor), id)
		if err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.Adoption{}).Where("relic_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
		imgs, err := relicImages(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("relic_id = ?", id).Delete(&models.RelicImage{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(relic).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrInUse
			}
			return err
		}
		for _, img := range imgs {
			paths = append(paths, img.StorePath)
		}
		return touchClients(tx, relic.ClientID)
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func GetRelic(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.Relic, error) {
	q := Readable(db.WithContext(ctx), actor).
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, id") }).
		Preload("Client")
	return first[models.Relic](q, id)
}

// GetRelicByPublicID loads a relic regardless of the actor.
func GetRelicByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*models.Relic, error) {
	var relic models.Relic
	err := db.WithContext(ctx).Where("public_id = ?", publicID).First(&relic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &relic, nil
}

type RelicFilter struct {
	Name           string
	Description    string
	AdoptionFee    *bool
	ObtainedAfter  *time.Time
	ObtainedBefore *time.Time
	ClientID       *uint
	CreatedBy      *uint
}

func ListRelics(ctx context.Context, db *gorm.DB, actor *models.User, f RelicFilter, p Page) (*List[models.Relic], error) {
	q := Readable(db.WithContext(ctx).Model(&models.Relic{}), actor)
	q = contains(q, "name", f.Name)
	q = contains(q, "description", f.Description)
	q = dateRange(q, "obtained_date", f.ObtainedAfter, f.ObtainedBefore)
	if f.AdoptionFee != nil {
		q = q.Where("adoption_fee = ?", *f.AdoptionFee)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.CreatedBy != nil {
		q = q.Where("created_by_id = ?", *f.CreatedBy)
	}
	return paginate[models.Relic](q, p, "created_at DESC, id DESC", "Client", "Images")
}
