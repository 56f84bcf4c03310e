package records

import (
	"context"
	"fmt"
	"strings"

	"adoptm3/models"

	"gorm.io/gorm"
)

type StateInput struct {
	Name string
	UF   string
}

func (in *StateInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.UF = strings.ToUpper(strings.TrimSpace(in.UF))
	var v ValidationError
	if in.Name == "" {
		v.Add("name", "required")
	}
	if len(in.UF) != 2 {
		v.Add("uf", "must have 2 letters")
	}
	return v.Err()
}

func CreateState(ctx context.Context, db *gorm.DB, actor *models.User, in StateInput) (*models.State, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	s := models.State{Name: in.Name, UF: in.UF, CreatedByID: actor.ID}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, fmt.Errorf("create state: %w", err)
	}
	return &s, nil
}

func UpdateState(ctx context.Context, db *gorm.DB, actor *models.User, id uint, in StateInput) (*models.State, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	s, err := GetWritable[models.State](ctx, db, actor, id)
	if err != nil {
		return nil, err
	}
	s.Name, s.UF = in.Name, in.UF
	if err := db.WithContext(ctx).Model(s).Select("name", "uf").Updates(s).Error; err != nil {
		return nil, fmt.Errorf("update state: %w", err)
	}
	return s, nil
}

func DeleteState(ctx context.Context, db *gorm.DB, actor *models.User, id uint) error {
	return deleteWritable[models.State](ctx, db, actor, id)
}

func GetState(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.State, error) {
	return first[models.State](Readable(db.WithContext(ctx), actor), id)
}

func ListStates(ctx context.Context, db *gorm.DB, actor *models.User, name string, p Page) (*List[models.State], error) {
	q := Readable(db.WithContext(ctx).Model(&models.State{}), actor)
	q = contains(q, "name", name)
	return paginate[models.State](q, p, "name")
}

type CityInput struct {
	Name    string
	StateID uint
}

func (in *CityInput) validate(tx *gorm.DB) error {
	in.Name = strings.TrimSpace(in.Name)
	var v ValidationError
	if in.Name == "" {
		v.Add("name", "required")
	}
	if ok, err := exists[models.State](tx, in.StateID); err != nil {
		return err
	} else if !ok {
		v.Add("state_id", "unknown state")
	}
	return v.Err()
}

func CreateCity(ctx context.Context, db *gorm.DB, actor *models.User, in CityInput) (*models.City, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	tx := db.WithContext(ctx)
	if err := in.validate(tx); err != nil {
		return nil, err
	}
	c := models.City{Name: in.Name, StateID: in.StateID, CreatedByID: actor.ID}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create city: %w", err)
	}
	return &c, nil
}

func UpdateCity(ctx context.Context, db *gorm.DB, actor *models.User, id uint, in CityInput) (*models.City, error) {
	tx := db.WithContext(ctx)
	c, err := GetWritable[models.City](ctx, db, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(tx); err != nil {
		return nil, err
	}
	c.Name, c.StateID = in.Name, in.StateID
	if err := tx.Model(c).Select("name", "state_id").Updates(c).Error; err != nil {
		return nil, fmt.Errorf("update city: %w", err)
	}
	return c, nil
}

func DeleteCity(ctx context.Context, db *gorm.DB, actor *models.User, id uint) error {
	return deleteWritable[models.City](ctx, db, actor, id)
}

func GetCity(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.City, error) {
	return first[models.City](Readable(db.WithContext(ctx), actor).Preload("State"), id)
}

func ListCities(ctx context.Context, db *gorm.DB, actor *models.User, name string, stateID *uint, p Page) (*List[models.City], error) {
	q := Readable(db.WithContext(ctx).Model(&models.City{}), actor)
	q = contains(q, "name", name)
	if stateID != nil {
		q = q.Where("state_id = ?", *stateID)
	}
	return paginate[models.City](q, p, "name", "State")
}

type AddressInput struct {
	Street       string
	Number       int
	Neighborhood string
	Complement   string
	CityID       uint
}

func (in *AddressInput) validate(tx *gorm.DB) error {
	in.Street = strings.TrimSpace(in.Street)
	in.Neighborhood = strings.TrimSpace(in.Neighborhood)
	in.Complement = strings.TrimSpace(in.Complement)
	var v ValidationError
	if in.Street == "" {
		v.Add("street", "required")
	}
	if in.Number < 0 {
		v.Add("number", "must not be negative")
	}
	if in.Neighborhood == "" {
		v.Add("neighborhood", "required")
	}
	if ok, err := exists[models.City](tx, in.CityID); err != nil {
		return err
	} else if !ok {
		v.Add("city_id", "unknown city")
	}
	return v.Err()
}

func CreateAddress(ctx context.Context, db *gorm.DB, actor *models.User, in AddressInput) (*models.Address, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	tx := db.WithContext(ctx)
	if err := in.validate(tx); err != nil {
		return nil, err
	}
	a := models.Address{
		Street:       in.Street,
		Number:       in.Number,
		Neighborhood: in.Neighborhood,
		Complement:   in.Complement,
		CityID:       in.CityID,
		CreatedByID:  actor.ID,
	}
	if err := tx.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return &a, nil
}

func UpdateAddress(ctx context.Context, db *gorm.DB, actor *models.User, id uint, in AddressInput) (*models.Address, error) {
	tx := db.WithContext(ctx)
	a, err := GetWritable[models.Address](ctx, db, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(tx); err != nil {
		return nil, err
	}
	a.Street, a.Number, a.Neighborhood, a.Complement, a.CityID = in.Street, in.Number, in.Neighborhood, in.Complement, in.CityID
	if err := tx.Model(a).Select("street", "number", "neighborhood", "complement", "city_id").Updates(a).Error; err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

func DeleteAddress(ctx context.Context, db *gorm.DB, actor *models.User, id uint) error {
	return deleteWritable[models.Address](ctx, db, actor, id)
}

func GetAddress(ctx context.Context, db *gorm.DB, actor *models.User, id uint) (*models.Address, error) {
	return first[models.Address](Readable(db.WithContext(ctx), actor).Preload("City.State"), id)
}

func ListAddresses(ctx context.Context, db *gorm.DB, actor *models.User, street string, cityID *uint, p Page) (*List[models.Address], error) {
	q := Readable(db.WithContext(ctx).Model(&models.Address{}), actor)
	q = contains(q, "street", street)
	if cityID != nil {
		q = q.Where("city_id = ?", *cityID)
	}
	return paginate[models.Address](q, p, "street, number", "City")
}
