// Package models holds the gorm models of the relic records service.
package models

// All lists every model in migration order: referenced tables first.
func All() []any {
	return []any{
		&Role{}, &User{}, &RefreshToken{},
		&State{}, &City{}, &Address{}, &Client{},
		&Relic{}, &RelicImage{}, &Adoption{}, &AdoptionRelic{},
	}
}
