// Package populate fills a database with demo locations, clients, relics
// and adoptions through the same record operations the API uses.
package populate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/records"
	"adoptm3/pkg/storage"

	"gorm.io/gorm"
)

type Options struct {
	Clients int
	Relics  int
	// Clear removes demo data (everything but accounts and their clients) first.
	Clear bool
	// Logins creates accounts for the new clients.
	Logins bool
	Seed   uint64
}

type Stats struct {
	States, Cities, Addresses int
	Clients, Users            int
	Relics, Adoptions         int
}

var places = []struct {
	State, UF string
	Cities    []string
}{
	{"São Paulo", "SP", []string{"São Paulo", "Campinas", "Santos"}},
	{"Rio de Janeiro", "RJ", []string{"Rio de Janeiro", "Niterói", "Petrópolis"}},
	{"Minas Gerais", "MG", []string{"Belo Horizonte", "Ouro Preto", "Diamantina"}},
	{"Bahia", "BA", []string{"Salvador", "Porto Seguro"}},
}

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Heitor", "Isabela", "João"}
	lastNames  = []string{"Silva", "Souza", "Oliveira", "Costa", "Pereira", "Almeida", "Ribeiro", "Carvalho"}
	streets    = []string{"Rua das Flores", "Avenida Brasil", "Rua Direita", "Travessa do Ouvidor", "Rua XV de Novembro"}
	hoods      = []string{"Centro", "Jardim América", "Vila Nova", "Bela Vista"}
	relicKinds = []string{"Amulet", "Chalice", "Music box", "Compass", "Pocket watch", "Oil lamp", "Map", "Figurine"}
	relicAges  = []string{"Colonial", "Imperial", "Baroque", "Art deco", "Victorian"}
)

// Run creates the demo records as actor and returns what was written.
func Run(ctx context.Context, db *gorm.DB, st storage.Store, actor *models.User, opts Options) (*Stats, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	if opts.Clear {
		if err := Clear(ctx, db); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}
	stats := &Stats{}

	addresses, err := seedLocations(ctx, db, actor, rng, stats)
	if err != nil {
		return nil, err
	}

	clientIDs := make([]uint, 0, opts.Clients)
	for i := 0; i < opts.Clients; i++ {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		nick := fmt.Sprintf("%s%d", first, rng.IntN(10000))
		birth := time.Date(1950+rng.IntN(55), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
		addr := addresses[rng.IntN(len(addresses))]
		c, err := records.CreateClient(ctx, db, actor, records.ClientInput{
			Name:      first + " " + last,
			Nickname:  nick,
			Email:     fmt.Sprintf("%s.%d@example.com", nick, i),
			BirthDate: birth,
			AddressID: &addr,
		})
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", i, err)
		}
		clientIDs = append(clientIDs, c.ID)
		stats.Clients++
	}
	if opts.Logins {
		res, err := records.LinkClientsToUsers(ctx, db, true)
		if err != nil {
			return nil, fmt.Errorf("create logins: %w", err)
		}
		stats.Users = res.Created
	}

	for i := 0; i < opts.Relics; i++ {
		images, err := storePlaceholders(ctx, st, rng, 1+rng.IntN(3))
		if err != nil {
			return nil, err
		}
		relic, err := records.CreateRelic(ctx, db, actor, records.RelicInput{
			Name:        relicAges[rng.IntN(len(relicAges))] + " " + relicKinds[rng.IntN(len(relicKinds))],
			Description: "Demo relic",
			AdoptionFee: rng.IntN(2) == 0,
		}, images)
		if err != nil {
			return nil, fmt.Errorf("relic %d: %w", i, err)
		}
		stats.Relics++
		if len(clientIDs) == 0 || rng.IntN(3) == 0 {
			continue
		}
		owner := clientIDs[rng.IntN(len(clientIDs))]
		if _, err := records.CreateAdoption(ctx, db, actor, records.AdoptionInput{
			RelicID:       &relic.ID,
			NewOwnerID:    &owner,
			PaymentStatus: rng.IntN(2) == 0,
		}); err != nil {
			return nil, fmt.Errorf("adopt relic %d: %w", relic.ID, err)
		}
		stats.Adoptions++
	}
	return stats, nil
}

// seedLocations makes sure the demo states and cities exist and adds a few
// addresses per city. It returns the ids of every address it created.
func seedLocations(ctx context.Context, db *gorm.DB, actor *models.User, rng *rand.Rand, stats *Stats) ([]uint, error) {
	var out []uint
	for _, p := range places {
		var state models.State
		err := db.WithContext(ctx).Where("uf = ?", p.UF).First(&state).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			s, err := records.CreateState(ctx, db, actor, records.StateInput{Name: p.State, UF: p.UF})
			if err != nil {
				return nil, fmt.Errorf("state %s: %w", p.UF, err)
			}
			state = *s
			stats.States++
		default:
			return nil, err
		}
		for _, name := range p.Cities {
			city, err := records.CreateCity(ctx, db, actor, records.CityInput{Name: name, StateID: state.ID})
			if err != nil {
				return nil, fmt.Errorf("city %s: %w", name, err)
			}
			stats.Cities++
			for j := 0; j < 2; j++ {
				a, err := records.CreateAddress(ctx, db, actor, records.AddressInput{
					Street:       streets[rng.IntN(len(streets))],
					Number:       1 + rng.IntN(2000),
					Neighborhood: hoods[rng.IntN(len(hoods))],
					CityID:       city.ID,
				})
				if err != nil {
					return nil, fmt.Errorf("address in %s: %w", name, err)
				}
				out = append(out, a.ID)
				stats.Addresses++
			}
		}
	}
	return out, nil
}

func storePlaceholders(ctx context.Context, st storage.Store, rng *rand.Rand, n int) ([]records.NewImage, error) {
	out := make([]records.NewImage, 0, n)
	for i := 0; i < n; i++ {
		w, h := 160+rng.IntN(160), 120+rng.IntN(120)
		data := storage.Placeholder(w, h, [3]uint8{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256))})
		key := storage.NewKey("relics", ".png")
		if err := st.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
			return nil, fmt.Errorf("store placeholder: %w", err)
		}
		out = append(out, records.NewImage{
			StorePath:   key,
			ContentType: "image/png",
			Width:       w,
			Height:      h,
			Size:        int64(len(data)),
			Main:        i == 0,
		})
	}
	return out, nil
}

// Clear deletes adoptions, relics, clients without an account and every
// location. Stored image files are left in place.
func Clear(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func() error{
			func() error { return tx.Where("1 = 1").Delete(&models.AdoptionRelic{}).Error },
			func() error { return tx.Where("1 = 1").Delete(&models.Adoption{}).Error },
			func() error { return tx.Where("1 = 1").Delete(&models.RelicImage{}).Error },
			func() error { return tx.Where("1 = 1").Delete(&models.Relic{}).Error },
			func() error { return tx.Where("user_id IS NULL").Delete(&models.Client{}).Error },
			func() error {
				return tx.Model(&models.Client{}).Where("address_id IS NOT NULL").Update("address_id", nil).Error
			},
			func() error { return tx.Where("1 = 1").Delete(&models.Address{}).Error },
			func() error { return tx.Where("1 = 1").Delete(&models.City{}).Error },
			func() error { return tx.Where("1 = 1").Delete(&models.State{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}
