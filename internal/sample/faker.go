//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sample

import (
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

const idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Faker provides fake music catalog and listener data using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// ID returns prefix followed by upper-case alphanumerics, the shape of the
// Million Song Dataset identifiers (e.g. SOMZWCG12A8C13C480).
func (f *Faker) ID(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < n; i++ {
		b.WriteByte(idCharset[f.faker.IntRange(0, len(idCharset)-1)])
	}
	return b.String()
}

// ArtistName generates a random artist name.
func (f *Faker) ArtistName() string {
	if f.Bool() {
		return f.faker.Name()
	}
	return f.faker.Company()
}

// SongTitle generates a random song title.
func (f *Faker) SongTitle() string {
	return strings.TrimSuffix(f.faker.Sentence(f.Int(1, 4)), ".")
}

// FirstName generates a random first name.
func (f *Faker) FirstName() string {
	return f.faker.FirstName()
}

// LastName generates a random last name.
func (f *Faker) LastName() string {
	return f.faker.LastName()
}

// Gender returns M or F.
func (f *Faker) Gender() string {
	if f.Bool() {
		return "M"
	}
	return "F"
}

// Location generates a "City, ST" location.
func (f *Faker) Location() string {
	return f.faker.City() + ", " + f.faker.StateAbr()
}

// UserAgent generates a browser user agent string.
func (f *Faker) UserAgent() string {
	return f.faker.UserAgent()
}

// Latitude generates a random latitude with five decimals.
func (f *Faker) Latitude() float64 {
	return Round5(f.faker.Latitude())
}

// Longitude generates a random longitude with five decimals.
func (f *Faker) Longitude() float64 {
	return Round5(f.faker.Longitude())
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Bool generates a random boolean.
func (f *Faker) Bool() bool {
	return f.faker.Bool()
}

// Chance reports true with probability p.
func (f *Faker) Chance(p float64) bool {
	return f.Float64(0, 1) < p
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Round5 rounds v to five decimal places, the precision of the song
// catalog's durations and coordinates.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
