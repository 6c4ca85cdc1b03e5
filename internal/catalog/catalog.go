package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

var (
	ErrEmptyCatalog   = errors.New("catalog is empty")
	ErrNotEnoughItems = errors.New("not enough catalog items")
)

// Location is one entry of the hidden-role catalog: a place and the roles
// handed to the participants who know it.
type Location struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Words is a validated flat word list.
type Words struct {
	items []string
}

func NewWords(items []string) (*Words, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Words{items: items}, nil
}

func LoadWordsFile(path string) (*Words, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	return NewWords(items)
}

func (w *Words) Len() int { return len(w.items) }

// Sample returns n distinct words in a fresh shuffled order. The catalog is
// never mutated, so repeated samples with the same rng are deterministic.
func (w *Words) Sample(rng *rand.Rand, n int) ([]string, error) {
	if n > len(w.items) {
		return nil, fmt.Errorf("%w: need %d of %d", ErrNotEnoughItems, n, len(w.items))
	}
	shuffled := make([]string, len(w.items))
	copy(shuffled, w.items)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], nil
}

// Locations is a validated location+roles catalog.
type Locations struct {
	items []Location
}

func NewLocations(items []Location) (*Locations, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	for _, loc := range items {
		if len(loc.Roles) == 0 {
			return nil, fmt.Errorf("%w: location %q has no roles", ErrNotEnoughItems, loc.Name)
		}
	}
	return &Locations{items: items}, nil
}

func LoadLocationsFile(path string) (*Locations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location catalog: %w", err)
	}
	var items []Location
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse location catalog %s: %w", path, err)
	}
	return NewLocations(items)
}

func (l *Locations) Len() int { return len(l.items) }

func (l *Locations) Pick(rng *rand.Rand) Location {
	return l.items[rng.Intn(len(l.items))]
}
