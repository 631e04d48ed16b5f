package profile

import (
	"errors"
	"fmt"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a driver's seat setup.
type Profile struct {
	Name     string `mapstructure:"name"`
	Position int    `mapstructure:"position"`
	Tilt     int    `mapstructure:"tilt"`
	Height   int    `mapstructure:"height"`
}

// Values returns the seat parameters in actuation order.
func (p Profile) Values() [3]int {
	return [3]int{p.Position, p.Tilt, p.Height}
}

// Store is an ordered, read-only set of profiles keyed by driver name.
type Store struct {
	profiles []Profile
	index    map[string]int
}

func NewStore(profiles ...Profile) (*Store, error) {
	s := &Store{
		profiles: make([]Profile, 0, len(profiles)),
		index:    make(map[string]int, len(profiles)),
	}

	for _, p := range profiles {
		if p.Name == "" {
			return nil, errors.New("profile with empty name")
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		s.index[p.Name] = len(s.profiles)
		s.profiles = append(s.profiles, p)
	}

	return s, nil
}

// Defaults is the factory profile table.
func Defaults() []Profile {
	return []Profile{
		{Name: "Dario", Position: 550, Tilt: 550, Height: 250},
		{Name: "Vito", Position: 520, Tilt: 30, Height: 15},
		{Name: "Antonio", Position: 530, Tilt: 650, Height: 250},
		{Name: "Mattia", Position: 350, Tilt: 450, Height: 150},
	}
}

// Lookup matches the name exactly.
func (s *Store) Lookup(name string) (Profile, error) {
	i, ok := s.index[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return s.profiles[i], nil
}

// All returns a copy of the profiles in configured order.
func (s *Store) All() []Profile {
	return append([]Profile(nil), s.profiles...)
}

func (s *Store) Names() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

func (s *Store) Len() int { return len(s.profiles) }
