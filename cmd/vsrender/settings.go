package main

import (
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/store"
)

// settings are store values read from a TOML file. Each top level key is a
// store key:
//
//	background = "#101010"
//	color_field = "cluster"
//	camera_position = [3, 3, 3]
//	show_connections = true
//	k_neighbors = 2
//
//	[shape_map]
//	a = "cube"
type settings struct {
	Values  map[string]any
	Unknown []string
}

func loadSettings(path string) (settings, error) {
	values := make(map[string]any)
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return settings{}, errors.New("decoding settings failed").
			WithTag("path", path).
			Wrap(err)
	}
	return newSettings(values), nil
}

func decodeSettings(s string) (settings, error) {
	values := make(map[string]any)
	if _, err := toml.Decode(s, &values); err != nil {
		return settings{}, errors.New("decoding settings failed").Wrap(err)
	}
	return newSettings(values), nil
}

func newSettings(values map[string]any) settings {
	var s settings
	s.Values = make(map[string]any, len(values))

	for k, v := range values {
		if !slices.Contains(store.Keys, k) {
			s.Unknown = append(s.Unknown, k)
			continue
		}
		s.Values[k] = v
	}
	slices.Sort(s.Unknown)
	return s
}

// Changes returns the settings as store changes. Points are excluded, they
// come from the points file.
func (s settings) Changes() []store.Change {
	values := make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		if k == store.KeyPoints {
			continue
		}
		values[k] = v
	}
	return store.ChangesFrom(values, store.OriginHost)
}
