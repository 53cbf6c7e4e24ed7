// Package source loads point files and keeps sessions in sync with them.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/models"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

const (
	ErrTypeUnknownFormat = "source_unknown_format"
	ErrTypeDecode        = "source_decode"
)

// Target receives the points loaded from a file.
type Target interface {
	SetPoints([]models.Point)
}

// Load reads a .json, .yaml or .yml point file. The file contains either an
// array of records or an object with a points array.
func Load(path string) ([]models.Point, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading point file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return Decode(b, filepath.Ext(path))
}

// Decode parses point records encoded in the format of the given file
// extension.
func Decode(b []byte, ext string) ([]models.Point, error) {
	var v any
	var err error

	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(b, &v)

	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &v)

	default:
		return nil, errors.New("unknown point file format").
			WithType(ErrTypeUnknownFormat).
			WithTag("extension", ext)
	}
	if err != nil {
		return nil, errors.New("decoding point file failed").
			WithType(ErrTypeDecode).
			WithTag("extension", ext).
			Wrap(err)
	}

	if doc, ok := v.(map[string]any); ok {
		v = doc["points"]
	}

	records, ok := v.([]any)
	if !ok {
		return nil, errors.New("point file does not contain a list of points").
			WithType(ErrTypeDecode).
			WithTag("extension", ext)
	}
	return models.ParsePoints(records), nil
}
