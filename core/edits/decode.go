package edits

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// DecodeJSON decodes the collaborator's canonical wire format: a JSON
// array of operation records.
func DecodeJSON(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, errors.NewParse("JSON", "", err.Error())
	}
	return ops, nil
}

// DecodeYAML decodes a YAML sequence of operation records. Field names
// match the JSON format.
func DecodeYAML(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := yaml.Unmarshal(data, &ops); err != nil {
		return nil, errors.NewParse("YAML", "", err.Error())
	}
	return ops, nil
}

// Load reads an edits file and decodes it by extension: .json, .yaml/.yml,
// or .edits (the plain-text DSL). All formats normalize to the same
// Operation slice; Load does not validate.
func Load(path string) ([]Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	var ops []Operation
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ops, err = DecodeJSON(data)
	case ".yaml", ".yml":
		ops, err = DecodeYAML(data)
	case ".edits":
		ops, err = DecodeDSL(data)
	default:
		return nil, errors.NewValidation("path",
			"unsupported edits format (want .json, .yaml, .yml, or .edits)")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return ops, nil
}
