package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jpltour/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the state file. It always returns a usable state: a missing file
// gives the defaults, and malformed content gives the defaults plus an error
// wrapping ErrStateParse that callers should treat as a warning.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Warn("State file not found, using defaults", zap.String("path", path))
		return Default(), nil
	}
	if err != nil {
		logger.Warn("Failed to read state file, using defaults", zap.String("path", path), zap.Error(err))
		return Default(), fmt.Errorf("%w: %v", ErrStateParse, err)
	}

	st := Default()
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(st)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(st)
	}
	if err != nil {
		logger.Warn("Failed to parse state file, using defaults", zap.String("path", path), zap.Error(err))
		return Default(), fmt.Errorf("%w: %s: %v", ErrStateParse, path, err)
	}

	logger.Debug("Loaded state", zap.String("path", path))
	return st, nil
}

// Marshal encodes st as indented JSON, or YAML when path ends in .yaml/.yml.
// Keys keep the State field order.
func Marshal(st *State, path string) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(st)
	}
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes st to path through a temporary file and a rename, so a crash
// never leaves a half-written state file behind.
func Save(path string, st *State) error {
	data, err := Marshal(st, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrStateWrite, err)
	}

	logger.Debug("Saved state", zap.String("path", path))
	return nil
}
