// Package checkpointer saves and restores learned model parameters
// through their gob encodings
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Serializable is any model that can convert its learned parameters to
// and from a gob byte stream
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Filename returns the checkpoint filename of a named model belonging
// to the given problem case
func Filename(dir, caseName, model string) string {
	return filepath.Join(dir, caseName+model+".model")
}

// Save encodes the model and writes it to path, creating the parent
// directory if needed
func Save(path string, model Serializable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: could not create model directory: %v", err)
	}

	data, err := model.GobEncode()
	if err != nil {
		return fmt.Errorf("save: could not encode model: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: could not write model file: %v", err)
	}
	return nil
}

// Load reads the file at path and decodes it into the model, replacing
// the model's parameters
func Load(path string, model Serializable) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load: could not read model file: %v", err)
	}
	if err := model.GobDecode(data); err != nil {
		return fmt.Errorf("load: could not decode model: %v", err)
	}
	return nil
}

// Exists reports whether a checkpoint file exists at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
