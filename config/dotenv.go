package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvFiles are read, in order, when --env-file is not given:
// ~/.nanobanana.env, then ./.env. Missing files are skipped.
func DefaultEnvFiles() []string {
	var files []string
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".nanobanana.env"))
	}
	return append(files, ".env")
}

// LoadEnvFiles reads KEY=value files and exports their entries into the
// process environment. Variables that are already set are never
// overridden, and earlier files win over later ones. Missing files are
// skipped; malformed files are an error.
//
// It returns the names of the variables it set.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var set []string

	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}

		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			return set, fmt.Errorf("failed to read env file %s: %w", path, err)
		}

		for _, key := range v.AllKeys() {
			// viper lower-cases keys; environment names are upper case by convention
			name := strings.ToUpper(key)
			if _, exists := os.LookupEnv(name); exists {
				continue
			}
			if err := os.Setenv(name, v.GetString(key)); err != nil {
				return set, fmt.Errorf("failed to set %s: %w", name, err)
			}
			set = append(set, name)
		}
	}

	return set, nil
}
