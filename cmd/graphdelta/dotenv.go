// ABOUTME: Loads GRAPHDELTA_* settings and other variables from a .env file at startup.
// ABOUTME: Sets variables only when not already present in the environment (no clobber).
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// loadDotEnv reads a .env file and sets any variables not already in the
// environment, returning how many it set. A missing file is not an error.
// Supports KEY=VALUE, KEY="VALUE", KEY='VALUE', export KEY=VALUE, and # comments.
func loadDotEnv(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	set := 0
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return set, fmt.Errorf("%s:%d: expected KEY=VALUE", path, n)
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return set, fmt.Errorf("%s:%d: %w", path, n, err)
			}
			set++
		}
	}
	return set, scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// loadDotEnvAuto loads .env from the working directory and then from dir
// (normally the config file's directory), skipping duplicates.
func loadDotEnvAuto(dir string) (int, error) {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ".env"))
	}
	if dir != "" {
		p, err := filepath.Abs(filepath.Join(dir, ".env"))
		if err == nil && (len(paths) == 0 || p != paths[0]) {
			paths = append(paths, p)
		}
	}

	total := 0
	for _, p := range paths {
		n, err := loadDotEnv(p)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
