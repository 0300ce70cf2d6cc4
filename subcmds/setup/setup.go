// Copyright (c) 2025 BVK Chaitanya

// Package setup implements the subcommands that write exchange and
// notification credentials into the secrets file.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/admrply/dca-crypto/server"
	"golang.org/x/term"
)

func resolveDataDir(dataDir string) (string, error) {
	if len(dataDir) == 0 {
		dataDir = filepath.Join(os.Getenv("HOME"), ".dcabot")
	}
	if _, err := os.Stat(dataDir); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("could not stat data directory %q: %w", dataDir, err)
		}
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return "", fmt.Errorf("could not create data directory %q: %w", dataDir, err)
		}
	}
	return filepath.Abs(dataDir)
}

// loadSecrets reads the existing secrets file if one exists, so configuring
// one service does not erase the others. A missing file is an empty Secrets.
func loadSecrets(dataDir string) (*server.Secrets, string, error) {
	secretsPath := filepath.Join(dataDir, "secrets.json")
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
		return &server.Secrets{}, secretsPath, nil
	}
	secrets := new(server.Secrets)
	if err := json.Unmarshal(data, secrets); err != nil {
		return nil, "", fmt.Errorf("could not parse secrets file %q: %w", secretsPath, err)
	}
	return secrets, secretsPath, nil
}

func saveSecrets(secretsPath string, secrets *server.Secrets) error {
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}

// promptSecret reads a secret from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("could not read secret from terminal: %w", err)
	}
	return string(data), nil
}
