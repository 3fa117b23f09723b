package main

import (
	"errors"
	"fmt"
	"io/fs"
	"social-chat/internal"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// loadConfig reads .env when present, the process environment wins.
func loadConfig() (internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return internal.Config{}, fmt.Errorf("reading .env: %w", err)
	}

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return internal.Config{}, fmt.Errorf("config error: %w", err)
	}
	if _, err := internal.CharacterRune(config.CharReplacement); err != nil {
		return internal.Config{}, err
	}
	return config, nil
}
