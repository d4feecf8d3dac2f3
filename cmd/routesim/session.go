package main

import (
	"fmt"
	"os"

	"github.com/routesim/routesim/internal/scenario"
)

// loadSession reads the session file, returning a fresh empty scenario if
// it does not yet exist.
func loadSession() (*scenario.Scenario, error) {
	if _, err := os.Stat(app.sessionPath); os.IsNotExist(err) {
		return &scenario.Scenario{Name: "session"}, nil
	}
	return scenario.Load(app.sessionPath)
}

// withSession loads the session, lets mutate modify it in place, validates
// the result by building it (discarding the network), and — only if that
// succeeds — persists it back to the session file. This keeps the session
// file from ever holding a scenario that fails to build.
func withSession(mutate func(s *scenario.Scenario) error) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	if err := mutate(s); err != nil {
		return err
	}
	if _, err := scenario.Build(s); err != nil {
		return fmt.Errorf("session would no longer build: %w", err)
	}
	return scenario.Save(app.sessionPath, s)
}

func hasRouter(s *scenario.Scenario, name string) bool {
	for _, r := range s.Routers {
		if r.Name == name {
			return true
		}
	}
	for _, r := range s.ExternalRouters {
		if r.Name == name {
			return true
		}
	}
	return false
}
