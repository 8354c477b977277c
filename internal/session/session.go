// Package session stores import sessions between requests.
//
// Sessions are kept as encoded JSON in both backends so a loaded session is
// always an independent copy: mutating it never affects the stored state
// until it is saved again.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/eleitores/internal/core"
)

// Backends selectable through SESSION_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func encode(s *core.ImportSession) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*core.ImportSession, error) {
	var s core.ImportSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
