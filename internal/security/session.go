package security

import (
	"github.com/google/uuid"
)

// GenerateSessionToken creates the opaque external handle for a game session
func GenerateSessionToken() string {
	return uuid.New().String()
}
