package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier, prefixed with kind when given
func GenerateID(kind string) string {
	if kind == "" {
		return uuid.NewString()
	}
	return kind + "-" + uuid.NewString()
}
