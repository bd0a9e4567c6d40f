package tenant

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Key format: bk_{64 hex chars}
const (
	APIKeyPrefix   = "bk_"
	apiKeyByteSize = 32
)

var apiKeyFormat = regexp.MustCompile(`^bk_[0-9a-f]{64}$`)

// GenerateAPIKey returns a new tenant API key.
func GenerateAPIKey() (string, error) {
	b := make([]byte, apiKeyByteSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// ValidAPIKeyFormat checks the key shape without touching the store.
func ValidAPIKeyFormat(key string) bool {
	return apiKeyFormat.MatchString(key)
}
