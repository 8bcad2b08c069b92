package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateExecutionID creates a unique execution identifier.
// Uses crypto/rand for cryptographically secure random IDs.
// Format: 16 hex characters (8 bytes) for balance between uniqueness and readability.
func GenerateExecutionID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("exec_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// GenerateAutomationID creates a unique automation identifier, matching the
// [A-Za-z0-9_-]+ identifier shape required of user-facing ids.
func GenerateAutomationID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("auto_%d", time.Now().UnixNano())
	}
	return "auto_" + hex.EncodeToString(bytes)
}
