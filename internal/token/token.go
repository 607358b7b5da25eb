package token

import (
	"github.com/google/uuid"
)

// Capability represents a single access token capability
type Capability uint

const (
	CapabilityReadKeys Capability = 1 << iota
	CapabilityWriteKeys
	CapabilityManageTokens
)

// Capabilities represents the container of access token capabilities.
// It provides methods Has, With and Without to check, set and unset certain capabilities.
type Capabilities uint

// EmptyCapabilities provides a capability container with no capabilities set
const EmptyCapabilities Capabilities = 0

// AllCapabilities provides a capability container with every capability set
const AllCapabilities = EmptyCapabilities | Capabilities(CapabilityReadKeys) |
	Capabilities(CapabilityWriteKeys) | Capabilities(CapabilityManageTokens)

// Has checks if the capability container has all the given capabilities set
func (cur Capabilities) Has(caps ...Capability) bool {
	for _, capability := range caps {
		if uint(cur)&uint(capability) == 0 {
			return false
		}
	}
	return true
}

// With returns a new capability container with all given and current capabilities set
func (cur Capabilities) With(caps ...Capability) Capabilities {
	val := uint(cur)
	for _, capability := range caps {
		val |= uint(capability)
	}
	return Capabilities(val)
}

// Without returns a new capability container with the current and without the given capabilities set
func (cur Capabilities) Without(caps ...Capability) Capabilities {
	val := uint(cur)
	for _, capability := range caps {
		val &= ^uint(capability)
	}
	return Capabilities(val)
}

// Token represents an access token used to authenticate against the KV API.
// The raw secret itself is only handed out once on creation; only its hash is stored.
type Token struct {
	ID           uuid.UUID    `json:"id"`
	Hash         string       `json:"-"`
	Capabilities Capabilities `json:"capabilities"`
	Expires      int64        `json:"expires"`
}

// Expiring reports whether the token expires at all (a zero expiry means it never does)
func (token *Token) Expiring() bool {
	return token.Expires != 0
}
