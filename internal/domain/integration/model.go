package integration

import (
	"github.com/shopbench/shopbench/internal/types"
)

// Integration is a tenant's connection to a third party. Credentials are
// stored encrypted and only decrypted when a provider is resolved.
type Integration struct {
	ID                   string                `db:"id" json:"id"`
	Type                 types.IntegrationType `db:"integration_type" json:"type"`
	Provider             string                `db:"provider" json:"provider"`
	Enabled              bool                  `db:"enabled" json:"enabled"`
	EncryptedCredentials string                `db:"encrypted_credentials" json:"-"`
	Settings             types.Metadata        `db:"settings" json:"settings"`

	types.BaseModel
}

// Credentials is the decrypted credential bundle of a payment integration.
// LocationID is the processor-side billing location handle.
type Credentials struct {
	AccessToken string                     `json:"access_token"`
	LocationID  string                     `json:"location_id,omitempty"`
	Environment types.ProcessorEnvironment `json:"environment,omitempty"`
}
