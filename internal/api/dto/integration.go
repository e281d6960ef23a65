package dto

import (
	"time"

	"github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
)

type IntegrationCredentialsRequest struct {
	AccessToken string                     `json:"access_token" validate:"required"`
	LocationID  string                     `json:"location_id,omitempty"`
	Environment types.ProcessorEnvironment `json:"environment,omitempty" validate:"omitempty,oneof=sandbox production"`
}

// UpsertIntegrationRequest replaces the tenant's integration of a type.
// Credentials may be omitted to keep the stored ones.
type UpsertIntegrationRequest struct {
	Provider    string                         `json:"provider" validate:"required"`
	Enabled     *bool                          `json:"enabled,omitempty"`
	Credentials *IntegrationCredentialsRequest `json:"credentials,omitempty"`
	Settings    map[string]string              `json:"settings,omitempty"`
}

func (r *UpsertIntegrationRequest) Validate(integrationType types.IntegrationType) error {
	if err := integrationType.Validate(); err != nil {
		return err
	}
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if integrationType == types.IntegrationTypePayment {
		if err := types.PaymentProvider(r.Provider).Validate(); err != nil {
			return err
		}
	}
	if r.Settings != nil {
		if currency, ok := r.Settings[types.IntegrationSettingCurrency]; ok && len(currency) != 3 {
			return ierr.NewError("invalid currency setting").
				WithHint("Currency must be a 3 letter ISO code").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToCredentials converts the request block to the stored credential bundle
func (r *IntegrationCredentialsRequest) ToCredentials() *integration.Credentials {
	env := r.Environment
	if env == "" {
		env = types.ProcessorEnvironmentProduction
	}
	return &integration.Credentials{
		AccessToken: r.AccessToken,
		LocationID:  r.LocationID,
		Environment: env,
	}
}

// IntegrationResponse never carries credentials
type IntegrationResponse struct {
	ID             string                `json:"id"`
	Type           types.IntegrationType `json:"type"`
	Provider       string                `json:"provider"`
	Enabled        bool                  `json:"enabled"`
	HasCredentials bool                  `json:"has_credentials"`
	Settings       types.Metadata        `json:"settings"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func NewIntegrationResponse(i *integration.Integration) *IntegrationResponse {
	return &IntegrationResponse{
		ID:             i.ID,
		Type:           i.Type,
		Provider:       i.Provider,
		Enabled:        i.Enabled,
		HasCredentials: i.EncryptedCredentials != "",
		Settings:       i.Settings,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

type TestConnectionResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider"`
	Message  string `json:"message,omitempty"`
}
