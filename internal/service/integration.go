package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	domainIntegration "github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// IntegrationService manages a tenant's third party credentials
type IntegrationService interface {
	GetIntegration(ctx context.Context, integrationType types.IntegrationType) (*dto.IntegrationResponse, error)
	UpsertIntegration(ctx context.Context, integrationType types.IntegrationType, req *dto.UpsertIntegrationRequest) (*dto.IntegrationResponse, error)
	// TestConnection builds a provider from the stored credentials and calls the processor
	TestConnection(ctx context.Context, integrationType types.IntegrationType) (*dto.TestConnectionResponse, error)
}

type integrationService struct {
	ServiceParams
}

func NewIntegrationService(params ServiceParams) IntegrationService {
	return &integrationService{
		ServiceParams: params,
	}
}

func (s *integrationService) GetIntegration(ctx context.Context, integrationType types.IntegrationType) (*dto.IntegrationResponse, error) {
	if err := integrationType.Validate(); err != nil {
		return nil, err
	}

	conn, err := s.IntegrationRepo.Get(ctx, integrationType)
	if err != nil {
		return nil, err
	}
	return dto.NewIntegrationResponse(conn), nil
}

func (s *integrationService) UpsertIntegration(ctx context.Context, integrationType types.IntegrationType, req *dto.UpsertIntegrationRequest) (*dto.IntegrationResponse, error) {
	if err := req.Validate(integrationType); err != nil {
		return nil, err
	}

	existing, err := s.IntegrationRepo.Get(ctx, integrationType)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	conn := &domainIntegration.Integration{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INTEGRATION),
		Type:      integrationType,
		Provider:  req.Provider,
		Enabled:   lo.FromPtrOr(req.Enabled, true),
		Settings:  types.Metadata(req.Settings),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if conn.Settings == nil {
		conn.Settings = types.Metadata{}
	}

	switch {
	case req.Credentials != nil:
		encrypted, err := s.EncryptionService.EncryptJSON(req.Credentials.ToCredentials())
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to store integration credentials").
				Mark(ierr.ErrSystem)
		}
		conn.EncryptedCredentials = encrypted
	case existing != nil && existing.Provider == req.Provider:
		conn.EncryptedCredentials = existing.EncryptedCredentials
	default:
		return nil, ierr.NewError("credentials are required").
			WithHintf("Credentials are required to connect %s", req.Provider).
			Mark(ierr.ErrValidation)
	}

	if err := s.IntegrationRepo.Upsert(ctx, conn); err != nil {
		return nil, err
	}

	if integrationType == types.IntegrationTypePayment {
		s.IntegrationFactory.InvalidatePaymentProvider(ctx)
	}

	s.Logger.Infow("integration saved",
		"tenant_id", types.GetTenantID(ctx),
		"type", integrationType,
		"provider", req.Provider,
		"enabled", conn.Enabled,
		"credentials_updated", req.Credentials != nil)

	return s.GetIntegration(ctx, integrationType)
}

func (s *integrationService) TestConnection(ctx context.Context, integrationType types.IntegrationType) (*dto.TestConnectionResponse, error) {
	if integrationType != types.IntegrationTypePayment {
		return nil, ierr.NewErrorf("connection test not supported for %s", integrationType).
			WithHint("Only payment integrations can be tested").
			Mark(ierr.ErrValidation)
	}

	conn, err := s.IntegrationRepo.Get(ctx, integrationType)
	if err != nil {
		return nil, err
	}

	resp := &dto.TestConnectionResponse{Provider: conn.Provider}

	var creds domainIntegration.Credentials
	if err := s.EncryptionService.DecryptJSON(conn.EncryptedCredentials, &creds); err != nil {
		resp.Message = "Stored credentials could not be read"
		return resp, nil
	}

	provider, err := s.IntegrationFactory.BuildPaymentProvider(types.PaymentProvider(conn.Provider), &creds)
	if err != nil {
		resp.Message = connectionErrorMessage(err)
		return resp, nil
	}

	if err := provider.TestConnection(ctx); err != nil {
		s.Logger.Warnw("integration connection test failed",
			"tenant_id", types.GetTenantID(ctx),
			"provider", conn.Provider,
			"error", err)
		resp.Message = connectionErrorMessage(err)
		return resp, nil
	}

	resp.Success = true
	resp.Message = "Connection successful"
	return resp, nil
}

func connectionErrorMessage(err error) string {
	if msg := ierr.DisplayMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}
