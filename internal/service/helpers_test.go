package service

import (
	"github.com/shopbench/shopbench/internal/testutil"
)

// newTestServiceParams wires the suite's in-memory stores and mocks
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		stores.TenantRepo,
		stores.LocationRepo,
		stores.SubRepo,
		stores.InvoiceRepo,
		stores.InventoryRepo,
		stores.TransferRepo,
		stores.IntegrationRepo,
		s.GetIntegrationFactory(),
		s.GetEncryptionService(),
		s.GetNotifier(),
	)
}
