package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/inventory"
	"github.com/shopbench/shopbench/internal/domain/location"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/testutil"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stretchr/testify/suite"
)

type InventoryTransferServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InventoryTransferService
	testData struct {
		from   *location.Location
		to     *location.Location
		screen *inventory.Item
	}
}

func TestInventoryTransferService(t *testing.T) {
	suite.Run(t, new(InventoryTransferServiceSuite))
}

func (s *InventoryTransferServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInventoryTransferService(newTestServiceParams(&s.BaseServiceTestSuite))

	ctx := s.GetContext()
	s.testData.from = s.CreateLocation(ctx, "Main", true)
	s.testData.to = s.CreateLocation(ctx, "Harbor", false)
	s.testData.screen = s.CreateInventoryItem(ctx, "IPHONE-15-SCREEN", map[string]int{
		s.testData.from.ID: 10,
	})
}

func (s *InventoryTransferServiceSuite) quantity(locationID string) int {
	qty, err := s.GetStores().InventoryRepo.GetQuantity(s.GetContext(), s.testData.screen.ID, locationID)
	s.Require().NoError(err)
	return qty
}

func (s *InventoryTransferServiceSuite) createTransfer(qty int) *dto.InventoryTransferResponse {
	resp, err := s.service.Create(s.GetContext(), &dto.CreateInventoryTransferRequest{
		FromLocationID:  s.testData.from.ID,
		ToLocationID:    s.testData.to.ID,
		InventoryItemID: s.testData.screen.ID,
		Quantity:        qty,
		Notes:           lo.ToPtr("restock harbor"),
	})
	s.Require().NoError(err)
	return resp
}

func (s *InventoryTransferServiceSuite) TestCreateReservesSourceStock() {
	resp := s.createTransfer(4)

	s.Equal(types.InventoryTransferStatusPending, resp.TransferStatus)
	s.Equal(types.DefaultUserID, lo.FromPtr(resp.TransferredBy))
	s.Equal(6, s.quantity(s.testData.from.ID))
	s.Equal(0, s.quantity(s.testData.to.ID))
	s.Equal(1, s.GetDB().TxCount())
}

func (s *InventoryTransferServiceSuite) TestCompleteDeliversStock() {
	created := s.createTransfer(4)

	resp, err := s.service.Complete(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InventoryTransferStatusCompleted, resp.TransferStatus)
	s.NotNil(resp.CompletedAt)
	s.Nil(resp.CancelledAt)

	s.Equal(6, s.quantity(s.testData.from.ID))
	s.Equal(4, s.quantity(s.testData.to.ID))
	s.Equal(10, s.quantity(s.testData.from.ID)+s.quantity(s.testData.to.ID))
}

func (s *InventoryTransferServiceSuite) TestCancelRestoresSource() {
	created := s.createTransfer(4)

	resp, err := s.service.Cancel(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InventoryTransferStatusCancelled, resp.TransferStatus)
	s.NotNil(resp.CancelledAt)

	s.Equal(10, s.quantity(s.testData.from.ID))
	s.Equal(0, s.quantity(s.testData.to.ID))
}

func (s *InventoryTransferServiceSuite) TestClosedTransferRejectsTransitions() {
	completed := s.createTransfer(2)
	_, err := s.service.Complete(s.GetContext(), completed.ID)
	s.NoError(err)

	cancelled := s.createTransfer(3)
	_, err = s.service.Cancel(s.GetContext(), cancelled.ID)
	s.NoError(err)

	before := map[string]int{
		s.testData.from.ID: s.quantity(s.testData.from.ID),
		s.testData.to.ID:   s.quantity(s.testData.to.ID),
	}

	tests := []struct {
		name string
		id   string
		fn   func(id string) (*dto.InventoryTransferResponse, error)
	}{
		{name: "complete a completed transfer", id: completed.ID, fn: s.complete},
		{name: "cancel a completed transfer", id: completed.ID, fn: s.cancel},
		{name: "complete a cancelled transfer", id: cancelled.ID, fn: s.complete},
		{name: "cancel a cancelled transfer", id: cancelled.ID, fn: s.cancel},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := tt.fn(tt.id)
			s.Error(err)
			s.True(ierr.IsInvalidOperation(err), "unexpected error: %v", err)

			for locationID, qty := range before {
				s.Equal(qty, s.quantity(locationID))
			}
		})
	}
}

func (s *InventoryTransferServiceSuite) complete(id string) (*dto.InventoryTransferResponse, error) {
	return s.service.Complete(s.GetContext(), id)
}

func (s *InventoryTransferServiceSuite) cancel(id string) (*dto.InventoryTransferResponse, error) {
	return s.service.Cancel(s.GetContext(), id)
}

func (s *InventoryTransferServiceSuite) TestCreateValidation() {
	other := types.SetTenantID(s.GetContext(), "tenant_other")
	foreign := s.CreateLocation(other, "Foreign", false)

	tests := []struct {
		name     string
		req      func() *dto.CreateInventoryTransferRequest
		errCheck func(error) bool
	}{
		{
			name: "same source and destination",
			req: func() *dto.CreateInventoryTransferRequest {
				return &dto.CreateInventoryTransferRequest{
					FromLocationID:  s.testData.from.ID,
					ToLocationID:    s.testData.from.ID,
					InventoryItemID: s.testData.screen.ID,
					Quantity:        1,
				}
			},
			errCheck: ierr.IsValidation,
		},
		{
			name: "zero quantity",
			req: func() *dto.CreateInventoryTransferRequest {
				return &dto.CreateInventoryTransferRequest{
					FromLocationID:  s.testData.from.ID,
					ToLocationID:    s.testData.to.ID,
					InventoryItemID: s.testData.screen.ID,
				}
			},
			errCheck: ierr.IsValidation,
		},
		{
			name: "destination of another tenant",
			req: func() *dto.CreateInventoryTransferRequest {
				return &dto.CreateInventoryTransferRequest{
					FromLocationID:  s.testData.from.ID,
					ToLocationID:    foreign.ID,
					InventoryItemID: s.testData.screen.ID,
					Quantity:        1,
				}
			},
			errCheck: ierr.IsValidation,
		},
		{
			name: "unknown item",
			req: func() *dto.CreateInventoryTransferRequest {
				return &dto.CreateInventoryTransferRequest{
					FromLocationID:  s.testData.from.ID,
					ToLocationID:    s.testData.to.ID,
					InventoryItemID: "item_missing",
					Quantity:        1,
				}
			},
			errCheck: ierr.IsValidation,
		},
		{
			name: "insufficient stock",
			req: func() *dto.CreateInventoryTransferRequest {
				return &dto.CreateInventoryTransferRequest{
					FromLocationID:  s.testData.from.ID,
					ToLocationID:    s.testData.to.ID,
					InventoryItemID: s.testData.screen.ID,
					Quantity:        11,
				}
			},
			errCheck: ierr.IsInvalidOperation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Create(s.GetContext(), tt.req())
			s.Error(err)
			s.True(tt.errCheck(err), "unexpected error: %v", err)
			s.False(ierr.IsNotFound(err))
			s.Equal(10, s.quantity(s.testData.from.ID))
		})
	}

	list, err := s.service.FindAll(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(0, list.Pagination.Total)
}

func (s *InventoryTransferServiceSuite) TestInsufficientStockHint() {
	_, err := s.service.Create(s.GetContext(), &dto.CreateInventoryTransferRequest{
		FromLocationID:  s.testData.from.ID,
		ToLocationID:    s.testData.to.ID,
		InventoryItemID: s.testData.screen.ID,
		Quantity:        12,
	})
	s.Equal("Insufficient stock. Available: 10, Requested: 12", ierr.DisplayMessage(err))
}

func (s *InventoryTransferServiceSuite) TestFindIsTenantScoped() {
	created := s.createTransfer(1)
	other := types.SetTenantID(s.GetContext(), "tenant_other")

	_, err := s.service.FindByID(other, created.ID)
	s.True(ierr.IsNotFound(err))

	found, err := s.service.FindByID(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, found.ID)

	list, err := s.service.FindAll(other, nil)
	s.NoError(err)
	s.Empty(list.Items)

	_, err = s.service.Complete(other, created.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *InventoryTransferServiceSuite) TestFindAllFilters() {
	first := s.createTransfer(1)
	s.createTransfer(2)
	_, err := s.service.Complete(s.GetContext(), first.ID)
	s.NoError(err)

	filter := types.NewInventoryTransferFilter()
	filter.TransferStatus = lo.ToPtr(types.InventoryTransferStatusPending)
	list, err := s.service.FindAll(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(1, list.Pagination.Total)
	s.Equal(2, list.Items[0].Quantity)

	filter = types.NewInventoryTransferFilter()
	filter.LocationID = s.testData.to.ID
	list, err = s.service.FindAll(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(2, list.Pagination.Total)

	filter = types.NewInventoryTransferFilter()
	filter.InventoryItemID = "item_other"
	list, err = s.service.FindAll(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(0, list.Pagination.Total)
}
