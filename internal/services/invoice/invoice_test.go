package invoice

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateInvoice(ctx context.Context, inv models.Invoice) (int, error) {
	args := m.Called(ctx, inv)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReadInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}
func (m *RepoMock) UpdateInvoice(ctx context.Context, inv models.Invoice, id int) (int, error) {
	args := m.Called(ctx, inv, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) UpdateInvoiceStatus(ctx context.Context, id int, status string) (int, error) {
	args := m.Called(ctx, id, status)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveInvoice(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	args := m.Called(ctx, ownerUID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}
func (m *RepoMock) CountInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) (int, error) {
	args := m.Called(ctx, ownerUID, filter)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func wrappedNoRows() error {
	return fmt.Errorf("storage.ReadInvoice: %w", sql.ErrNoRows)
}

const (
	ownerUID  = "550e8400-e29b-41d4-a716-446655440000"
	strangers = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

func TestService_Create_PaymentDue(t *testing.T) {
	tests := []struct {
		name           string
		req            models.DummyInvoice
		wantPaymentDue *time.Time
	}{
		{
			name: "обе даты заданы",
			req: models.DummyInvoice{
				CreatedAt:    "2024-01-01",
				PaymentTerms: 30,
				Description:  "hosting",
			},
			wantPaymentDue: timePtr(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "нет даты создания",
			req: models.DummyInvoice{
				PaymentTerms: 30,
				Description:  "hosting",
			},
			wantPaymentDue: nil,
		},
		{
			name: "нет срока оплаты",
			req: models.DummyInvoice{
				CreatedAt:   "2024-01-01",
				Description: "hosting",
			},
			wantPaymentDue: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			repo.On("CreateInvoice", mock.Anything, mock.AnythingOfType("models.Invoice")).Return(42, nil).Once()
			cache.On("Set", "invoice:42", mock.Anything, time.Hour).Return(nil).Once()

			service := New(repo, cache, newNoopLogger())
			inv, err := service.Create(context.Background(), ownerUID, tt.req, models.StatusPending)
			require.NoError(t, err)

			assert.Equal(t, 42, inv.ID)
			assert.Equal(t, models.StatusPending, inv.Status)
			assert.Equal(t, ownerUID, inv.OwnerUID)
			if tt.wantPaymentDue == nil {
				assert.Nil(t, inv.PaymentDue)
			} else {
				require.NotNil(t, inv.PaymentDue)
				assert.Equal(t, *tt.wantPaymentDue, *inv.PaymentDue)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Create_OrderCodeFormat(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("CreateInvoice", mock.Anything, mock.Anything).Return(1, nil)
	cache.On("Set", mock.Anything, mock.Anything, time.Hour).Return(nil)

	service := New(repo, cache, newNoopLogger())
	pattern := regexp.MustCompile(`^[A-Z]{2}[0-9]{4}$`)

	for range 20 {
		inv, err := service.Create(context.Background(), ownerUID, models.DummyInvoice{}, models.StatusDraft)
		require.NoError(t, err)
		assert.Regexp(t, pattern, inv.OrderCode)
	}
}

func TestService_Create_DraftStatus(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(inv models.Invoice) bool {
		return inv.Status == models.StatusDraft
	})).Return(7, nil).Once()
	cache.On("Set", "invoice:7", mock.Anything, time.Hour).Return(nil).Once()

	service := New(repo, cache, newNoopLogger())
	inv, err := service.Create(context.Background(), ownerUID, models.DummyInvoice{}, models.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, inv.Status)
	repo.AssertExpectations(t)
}

func TestService_Edit(t *testing.T) {
	existing := &models.Invoice{
		ID:        42,
		OrderCode: "RT6003",
		Status:    models.StatusPending,
		OwnerUID:  ownerUID,
	}
	req := models.DummyInvoice{
		CreatedAt:    "2024-02-01",
		PaymentTerms: 14,
		Description:  "updated description",
		Total:        250,
	}

	tests := []struct {
		name       string
		callerUID  string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name:      "владелец редактирует счет",
			callerUID: ownerUID,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).Return(existing, nil).Once()
				r.On("UpdateInvoice", mock.Anything, mock.MatchedBy(func(inv models.Invoice) bool {
					// заменяются все поля, код заказа и владелец сохраняются
					return inv.OrderCode == "RT6003" && inv.OwnerUID == ownerUID &&
						inv.Status == models.StatusPending &&
						inv.Description == "updated description"
				}), 42).Return(1, nil).Once()
				c.On("Set", "invoice:42", mock.Anything, time.Hour).Return(nil).Once()
			},
		},
		{
			name:      "чужой счет",
			callerUID: strangers,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).Return(existing, nil).Once()
			},
			wantErr: ErrNotOwner,
		},
		{
			name:      "счет не существует",
			callerUID: ownerUID,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).Return(nil, wrappedNoRows()).Once()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := New(repo, cache, newNoopLogger())
			inv, err := service.Edit(context.Background(), 42, tt.callerUID, req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, inv)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "updated description", inv.Description)
				require.NotNil(t, inv.PaymentDue)
				assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), *inv.PaymentDue)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_MarkPaid(t *testing.T) {
	tests := []struct {
		name       string
		callerUID  string
		stored     *models.Invoice
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name:      "владелец отмечает оплату",
			callerUID: ownerUID,
			stored:    &models.Invoice{ID: 42, Status: models.StatusPending, OwnerUID: ownerUID},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("UpdateInvoiceStatus", mock.Anything, 42, models.StatusPaid).Return(1, nil).Once()
				c.On("Set", "invoice:42", mock.Anything, time.Hour).Return(nil).Once()
			},
		},
		{
			name:      "повторная отметка оплаченного счета проходит",
			callerUID: ownerUID,
			stored:    &models.Invoice{ID: 42, Status: models.StatusPaid, OwnerUID: ownerUID},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("UpdateInvoiceStatus", mock.Anything, 42, models.StatusPaid).Return(1, nil).Once()
				c.On("Set", "invoice:42", mock.Anything, time.Hour).Return(nil).Once()
			},
		},
		{
			name:       "не владелец",
			callerUID:  strangers,
			stored:     &models.Invoice{ID: 42, Status: models.StatusPending, OwnerUID: ownerUID},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    ErrNotOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			repo.On("ReadInvoice", mock.Anything, 42).Return(tt.stored, nil).Once()
			tt.setupMocks(repo, cache)

			service := New(repo, cache, newNoopLogger())
			inv, err := service.MarkPaid(context.Background(), 42, tt.callerUID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, inv)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.StatusPaid, inv.Status)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Remove(t *testing.T) {
	tests := []struct {
		name       string
		callerUID  string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name:      "владелец удаляет счет",
			callerUID: ownerUID,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).
					Return(&models.Invoice{ID: 42, OwnerUID: ownerUID}, nil).Once()
				c.On("Invalidate", "invoice:42").Return(nil).Once()
				r.On("RemoveInvoice", mock.Anything, 42).Return(1, nil).Once()
			},
		},
		{
			name:      "не владелец",
			callerUID: strangers,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).
					Return(&models.Invoice{ID: 42, OwnerUID: ownerUID}, nil).Once()
			},
			wantErr: ErrNotOwner,
		},
		{
			name:      "счет не существует",
			callerUID: ownerUID,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadInvoice", mock.Anything, 42).Return(nil, wrappedNoRows()).Once()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := New(repo, cache, newNoopLogger())
			err := service.Remove(context.Background(), 42, tt.callerUID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_List_ScopedToOwner(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	filter := models.InvoiceFilter{Statuses: []string{models.StatusPending}, Limit: 10}
	owned := []*models.Invoice{
		{ID: 1, OwnerUID: ownerUID, Status: models.StatusPending},
		{ID: 3, OwnerUID: ownerUID, Status: models.StatusPending},
	}
	repo.On("ListInvoices", mock.Anything, ownerUID, filter).Return(owned, nil).Once()
	repo.On("CountInvoices", mock.Anything, ownerUID, filter).Return(5, nil).Once()

	service := New(repo, cache, newNoopLogger())
	res, err := service.List(context.Background(), ownerUID, filter)
	require.NoError(t, err)

	assert.Len(t, res.Data, 2)
	assert.Equal(t, 5, res.Count)
	for _, inv := range res.Data {
		assert.Equal(t, ownerUID, inv.OwnerUID)
	}
	repo.AssertExpectations(t)
}

func TestService_Read_CacheOwnership(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	// кеш отдаёт чужой счет, владелец всё равно проверяется
	cache.On("Get", "invoice:42", mock.Anything).
		Run(func(args mock.Arguments) {
			inv := args.Get(1).(*models.Invoice)
			*inv = models.Invoice{ID: 42, OwnerUID: ownerUID}
		}).Return(true, nil).Once()

	service := New(repo, cache, newNoopLogger())
	inv, err := service.Read(context.Background(), 42, strangers)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Nil(t, inv)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
