package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	mockRepo "automanager/internal/mocks/repository"
	"automanager/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// orderServiceFixtures holds all test dependencies for order service tests.
type orderServiceFixtures struct {
	t         *testing.T
	service   usecase.OrderUsecase
	txManager *mockRepo.MockTransactionManager
}

func createTestOrderService(t *testing.T) orderServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewOrderService(OrderServiceParams{
		TxManager: txManager,
		Logger:    logger,
	})

	return orderServiceFixtures{
		t:         t,
		service:   service,
		txManager: txManager,
	}
}

// onExecute arranges one transactional Execute call whose repositories are
// set up by the given function, propagating the callback's error.
func (f orderServiceFixtures) onExecute(ctx context.Context, setup func(factory *mockRepo.MockRepositoryFactory)) {
	f.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(f.t)
			setup(factory)

			return fn(factory)
		}).
		Once()
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()
	vehicleID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)
		orderRepo := mockRepo.NewMockOrderRepository(t)

		factory.EXPECT().ClientRepo().Return(clientRepo)
		factory.EXPECT().VehicleRepo().Return(vehicleRepo)
		factory.EXPECT().OrderRepo().Return(orderRepo)

		clientRepo.EXPECT().FindByID(ctx, clientID).Return(&entity.Client{ID: clientID}, nil)
		vehicleRepo.EXPECT().FindByID(ctx, vehicleID).Return(&entity.Vehicle{ID: vehicleID}, nil)
		orderRepo.EXPECT().
			Create(ctx, mock.AnythingOfType("*entity.ServiceOrder")).
			Run(func(ctx context.Context, order *entity.ServiceOrder) {
				order.ID = uuid.New()
			}).
			Return(nil)
	})

	// The audit entry is appended in its own transaction after the create
	// commits.
	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		historyRepo := mockRepo.NewMockHistoryRepository(t)
		factory.EXPECT().HistoryRepo().Return(historyRepo)
		historyRepo.EXPECT().
			Append(ctx, mock.AnythingOfType("*entity.HistoryEntry")).
			Run(func(ctx context.Context, entry *entity.HistoryEntry) {
				assert.Equal(t, entity.ActionCreate, entry.Action)
				assert.Equal(t, entity.StatusOpen, entry.Status)
				assert.Equal(t, entity.PriorityMedium, entry.Priority)
				require.NotNil(t, entry.Actor)
				assert.Equal(t, "joana", *entry.Actor)
			}).
			Return(nil)
	})

	order, err := fx.service.CreateOrder(ctx, &usecase.CreateOrderInput{
		ActorRole:     entity.RoleManager,
		ActorUsername: "joana",
		ClientID:      clientID,
		VehicleID:     vehicleID,
		Description:   "brake pad replacement",
	})

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, strings.HasPrefix(order.Code, "OS-"))
	assert.Equal(t, entity.StatusOpen, order.Status)
	assert.Equal(t, entity.PriorityMedium, order.Priority)
	assert.False(t, order.OpenedAt.IsZero())
}

func TestOrderService_CreateOrder_MechanicDenied(t *testing.T) {
	fx := createTestOrderService(t)

	order, err := fx.service.CreateOrder(context.Background(), &usecase.CreateOrderInput{
		ActorRole:     entity.RoleMechanic,
		ActorUsername: "joao",
		ClientID:      uuid.New(),
		VehicleID:     uuid.New(),
		Description:   "oil change",
	})

	assert.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domainerrors.ErrPermissionDenied))
}

func TestOrderService_CreateOrder_UnknownClient(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		factory.EXPECT().ClientRepo().Return(clientRepo)
		clientRepo.EXPECT().FindByID(ctx, clientID).Return(nil, repository.ErrClientNotFound)
	})

	order, err := fx.service.CreateOrder(ctx, &usecase.CreateOrderInput{
		ActorRole:     entity.RoleAdministrator,
		ActorUsername: "ana",
		ClientID:      clientID,
		VehicleID:     uuid.New(),
		Description:   "diagnostics",
	})

	assert.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestOrderService_CreateOrder_InvalidPriority(t *testing.T) {
	fx := createTestOrderService(t)

	order, err := fx.service.CreateOrder(context.Background(), &usecase.CreateOrderInput{
		ActorRole:     entity.RoleManager,
		ActorUsername: "joana",
		ClientID:      uuid.New(),
		VehicleID:     uuid.New(),
		Description:   "diagnostics",
		Priority:      entity.OrderPriority("URGENT"),
	})

	assert.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidInput))
}

func TestOrderService_CreateOrder_HistoryFailureDoesNotFail(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()
	vehicleID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)
		orderRepo := mockRepo.NewMockOrderRepository(t)

		factory.EXPECT().ClientRepo().Return(clientRepo)
		factory.EXPECT().VehicleRepo().Return(vehicleRepo)
		factory.EXPECT().OrderRepo().Return(orderRepo)

		clientRepo.EXPECT().FindByID(ctx, clientID).Return(&entity.Client{ID: clientID}, nil)
		vehicleRepo.EXPECT().FindByID(ctx, vehicleID).Return(&entity.Vehicle{ID: vehicleID}, nil)
		orderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.ServiceOrder")).Return(nil)
	})

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		historyRepo := mockRepo.NewMockHistoryRepository(t)
		factory.EXPECT().HistoryRepo().Return(historyRepo)
		historyRepo.EXPECT().
			Append(ctx, mock.AnythingOfType("*entity.HistoryEntry")).
			Return(errors.New("disk full"))
	})

	order, err := fx.service.CreateOrder(ctx, &usecase.CreateOrderInput{
		ActorRole:     entity.RoleManager,
		ActorUsername: "joana",
		ClientID:      clientID,
		VehicleID:     vehicleID,
		Description:   "suspension check",
	})

	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_UpdateOrder_ManagerFullUpdate(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()
	stored := &entity.ServiceOrder{
		ID:       orderID,
		Code:     "OS-20240101120000",
		Status:   entity.StatusOpen,
		Priority: entity.PriorityMedium,
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		orderRepo := mockRepo.NewMockOrderRepository(t)
		factory.EXPECT().OrderRepo().Return(orderRepo)
		orderRepo.EXPECT().FindByID(ctx, orderID).Return(stored, nil)
		orderRepo.EXPECT().Update(ctx, stored).Return(nil)
	})

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		historyRepo := mockRepo.NewMockHistoryRepository(t)
		factory.EXPECT().HistoryRepo().Return(historyRepo)
		historyRepo.EXPECT().
			Append(ctx, mock.AnythingOfType("*entity.HistoryEntry")).
			Run(func(ctx context.Context, entry *entity.HistoryEntry) {
				assert.Equal(t, entity.ActionUpdate, entry.Action)
				assert.Equal(t, entity.StatusInProgress, entry.Status)
			}).
			Return(nil)
	})

	status := entity.StatusInProgress
	value := 420.50
	mechanic := "joao"

	order, err := fx.service.UpdateOrder(ctx, &usecase.UpdateOrderInput{
		ActorRole:     entity.RoleManager,
		ActorUsername: "joana",
		OrderID:       orderID,
		Status:        &status,
		Value:         &value,
		Mechanic:      &mechanic,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, order.Status)
	assert.Equal(t, 420.50, order.Value)
	require.NotNil(t, order.AssignedMechanic)
	assert.Equal(t, "joao", *order.AssignedMechanic)
}

func TestOrderService_UpdateOrder_AssignedMechanicRestricted(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()
	assigned := "joao"
	stored := &entity.ServiceOrder{
		ID:               orderID,
		Code:             "OS-20240101120000",
		Status:           entity.StatusOpen,
		Priority:         entity.PriorityMedium,
		AssignedMechanic: &assigned,
		Value:            100,
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		orderRepo := mockRepo.NewMockOrderRepository(t)
		factory.EXPECT().OrderRepo().Return(orderRepo)
		orderRepo.EXPECT().FindByID(ctx, orderID).Return(stored, nil)
		orderRepo.EXPECT().Update(ctx, stored).Return(nil)
	})

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		historyRepo := mockRepo.NewMockHistoryRepository(t)
		factory.EXPECT().HistoryRepo().Return(historyRepo)
		historyRepo.EXPECT().
			Append(ctx, mock.AnythingOfType("*entity.HistoryEntry")).
			Return(nil)
	})

	status := entity.StatusConcluded
	priority := entity.PriorityHigh
	value := 9999.0

	order, err := fx.service.UpdateOrder(ctx, &usecase.UpdateOrderInput{
		ActorRole:     entity.RoleMechanic,
		ActorUsername: "joao",
		OrderID:       orderID,
		Status:        &status,
		Priority:      &priority,
		Value:         &value,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusConcluded, order.Status)
	// Fields outside the mechanic's scope stay untouched.
	assert.Equal(t, entity.PriorityMedium, order.Priority)
	assert.Equal(t, 100.0, order.Value)
}

func TestOrderService_UpdateOrder_UnassignedMechanicDenied(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()
	assigned := "maria"
	stored := &entity.ServiceOrder{
		ID:               orderID,
		Status:           entity.StatusOpen,
		Priority:         entity.PriorityMedium,
		AssignedMechanic: &assigned,
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		orderRepo := mockRepo.NewMockOrderRepository(t)
		factory.EXPECT().OrderRepo().Return(orderRepo)
		orderRepo.EXPECT().FindByID(ctx, orderID).Return(stored, nil)
	})

	status := entity.StatusConcluded

	order, err := fx.service.UpdateOrder(ctx, &usecase.UpdateOrderInput{
		ActorRole:     entity.RoleMechanic,
		ActorUsername: "joao",
		OrderID:       orderID,
		Status:        &status,
	})

	assert.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domainerrors.ErrPermissionDenied))
	assert.Equal(t, entity.StatusOpen, stored.Status)
}

func TestOrderService_DeleteOrder_MechanicDenied(t *testing.T) {
	fx := createTestOrderService(t)

	existed, err := fx.service.DeleteOrder(context.Background(), uuid.New(), entity.RoleMechanic, "joao")

	assert.Error(t, err)
	assert.False(t, existed)
	assert.True(t, errors.Is(err, domainerrors.ErrPermissionDenied))
}

func TestOrderService_DeleteOrder_Manager(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		orderRepo := mockRepo.NewMockOrderRepository(t)
		factory.EXPECT().OrderRepo().Return(orderRepo)
		orderRepo.EXPECT().Delete(ctx, orderID).Return(true, nil)
	})

	existed, err := fx.service.DeleteOrder(ctx, orderID, entity.RoleManager, "joana")

	require.NoError(t, err)
	assert.True(t, existed)
}

func TestOrderService_DeleteClient_BlockedByVehicles(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)

		factory.EXPECT().ClientRepo().Return(clientRepo)
		factory.EXPECT().VehicleRepo().Return(vehicleRepo)

		clientRepo.EXPECT().FindByID(ctx, clientID).Return(&entity.Client{ID: clientID}, nil)
		vehicleRepo.EXPECT().CountByClient(ctx, clientID).Return(int64(2), nil)
	})

	existed, err := fx.service.DeleteClient(ctx, clientID)

	assert.Error(t, err)
	assert.False(t, existed)
	assert.True(t, errors.Is(err, domainerrors.ErrReferentialConflict))
}

func TestOrderService_DeleteClient_BlockedByOrders(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)
		orderRepo := mockRepo.NewMockOrderRepository(t)

		factory.EXPECT().ClientRepo().Return(clientRepo)
		factory.EXPECT().VehicleRepo().Return(vehicleRepo)
		factory.EXPECT().OrderRepo().Return(orderRepo)

		clientRepo.EXPECT().FindByID(ctx, clientID).Return(&entity.Client{ID: clientID}, nil)
		vehicleRepo.EXPECT().CountByClient(ctx, clientID).Return(int64(0), nil)
		orderRepo.EXPECT().CountByClient(ctx, clientID).Return(int64(3), nil)
	})

	existed, err := fx.service.DeleteClient(ctx, clientID)

	assert.Error(t, err)
	assert.False(t, existed)
	assert.True(t, errors.Is(err, domainerrors.ErrReferentialConflict))
}

func TestOrderService_DeleteClient_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)
		orderRepo := mockRepo.NewMockOrderRepository(t)

		factory.EXPECT().ClientRepo().Return(clientRepo)
		factory.EXPECT().VehicleRepo().Return(vehicleRepo)
		factory.EXPECT().OrderRepo().Return(orderRepo)

		clientRepo.EXPECT().FindByID(ctx, clientID).Return(&entity.Client{ID: clientID}, nil)
		vehicleRepo.EXPECT().CountByClient(ctx, clientID).Return(int64(0), nil)
		orderRepo.EXPECT().CountByClient(ctx, clientID).Return(int64(0), nil)
		clientRepo.EXPECT().Delete(ctx, clientID).Return(true, nil)
	})

	existed, err := fx.service.DeleteClient(ctx, clientID)

	require.NoError(t, err)
	assert.True(t, existed)
}

func TestOrderService_DeleteVehicle_BlockedByOrders(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	vehicleID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		vehicleRepo := mockRepo.NewMockVehicleRepository(t)
		orderRepo := mockRepo.NewMockOrderRepository(t)

		factory.EXPECT().VehicleRepo().Return(vehicleRepo)
		factory.EXPECT().OrderRepo().Return(orderRepo)

		vehicleRepo.EXPECT().FindByID(ctx, vehicleID).Return(&entity.Vehicle{ID: vehicleID}, nil)
		orderRepo.EXPECT().CountByVehicle(ctx, vehicleID).Return(int64(1), nil)
	})

	existed, err := fx.service.DeleteVehicle(ctx, vehicleID, entity.RoleAdministrator, "ana")

	assert.Error(t, err)
	assert.False(t, existed)
	assert.True(t, errors.Is(err, domainerrors.ErrReferentialConflict))
}

func TestOrderService_DeleteVehicle_MechanicDenied(t *testing.T) {
	fx := createTestOrderService(t)

	existed, err := fx.service.DeleteVehicle(context.Background(), uuid.New(), entity.RoleMechanic, "joao")

	assert.Error(t, err)
	assert.False(t, existed)
	assert.True(t, errors.Is(err, domainerrors.ErrPermissionDenied))
}

func TestOrderService_CreateVehicle_UnknownClient(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	clientID := uuid.New()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		clientRepo := mockRepo.NewMockClientRepository(t)
		factory.EXPECT().ClientRepo().Return(clientRepo)
		clientRepo.EXPECT().FindByID(ctx, clientID).Return(nil, repository.ErrClientNotFound)
	})

	vehicle, err := fx.service.CreateVehicle(ctx, &usecase.CreateVehicleInput{
		ClientID: clientID,
		Plate:    "ABC1D23",
	})

	assert.Error(t, err)
	assert.Nil(t, vehicle)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestOrderService_CreateClient_MissingName(t *testing.T) {
	fx := createTestOrderService(t)

	client, err := fx.service.CreateClient(context.Background(), &usecase.CreateClientInput{})

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidInput))
}

func TestOrderService_ListHistory(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()
	stored := []*entity.HistoryEntry{
		{ID: uuid.New(), OrderID: orderID, Action: entity.ActionUpdate},
		{ID: uuid.New(), OrderID: orderID, Action: entity.ActionCreate},
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		historyRepo := mockRepo.NewMockHistoryRepository(t)
		factory.EXPECT().HistoryRepo().Return(historyRepo)
		historyRepo.EXPECT().ListByOrder(ctx, orderID).Return(stored, nil)
	})

	entries, err := fx.service.ListHistory(ctx, orderID)

	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
