package impl

import (
	"context"
	"log/slog"
	"time"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/policy"
	"automanager/internal/domain/repository"
	"automanager/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// orderService implements the OrderUsecase interface. Every mutation
// consults the permission policy before any write, then runs the primary
// write as one transaction; the audit entry is appended after commit and is
// best-effort by design.
type orderService struct {
	txManager repository.TransactionManager
	validate  *validator.Validate
	logger    *slog.Logger
}

// OrderServiceParams holds dependencies for orderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Logger    *slog.Logger
}

// NewOrderService is the constructor for orderService.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		txManager: params.TxManager,
		validate:  validator.New(),
		logger:    params.Logger,
	}
}

// CreateClient registers a new workshop client.
func (srv *orderService) CreateClient(ctx context.Context, input *usecase.CreateClientInput) (*entity.Client, error) {
	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("client name is required")
	}

	client := &entity.Client{
		Name:     input.Name,
		Document: input.Document,
		Phone:    input.Phone,
		Email:    input.Email,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.ClientRepo().Create(ctx, client)
	})
	if err != nil {
		return nil, err
	}

	srv.logger.Info("Created client", slog.String("name", client.Name))

	return client, nil
}

// ListClients enumerates every stored client.
func (srv *orderService) ListClients(ctx context.Context) ([]*entity.Client, error) {
	var clients []*entity.Client

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var listErr error
		clients, listErr = repoFactory.ClientRepo().ListAll(ctx)

		return listErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}

	return clients, nil
}

// DeleteClient removes a client. Any role may delete clients, but dependent
// vehicles or orders block the deletion with a referential conflict.
func (srv *orderService) DeleteClient(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var existed bool

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, findErr := repoFactory.ClientRepo().FindByID(ctx, clientID); findErr != nil {
			if errors.Is(findErr, repository.ErrClientNotFound) {
				existed = false

				return nil
			}

			return errors.Wrap(findErr, "failed to load client")
		}

		vehicles, countErr := repoFactory.VehicleRepo().CountByClient(ctx, clientID)
		if countErr != nil {
			return countErr
		}
		if vehicles > 0 {
			return domainerrors.ErrReferentialConflict.WrapMessage("client has registered vehicles")
		}

		ordersCount, countErr := repoFactory.OrderRepo().CountByClient(ctx, clientID)
		if countErr != nil {
			return countErr
		}
		if ordersCount > 0 {
			return domainerrors.ErrReferentialConflict.WrapMessage("client has linked service orders")
		}

		var delErr error
		existed, delErr = repoFactory.ClientRepo().Delete(ctx, clientID)

		return delErr
	})
	if err != nil {
		return false, err
	}

	return existed, nil
}

// CreateVehicle registers a new vehicle for an existing client.
func (srv *orderService) CreateVehicle(ctx context.Context, input *usecase.CreateVehicleInput) (*entity.Vehicle, error) {
	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("client and plate are required")
	}

	vehicle := &entity.Vehicle{
		Plate:    input.Plate,
		Brand:    input.Brand,
		Model:    input.Model,
		Year:     input.Year,
		ClientID: input.ClientID,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, findErr := repoFactory.ClientRepo().FindByID(ctx, input.ClientID); findErr != nil {
			if errors.Is(findErr, repository.ErrClientNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("owning client does not exist")
			}

			return errors.Wrap(findErr, "failed to load client")
		}

		return repoFactory.VehicleRepo().Create(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	srv.logger.Info("Created vehicle", slog.String("plate", vehicle.Plate))

	return vehicle, nil
}

// ListVehiclesByClient enumerates a client's vehicles.
func (srv *orderService) ListVehiclesByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Vehicle, error) {
	var vehicles []*entity.Vehicle

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var listErr error
		vehicles, listErr = repoFactory.VehicleRepo().ListByClient(ctx, clientID)

		return listErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vehicles")
	}

	return vehicles, nil
}

// DeleteVehicle removes a vehicle without linked orders. The permission
// policy is consulted before any access to the store.
func (srv *orderService) DeleteVehicle(ctx context.Context, vehicleID uuid.UUID, actorRole entity.Role, actorUsername string) (bool, error) {
	actor := policy.Actor{Role: actorRole, Username: actorUsername}
	if decision := policy.Decide(actor, policy.ActionDeleteVehicle, policy.Target{}); !decision.Allowed {
		return false, domainerrors.ErrPermissionDenied.WrapMessage(decision.Reason)
	}

	var existed bool

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, findErr := repoFactory.VehicleRepo().FindByID(ctx, vehicleID); findErr != nil {
			if errors.Is(findErr, repository.ErrVehicleNotFound) {
				existed = false

				return nil
			}

			return errors.Wrap(findErr, "failed to load vehicle")
		}

		ordersCount, countErr := repoFactory.OrderRepo().CountByVehicle(ctx, vehicleID)
		if countErr != nil {
			return countErr
		}
		if ordersCount > 0 {
			return domainerrors.ErrReferentialConflict.WrapMessage("vehicle has linked service orders")
		}

		var delErr error
		existed, delErr = repoFactory.VehicleRepo().Delete(ctx, vehicleID)

		return delErr
	})
	if err != nil {
		return false, err
	}

	return existed, nil
}

// CreateOrder opens a new service order and records a CREATE audit entry.
func (srv *orderService) CreateOrder(ctx context.Context, input *usecase.CreateOrderInput) (*entity.ServiceOrder, error) {
	actor := policy.Actor{Role: input.ActorRole, Username: input.ActorUsername}
	if decision := policy.Decide(actor, policy.ActionCreateOrder, policy.Target{}); !decision.Allowed {
		return nil, domainerrors.ErrPermissionDenied.WrapMessage(decision.Reason)
	}

	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("client, vehicle and description are required")
	}

	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("unknown priority: " + string(priority))
	}

	now := time.Now().UTC()
	order := &entity.ServiceOrder{
		Code:             "OS-" + now.Format("20060102150405"),
		Description:      input.Description,
		Status:           entity.StatusOpen,
		Priority:         priority,
		OpenedAt:         now,
		ClientID:         input.ClientID,
		VehicleID:        input.VehicleID,
		AssignedMechanic: input.Mechanic,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, findErr := repoFactory.ClientRepo().FindByID(ctx, input.ClientID); findErr != nil {
			if errors.Is(findErr, repository.ErrClientNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("client does not exist")
			}

			return errors.Wrap(findErr, "failed to load client")
		}
		if _, findErr := repoFactory.VehicleRepo().FindByID(ctx, input.VehicleID); findErr != nil {
			if errors.Is(findErr, repository.ErrVehicleNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("vehicle does not exist")
			}

			return errors.Wrap(findErr, "failed to load vehicle")
		}

		return repoFactory.OrderRepo().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	srv.logger.Info("Created service order",
		slog.String("code", order.Code), slog.String("actor", input.ActorUsername))

	srv.recordHistory(ctx, input.ActorUsername, entity.ActionCreate, order)

	return order, nil
}

// ListOrders enumerates every stored service order.
func (srv *orderService) ListOrders(ctx context.Context) ([]*entity.ServiceOrder, error) {
	var orders []*entity.ServiceOrder

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var listErr error
		orders, listErr = repoFactory.OrderRepo().ListAll(ctx)

		return listErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list service orders")
	}

	return orders, nil
}

// GetOrder retrieves a single service order.
func (srv *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.ServiceOrder, error) {
	var order *entity.ServiceOrder

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		order, findErr = repoFactory.OrderRepo().FindByID(ctx, orderID)
		if errors.Is(findErr, repository.ErrOrderNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("service order does not exist")
		}

		return findErr
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrder applies a partial update. Administrators and managers may
// change every field; a mechanic assigned to the order may change only
// status and description, with other supplied fields silently ignored.
func (srv *orderService) UpdateOrder(ctx context.Context, input *usecase.UpdateOrderInput) (*entity.ServiceOrder, error) {
	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("order id is required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("unknown status: " + string(*input.Status))
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("unknown priority: " + string(*input.Priority))
	}
	if input.Description != nil && *input.Description == "" {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("description cannot be empty")
	}

	actor := policy.Actor{Role: input.ActorRole, Username: input.ActorUsername}

	var order *entity.ServiceOrder

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.OrderRepo()

		var findErr error
		order, findErr = orderRepo.FindByID(ctx, input.OrderID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrOrderNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("service order does not exist")
			}

			return errors.Wrap(findErr, "failed to load service order")
		}

		// The decision depends on the loaded order's assignment, so it is
		// made inside the transaction, still before any write.
		target := policy.Target{AssignedMechanic: order.AssignedMechanic}
		fullDecision := policy.Decide(actor, policy.ActionUpdateOrderFull, target)
		if fullDecision.Allowed {
			srv.applyFullUpdate(order, input)
		} else {
			restricted := policy.Decide(actor, policy.ActionUpdateOrderRestricted, target)
			if !restricted.Allowed {
				return domainerrors.ErrPermissionDenied.WrapMessage(restricted.Reason)
			}
			// Permitted fields apply; the rest of the input is ignored.
			applyRestrictedUpdate(order, input)
		}

		return orderRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	srv.logger.Info("Updated service order",
		slog.String("code", order.Code), slog.String("actor", input.ActorUsername))

	srv.recordHistory(ctx, input.ActorUsername, entity.ActionUpdate, order)

	return order, nil
}

// DeleteOrder removes a service order.
func (srv *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID, actorRole entity.Role, actorUsername string) (bool, error) {
	actor := policy.Actor{Role: actorRole, Username: actorUsername}
	if decision := policy.Decide(actor, policy.ActionDeleteOrder, policy.Target{}); !decision.Allowed {
		return false, domainerrors.ErrPermissionDenied.WrapMessage(decision.Reason)
	}

	var existed bool

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var delErr error
		existed, delErr = repoFactory.OrderRepo().Delete(ctx, orderID)

		return delErr
	})
	if err != nil {
		return false, err
	}

	if existed {
		srv.logger.Info("Deleted service order",
			slog.String("orderID", orderID.String()), slog.String("actor", actorUsername))
	}

	return existed, nil
}

// ListHistory returns the audit trail of an order, most recent first.
func (srv *orderService) ListHistory(ctx context.Context, orderID uuid.UUID) ([]*entity.HistoryEntry, error) {
	var entries []*entity.HistoryEntry

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var listErr error
		entries, listErr = repoFactory.HistoryRepo().ListByOrder(ctx, orderID)

		return listErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list order history")
	}

	return entries, nil
}

// applyFullUpdate applies every supplied field.
func (srv *orderService) applyFullUpdate(order *entity.ServiceOrder, input *usecase.UpdateOrderInput) {
	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.Status != nil {
		order.Status = *input.Status
	}
	if input.Priority != nil {
		order.Priority = *input.Priority
	}
	if input.Value != nil {
		order.Value = *input.Value
	}
	if input.VehicleID != nil {
		order.VehicleID = *input.VehicleID
	}
	if input.Mechanic != nil {
		if *input.Mechanic == "" {
			order.AssignedMechanic = nil
		} else {
			mechanic := *input.Mechanic
			order.AssignedMechanic = &mechanic
		}
	}
}

// applyRestrictedUpdate applies only the fields a mechanic may change.
func applyRestrictedUpdate(order *entity.ServiceOrder, input *usecase.UpdateOrderInput) {
	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.Status != nil {
		order.Status = *input.Status
	}
}

// recordHistory appends an audit snapshot of the order after the primary
// mutation committed. Recording is best-effort: a failure is logged and
// swallowed so the already-committed mutation stays successful.
func (srv *orderService) recordHistory(ctx context.Context, actorUsername string, action entity.HistoryAction, order *entity.ServiceOrder) {
	var actor *string
	if actorUsername != "" {
		actor = &actorUsername
	}

	entry := &entity.HistoryEntry{
		OrderID:     order.ID,
		RecordedAt:  time.Now().UTC(),
		Actor:       actor,
		Action:      action,
		Status:      order.Status,
		Priority:    order.Priority,
		Mechanic:    order.AssignedMechanic,
		Value:       order.Value,
		Description: order.Description,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.HistoryRepo().Append(ctx, entry)
	})
	if err != nil {
		srv.logger.Warn("Failed to record order history entry",
			slog.String("orderID", order.ID.String()),
			slog.Any("action", action),
			slog.Any("error", err))
	}
}
