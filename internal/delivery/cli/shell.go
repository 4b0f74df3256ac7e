// Package cli implements the interactive console surface of the workshop
// manager.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"automanager/internal/delivery"
	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/policy"
	"automanager/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// ShellParams holds dependencies for the console shell, injected by Fx.
type ShellParams struct {
	fx.In

	Logger *slog.Logger
	Auth   usecase.AuthUsecase
	Orders usecase.OrderUsecase
}

type shell struct {
	logger *slog.Logger
	auth   usecase.AuthUsecase
	orders usecase.OrderUsecase

	in  *bufio.Scanner
	out io.Writer

	// session is the authenticated identity, nil before login.
	session *entity.Identity
}

// NewShell is the constructor for the console shell.
func NewShell(params ShellParams) delivery.Delivery {
	return &shell{
		logger: params.Logger,
		auth:   params.Auth,
		orders: params.Orders,
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
	}
}

// Serve runs the read-eval loop until the operator exits or input ends.
func (s *shell) Serve(ctx context.Context) error {
	fmt.Fprintln(s.out, "automanager console. Type 'help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		prompt := "> "
		if s.session != nil {
			prompt = s.session.Username + "> "
		}
		fmt.Fprint(s.out, prompt)

		if !s.in.Scan() {
			return s.in.Err()
		}

		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			return nil
		}

		if err := s.dispatch(ctx, cmd, args); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		s.printHelp()
		return nil
	case "login":
		return s.login(ctx, args)
	case "logout":
		s.session = nil
		return nil
	case "whoami":
		if s.session == nil {
			fmt.Fprintln(s.out, "not logged in")
		} else {
			fmt.Fprintf(s.out, "%s (%s)\n", s.session.Username, s.session.Role)
		}
		return nil
	}

	// Everything below requires an authenticated session.
	if s.session == nil {
		return domainerrors.ErrPermissionDenied.WrapMessage("log in first")
	}

	switch cmd {
	case "users":
		return s.listUsers(ctx)
	case "user-add":
		return s.addUser(ctx, args)
	case "user-del":
		return s.deleteUser(ctx, args)
	case "clients":
		return s.listClients(ctx)
	case "client-add":
		return s.addClient(ctx, args)
	case "client-del":
		return s.deleteClient(ctx, args)
	case "vehicles":
		return s.listVehicles(ctx, args)
	case "vehicle-add":
		return s.addVehicle(ctx, args)
	case "vehicle-del":
		return s.deleteVehicle(ctx, args)
	case "orders":
		return s.listOrders(ctx)
	case "order-add":
		return s.addOrder(ctx, args)
	case "order-show":
		return s.showOrder(ctx, args)
	case "order-update":
		return s.updateOrder(ctx, args)
	case "order-del":
		return s.deleteOrder(ctx, args)
	case "history":
		return s.listHistory(ctx, args)
	default:
		return domainerrors.ErrInvalidInput.WrapMessage("unknown command: " + cmd)
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  login <username> <password>      authenticate
  logout                           drop the current session
  whoami                           show the current session
  users                            list staff accounts
  user-add <username> <password> [role] [display name...]
  user-del <username>
  clients                          list clients
  client-add <name...>             register a client
  client-del <clientID>
  vehicles <clientID>              list a client's vehicles
  vehicle-add <clientID> <plate> [brand] [model] [year]
  vehicle-del <vehicleID>
  orders                           list service orders
  order-add <clientID> <vehicleID> <description...>
  order-show <orderID>
  order-update <orderID> <field>=<value> ...
  order-del <orderID>
  history <orderID>                show an order's audit trail
  exit
`)
}

func (s *shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: login <username> <password>")
	}

	identity, err := s.auth.Authenticate(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if identity == nil {
		fmt.Fprintln(s.out, "invalid credentials")
		return nil
	}

	s.session = identity
	fmt.Fprintf(s.out, "logged in as %s (%s)\n", identity.Username, identity.Role)

	return nil
}

// manageGuard enforces the identity management permission for the current
// session, including the rule that an account cannot remove itself.
func (s *shell) manageGuard(targetUsername string) error {
	actor := policy.Actor{Role: s.session.Role, Username: s.session.Username}
	target := policy.Target{Username: targetUsername}
	if decision := policy.Decide(actor, policy.ActionManageIdentities, target); !decision.Allowed {
		return domainerrors.ErrPermissionDenied.WrapMessage(decision.Reason)
	}

	return nil
}

func (s *shell) listUsers(ctx context.Context) error {
	if err := s.manageGuard(""); err != nil {
		return err
	}

	identities, err := s.auth.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, identity := range identities {
		fmt.Fprintf(s.out, "%-20s %-14s %s\n", identity.Username, identity.Role, identity.DisplayName)
	}

	return nil
}

func (s *shell) addUser(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: user-add <username> <password> [role] [display name...]")
	}
	if err := s.manageGuard(""); err != nil {
		return err
	}

	input := &usecase.RegisterInput{Username: args[0], Password: args[1]}
	if len(args) > 2 {
		input.Role = args[2]
	}
	if len(args) > 3 {
		input.DisplayName = strings.Join(args[3:], " ")
	}

	identity, err := s.auth.Register(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created %s (%s)\n", identity.Username, identity.Role)

	return nil
}

func (s *shell) deleteUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: user-del <username>")
	}
	if err := s.manageGuard(args[0]); err != nil {
		return err
	}

	existed, err := s.auth.DeleteUser(ctx, args[0])
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(s.out, "no such user")
	} else {
		fmt.Fprintln(s.out, "deleted")
	}

	return nil
}

func (s *shell) listClients(ctx context.Context) error {
	clients, err := s.orders.ListClients(ctx)
	if err != nil {
		return err
	}
	for _, client := range clients {
		fmt.Fprintf(s.out, "%s  %s\n", client.ID, client.Name)
	}

	return nil
}

func (s *shell) addClient(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: client-add <name...>")
	}

	client, err := s.orders.CreateClient(ctx, &usecase.CreateClientInput{
		Name: strings.Join(args, " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created client %s\n", client.ID)

	return nil
}

func (s *shell) deleteClient(ctx context.Context, args []string) error {
	id, err := parseID(args, "client-del <clientID>")
	if err != nil {
		return err
	}

	existed, err := s.orders.DeleteClient(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(s.out, "no such client")
	} else {
		fmt.Fprintln(s.out, "deleted")
	}

	return nil
}

func (s *shell) listVehicles(ctx context.Context, args []string) error {
	clientID, err := parseID(args, "vehicles <clientID>")
	if err != nil {
		return err
	}

	vehicles, err := s.orders.ListVehiclesByClient(ctx, clientID)
	if err != nil {
		return err
	}
	for _, vehicle := range vehicles {
		fmt.Fprintf(s.out, "%s  %-10s %s %s\n", vehicle.ID, vehicle.Plate, vehicle.Brand, vehicle.Model)
	}

	return nil
}

func (s *shell) addVehicle(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: vehicle-add <clientID> <plate> [brand] [model] [year]")
	}

	clientID, err := uuid.Parse(args[0])
	if err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage("invalid client id")
	}

	input := &usecase.CreateVehicleInput{ClientID: clientID, Plate: args[1]}
	if len(args) > 2 {
		input.Brand = args[2]
	}
	if len(args) > 3 {
		input.Model = args[3]
	}
	if len(args) > 4 {
		year, convErr := strconv.Atoi(args[4])
		if convErr != nil {
			return domainerrors.ErrInvalidInput.WrapMessage("invalid year")
		}
		input.Year = year
	}

	vehicle, err := s.orders.CreateVehicle(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created vehicle %s\n", vehicle.ID)

	return nil
}

func (s *shell) deleteVehicle(ctx context.Context, args []string) error {
	id, err := parseID(args, "vehicle-del <vehicleID>")
	if err != nil {
		return err
	}

	existed, err := s.orders.DeleteVehicle(ctx, id, s.session.Role, s.session.Username)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(s.out, "no such vehicle")
	} else {
		fmt.Fprintln(s.out, "deleted")
	}

	return nil
}

func (s *shell) listOrders(ctx context.Context) error {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return err
	}
	for _, order := range orders {
		mechanic := "-"
		if order.AssignedMechanic != nil {
			mechanic = *order.AssignedMechanic
		}
		fmt.Fprintf(s.out, "%s  %-18s %-12s %-7s %-12s %s\n",
			order.ID, order.Code, order.Status, order.Priority, mechanic, order.Description)
	}

	return nil
}

func (s *shell) addOrder(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: order-add <clientID> <vehicleID> <description...>")
	}

	clientID, err := uuid.Parse(args[0])
	if err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage("invalid client id")
	}
	vehicleID, err := uuid.Parse(args[1])
	if err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage("invalid vehicle id")
	}

	order, err := s.orders.CreateOrder(ctx, &usecase.CreateOrderInput{
		ActorRole:     s.session.Role,
		ActorUsername: s.session.Username,
		ClientID:      clientID,
		VehicleID:     vehicleID,
		Description:   strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created order %s (%s)\n", order.Code, order.ID)

	return nil
}

func (s *shell) showOrder(ctx context.Context, args []string) error {
	id, err := parseID(args, "order-show <orderID>")
	if err != nil {
		return err
	}

	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	mechanic := "-"
	if order.AssignedMechanic != nil {
		mechanic = *order.AssignedMechanic
	}
	fmt.Fprintf(s.out, "code:        %s\nstatus:      %s\npriority:    %s\nmechanic:    %s\nvalue:       %.2f\nopened:      %s\ndescription: %s\n",
		order.Code, order.Status, order.Priority, mechanic, order.Value,
		order.OpenedAt.Format("2006-01-02 15:04"), order.Description)

	return nil
}

func (s *shell) updateOrder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return domainerrors.ErrInvalidInput.WrapMessage("usage: order-update <orderID> <field>=<value> ...")
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage("invalid order id")
	}

	input := &usecase.UpdateOrderInput{
		ActorRole:     s.session.Role,
		ActorUsername: s.session.Username,
		OrderID:       id,
	}

	for _, assignment := range args[1:] {
		field, value, found := strings.Cut(assignment, "=")
		if !found {
			return domainerrors.ErrInvalidInput.WrapMessage("expected <field>=<value>, got: " + assignment)
		}

		switch field {
		case "status":
			status := entity.OrderStatus(strings.ToUpper(value))
			input.Status = &status
		case "priority":
			priority := entity.OrderPriority(strings.ToUpper(value))
			input.Priority = &priority
		case "description":
			description := value
			input.Description = &description
		case "mechanic":
			mechanic := value
			input.Mechanic = &mechanic
		case "value":
			amount, convErr := strconv.ParseFloat(value, 64)
			if convErr != nil {
				return domainerrors.ErrInvalidInput.WrapMessage("invalid value: " + value)
			}
			input.Value = &amount
		case "vehicle":
			vehicleID, convErr := uuid.Parse(value)
			if convErr != nil {
				return domainerrors.ErrInvalidInput.WrapMessage("invalid vehicle id")
			}
			input.VehicleID = &vehicleID
		default:
			return domainerrors.ErrInvalidInput.WrapMessage("unknown field: " + field)
		}
	}

	order, err := s.orders.UpdateOrder(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "updated %s: %s/%s\n", order.Code, order.Status, order.Priority)

	return nil
}

func (s *shell) deleteOrder(ctx context.Context, args []string) error {
	id, err := parseID(args, "order-del <orderID>")
	if err != nil {
		return err
	}

	existed, err := s.orders.DeleteOrder(ctx, id, s.session.Role, s.session.Username)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(s.out, "no such order")
	} else {
		fmt.Fprintln(s.out, "deleted")
	}

	return nil
}

func (s *shell) listHistory(ctx context.Context, args []string) error {
	id, err := parseID(args, "history <orderID>")
	if err != nil {
		return err
	}

	entries, err := s.orders.ListHistory(ctx, id)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		actor := "-"
		if entry.Actor != nil {
			actor = *entry.Actor
		}
		mechanic := "-"
		if entry.Mechanic != nil {
			mechanic = *entry.Mechanic
		}
		fmt.Fprintf(s.out, "%s  %-6s %-12s %-7s %-12s %-12s %.2f\n",
			entry.RecordedAt.Format("2006-01-02 15:04:05"),
			entry.Action, entry.Status, entry.Priority, actor, mechanic, entry.Value)
	}

	return nil
}

func parseID(args []string, usage string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, domainerrors.ErrInvalidInput.WrapMessage("usage: " + usage)
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, domainerrors.ErrInvalidInput.WrapMessage("invalid id")
	}

	return id, nil
}
