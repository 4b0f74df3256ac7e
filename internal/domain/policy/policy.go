// Package policy implements the role-based permission model gating mutations
// of workshop records. Decisions are pure functions of the acting identity,
// the requested action and the target; no I/O happens here.
package policy

import "automanager/internal/domain/entity"

// Action identifies an operation subject to a permission decision.
type Action string

const (
	// ActionCreateOrder covers creating a new service order.
	ActionCreateOrder Action = "create_order"
	// ActionUpdateOrderFull covers updating every field of a service order.
	ActionUpdateOrderFull Action = "update_order_full"
	// ActionUpdateOrderRestricted covers updating only status and
	// description of a service order the actor is assigned to.
	ActionUpdateOrderRestricted Action = "update_order_restricted"
	// ActionDeleteOrder covers deleting a service order.
	ActionDeleteOrder Action = "delete_order"
	// ActionDeleteVehicle covers deleting a vehicle without linked orders.
	ActionDeleteVehicle Action = "delete_vehicle"
	// ActionDeleteClient covers deleting a client without linked records.
	ActionDeleteClient Action = "delete_client"
	// ActionManageIdentities covers creating, listing and deleting staff
	// accounts.
	ActionManageIdentities Action = "manage_identities"
)

// Actor is the authenticated identity requesting an action.
type Actor struct {
	Role     entity.Role
	Username string
}

// Target carries the ownership facts a decision may depend on. Fields are
// only consulted by the actions that need them.
type Target struct {
	// AssignedMechanic is the username assigned to the target service
	// order, or nil when unassigned.
	AssignedMechanic *string
	// Username is the target identity's username for identity management
	// actions.
	Username string
}

// Decision is the outcome of evaluating an action against the policy.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide evaluates the permission table for the given actor, action and
// target. An allow for Manager or Mechanic never escalates beyond allow for
// Administrator; Administrator is allowed wherever the table marks allow.
func Decide(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionCreateOrder, ActionDeleteOrder, ActionDeleteVehicle, ActionUpdateOrderFull:
		if actor.Role == entity.RoleAdministrator || actor.Role == entity.RoleManager {
			return allow()
		}

		return deny("only administrators and managers may modify service orders and vehicles")

	case ActionUpdateOrderRestricted:
		if actor.Role == entity.RoleAdministrator || actor.Role == entity.RoleManager {
			return allow()
		}
		if actor.Role != entity.RoleMechanic {
			return deny("role may not update service orders")
		}
		if target.AssignedMechanic == nil || *target.AssignedMechanic != actor.Username {
			return deny("mechanics may only update orders assigned to them")
		}

		return allow()

	case ActionDeleteClient:
		// No role restriction; referential guards apply elsewhere.
		return allow()

	case ActionManageIdentities:
		if actor.Role != entity.RoleAdministrator {
			return deny("identity management is restricted to administrators")
		}
		// Self-deletion guard: an administrator may not remove the account
		// they are logged in with.
		if target.Username != "" && target.Username == actor.Username {
			return deny("administrators may not delete their own account")
		}

		return allow()

	default:
		return deny("unknown action")
	}
}
