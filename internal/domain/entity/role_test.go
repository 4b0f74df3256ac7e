package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
	}{
		{"Administrator", RoleAdministrator},
		{"administrador", RoleAdministrator},
		{"ADMIN", RoleAdministrator},
		{"Manager", RoleManager},
		{"gerente", RoleManager},
		{"Mechanic", RoleMechanic},
		{"mecanico", RoleMechanic},
		{"mecânico", RoleMechanic},
		{"  mechanic  ", RoleMechanic},
		{"", RoleUnknown},
		{"janitor", RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRole(tt.input))
		})
	}
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleAdministrator.IsValid())
	assert.True(t, RoleManager.IsValid())
	assert.True(t, RoleMechanic.IsValid())
	assert.False(t, RoleUnknown.IsValid())
	assert.False(t, Role("janitor").IsValid())
}

func TestOrderStatusAndPriorityValidity(t *testing.T) {
	assert.True(t, StatusOpen.IsValid())
	assert.True(t, StatusInProgress.IsValid())
	assert.True(t, StatusConcluded.IsValid())
	assert.False(t, OrderStatus("PENDING").IsValid())

	assert.True(t, PriorityLow.IsValid())
	assert.True(t, PriorityMedium.IsValid())
	assert.True(t, PriorityHigh.IsValid())
	assert.False(t, OrderPriority("URGENT").IsValid())
}
