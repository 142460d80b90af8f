package strategy

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/imbtc-strategy/internal/chain"
)

// Role is a capability held by an address relative to this strategy.
type Role uint8

const (
	RoleGovernance Role = 1 << iota
	RoleManagement
	RoleGuardian
	RoleStrategist
	RoleKeeper
	RoleVault
)

// Capability sets checked at the entry points.
const (
	vaultManagers       = RoleGovernance | RoleManagement
	authorized          = RoleGovernance | RoleStrategist
	emergencyAuthorized = RoleGovernance | RoleManagement | RoleGuardian | RoleStrategist
	keepers             = emergencyAuthorized | RoleKeeper
	harvesters          = keepers | RoleVault
	migrators           = RoleGovernance | RoleVault
)

// rolesOf returns every role caller holds. One address may hold several.
func (s *Strategy) rolesOf(caller chain.Address) Role {
	if caller == "" {
		return 0
	}
	var roles Role
	if caller == s.vault.Governance() {
		roles |= RoleGovernance
	}
	if caller == s.vault.Management() {
		roles |= RoleManagement
	}
	if caller == s.vault.Guardian() {
		roles |= RoleGuardian
	}
	if caller == s.state.strategist {
		roles |= RoleStrategist
	}
	if caller == s.state.keeper {
		roles |= RoleKeeper
	}
	if caller == s.vault.Address() {
		roles |= RoleVault
	}
	return roles
}

func (s *Strategy) require(caller chain.Address, allowed Role, action string) error {
	if s.rolesOf(caller)&allowed == 0 {
		return errorsmod.Wrapf(ErrUnauthorized, "%s may not %s", caller, action)
	}
	return nil
}
