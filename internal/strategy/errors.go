package strategy

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const codespace = "strategy"

var (
	ErrUnauthorized     = errorsmod.Register(codespace, 2, "!authorized")
	ErrInvalidConfig    = errorsmod.Register(codespace, 3, "invalid configuration")
	ErrSweepWant        = errorsmod.Register(codespace, 4, "!want")
	ErrSweepShares      = errorsmod.Register(codespace, 5, "!shares")
	ErrSweepProtected   = errorsmod.Register(codespace, 6, "!protected")
	ErrSlippage         = errorsmod.Register(codespace, 7, "slippage tolerance exceeded")
	ErrInvalidMigration = errorsmod.Register(codespace, 8, "invalid migration")
)

// ErrorKind classifies failures for callers that branch on them (keeper, API).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindInvalidConfig
	KindAssetProtection
	KindSlippage
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindInvalidConfig:
		return "invalid_config"
	case KindAssetProtection:
		return "asset_protection"
	case KindSlippage:
		return "slippage"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of err, looking through wrapping.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidMigration):
		return KindInvalidConfig
	case errors.Is(err, ErrSweepWant), errors.Is(err, ErrSweepShares), errors.Is(err, ErrSweepProtected):
		return KindAssetProtection
	case errors.Is(err, ErrSlippage):
		return KindSlippage
	default:
		return KindUnknown
	}
}

func errInvalidConfigf(format string, args ...any) error {
	return errorsmod.Wrapf(ErrInvalidConfig, format, args...)
}
