package vault

import (
	errorsmod "cosmossdk.io/errors"
)

const codespace = "vault"

var (
	ErrUnauthorized      = errorsmod.Register(codespace, 2, "!authorized")
	ErrInvalidStrategy   = errorsmod.Register(codespace, 3, "invalid strategy")
	ErrDebtRatioLimit    = errorsmod.Register(codespace, 4, "debt ratio limit exceeded")
	ErrDepositLimit      = errorsmod.Register(codespace, 5, "deposit limit exceeded")
	ErrInsufficientShare = errorsmod.Register(codespace, 6, "insufficient shares")
	ErrMaxLoss           = errorsmod.Register(codespace, 7, "withdrawal loss exceeds max loss")
	ErrInvalidReport     = errorsmod.Register(codespace, 8, "invalid report")
	ErrShutdown          = errorsmod.Register(codespace, 9, "vault is shut down")
	ErrInvalidAmount     = errorsmod.Register(codespace, 10, "invalid amount")
)
