package validators

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/config"
)

// Set answers membership and quorum questions about the bridge validators.
type Set interface {
	IsValidator(ctx context.Context, addr common.Address) (bool, error)
	RequiredSignatures(ctx context.Context) (uint, error)
	Owner(ctx context.Context) (common.Address, error)
}

type Static struct {
	owner      common.Address
	required   uint
	validators map[common.Address]bool
}

func NewStatic(owner common.Address, required uint, addrs ...common.Address) *Static {
	set := make(map[common.Address]bool, len(addrs))
	for _, addr := range addrs {
		set[addr] = true
	}
	return &Static{
		owner:      owner,
		required:   required,
		validators: set,
	}
}

func NewStaticFromConfig(cfg *config.ValidatorsConfig) (*Static, error) {
	if cfg.RequiredSignatures == 0 || int(cfg.RequiredSignatures) > len(cfg.Addresses) {
		return nil, fmt.Errorf("required signatures %d out of range [1, %d]: %w", cfg.RequiredSignatures, len(cfg.Addresses), config.ErrInvalidConfig)
	}
	return NewStatic(cfg.Owner, cfg.RequiredSignatures, cfg.Addresses...), nil
}

func (s *Static) IsValidator(_ context.Context, addr common.Address) (bool, error) {
	return s.validators[addr], nil
}

func (s *Static) RequiredSignatures(context.Context) (uint, error) {
	return s.required, nil
}

func (s *Static) Owner(context.Context) (common.Address, error) {
	return s.owner, nil
}
