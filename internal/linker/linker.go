// Package linker resolves which bridge to use and pairs with it.
//
// Setup runs in two phases. Discovery picks a bridge address and persists
// it straight away. Pairing then asks the bridge for a credential, which
// only succeeds shortly after the bridge's link button was pressed. A
// failed pairing keeps the address, so the next attempt skips discovery.
package linker

import (
	"context"
	"fmt"

	"huecli/internal/discovery"
	"huecli/internal/lights"
	"huecli/internal/logging"
	"huecli/internal/store"
)

// AppDescriptor identifies this tool to the bridge when pairing.
const AppDescriptor = "hue-cli utility"

// Finder searches the network for bridges.
type Finder interface {
	DiscoverBridges(ctx context.Context) ([]discovery.Bridge, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(ctx context.Context) ([]discovery.Bridge, error)

func (f FinderFunc) DiscoverBridges(ctx context.Context) ([]discovery.Bridge, error) {
	return f(ctx)
}

// Pairer requests a new credential from the bridge at address.
type Pairer interface {
	Pair(ctx context.Context, address string) (string, error)
}

// PairerFunc adapts a function to Pairer.
type PairerFunc func(ctx context.Context, address string) (string, error)

func (f PairerFunc) Pair(ctx context.Context, address string) (string, error) {
	return f(ctx, address)
}

// Outcome is how a successful Setup ended.
type Outcome int

const (
	// Linked means a new credential was obtained and saved.
	Linked Outcome = iota
	// AlreadyLinked means the config was complete and nothing was done.
	AlreadyLinked
)

func (o Outcome) String() string {
	switch o {
	case Linked:
		return "linked"
	case AlreadyLinked:
		return "already-linked"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type SetupOptions struct {
	// Address selects a specific bridge among the discovered ones.
	Address string
	// Force re-runs discovery and pairing even when already linked.
	Force bool
}

type Result struct {
	Outcome Outcome
	Config  store.Config
	// Discovered is true when this run performed network discovery.
	Discovered bool
}

type Linker struct {
	store  *store.Store
	finder Finder
	pairer Pairer
	log    *logging.Logger
}

func New(s *store.Store, finder Finder, pairer Pairer, log *logging.Logger) *Linker {
	return &Linker{
		store:  s,
		finder: finder,
		pairer: pairer,
		log:    logging.OrDiscard(log).Component("linker"),
	}
}

// ListBridges runs discovery and returns the candidates in discovery order.
func (l *Linker) ListBridges(ctx context.Context) ([]discovery.Bridge, error) {
	bridges, err := l.finder.DiscoverBridges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if len(bridges) == 0 {
		return nil, ErrNotFound
	}
	return bridges, nil
}

// Setup brings cfg to the linked state and returns the resulting config.
// cfg is the configuration loaded at process start; every change is
// persisted before Setup moves on, so a failure leaves partial progress
// on disk.
func (l *Linker) Setup(ctx context.Context, cfg store.Config, opts SetupOptions) (Result, error) {
	if cfg.Linked() && !opts.Force {
		l.log.Debug("already linked, nothing to do", "bridge", cfg.Bridge)
		return Result{Outcome: AlreadyLinked, Config: cfg}, nil
	}

	result := Result{Config: cfg}
	if l.canReuseAddress(cfg, opts) {
		l.log.Debug("reusing stored bridge address", "bridge", cfg.Bridge)
	} else {
		address, err := l.selectBridge(ctx, opts.Address)
		if err != nil {
			return result, err
		}
		result.Discovered = true

		// A re-pair must not keep a credential issued by another bridge.
		if address != cfg.Bridge {
			cfg.User = ""
		}
		cfg.Bridge = address
		if err := l.store.Save(cfg); err != nil {
			return result, err
		}
		result.Config = cfg
		l.log.Debug("bridge selected", "bridge", address)
	}

	user, err := l.pairer.Pair(ctx, cfg.Bridge)
	if err != nil {
		l.log.Debug("pairing failed", "bridge", cfg.Bridge, "error", err)
		if lights.IsLinkButtonNotPressed(err) {
			return result, fmt.Errorf("%w, press the button on the bridge and try again", ErrLinkFailed)
		}
		return result, fmt.Errorf("%w to bridge at %s (%w), press the button on the bridge and try again", ErrLinkFailed, cfg.Bridge, err)
	}

	cfg.User = user
	if err := l.store.Save(cfg); err != nil {
		return result, err
	}
	result.Config = cfg
	result.Outcome = Linked
	l.log.Debug("bridge linked", "bridge", cfg.Bridge)
	return result, nil
}

// canReuseAddress is true when an earlier setup stored an address but did
// not finish pairing, and the caller is not asking for something else.
func (l *Linker) canReuseAddress(cfg store.Config, opts SetupOptions) bool {
	if opts.Force || cfg.Bridge == "" || cfg.User != "" {
		return false
	}
	return opts.Address == "" || opts.Address == cfg.Bridge
}

func (l *Linker) selectBridge(ctx context.Context, requested string) (string, error) {
	bridges, err := l.ListBridges(ctx)
	if err != nil {
		return "", err
	}
	if requested == "" {
		return bridges[0].Address, nil
	}
	for _, b := range bridges {
		if b.Address == requested {
			return b.Address, nil
		}
	}
	return "", fmt.Errorf("%w at %s", ErrNotFound, requested)
}
