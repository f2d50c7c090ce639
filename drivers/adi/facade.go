package adi

import (
	"context"

	"adicode-go/errcode"
	"adicode-go/types"
)

// Transport is the raw per-port primitive set of one ADI expander. Ports are
// 0-based. Implementations need not be safe for concurrent use; the Facade
// serialises access.
type Transport interface {
	ConfigSet(port int, cfg types.PortConfig) error
	ConfigGet(port int) (types.PortConfig, error)
	ValueSet(port int, v int32) error
	ValueGet(port int) (int32, error)
}

// Facade grants exclusive access to the expander. Claim blocks until access
// is granted or ctx is done; every successful Claim must be paired with
// exactly one Release.
type Facade interface {
	Claim(ctx context.Context) (Transport, error)
	Release()
}

// Ensure the default facade satisfies the contract at compile time.
var _ Facade = (*semFacade)(nil)

// semFacade serialises a Transport behind a one-slot semaphore so that a
// waiting Claim can be abandoned through its context.
type semFacade struct {
	sem chan struct{}
	t   Transport
}

// NewFacade wraps t with exclusive-access claim/release.
func NewFacade(t Transport) Facade {
	return &semFacade{sem: make(chan struct{}, 1), t: t}
}

func (f *semFacade) Claim(ctx context.Context) (Transport, error) {
	select {
	case f.sem <- struct{}{}:
		return f.t, nil
	case <-ctx.Done():
		return nil, errcode.Wrap(errcode.Busy, "claim", ctx.Err())
	}
}

func (f *semFacade) Release() {
	select {
	case <-f.sem:
	default:
		panic("adi: release without claim")
	}
}
