package notifications

import (
	"context"
	"errors"
	"fmt"
)

// Sender delivers a composed message and returns the transport's delivery
// id. Any error is final for that send; the pipeline does not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Expected skip conditions for workout-completion events.
var (
	ErrNoAssignedCoach = errors.New("athlete has no assigned coach")
	ErrCoachHasNoToken = errors.New("coach has no delivery token")
)

// ErrUnknownCollection is returned by LoadEvent for collections that do not
// produce notifications.
var ErrUnknownCollection = errors.New("unknown collection")

// DeliveryError wraps a transport failure for one send. BadToken marks a
// rejection of this recipient's token; the transport itself is healthy.
type DeliveryError struct {
	Provider string
	BadToken bool
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StoreError wraps a store read fault.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
