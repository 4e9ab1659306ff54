// Package snsctx carries per-call transport options through a context.
package snsctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexDevice
)

// IsVerbose reports whether transports should dump the frames they exchange.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// SetDevice selects which of several identical USB adapters to use, by
// enumeration index.
func SetDevice(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, ctxIndexDevice, index)
}

func Device(ctx context.Context) (int, bool) {
	val, ok := ctx.Value(ctxIndexDevice).(int)
	return val, ok
}
