// Package pipeline runs a remote stage and falls back to a heuristic stage.
package pipeline

import (
	"context"
	"errors"
)

// Stage identifies which stage produced a result.
type Stage string

const (
	StageRemote    Stage = "remote"
	StageHeuristic Stage = "heuristic"
	StageNone      Stage = "none"
)

// ErrNotConfigured is returned by remote stages that have nothing to call.
var ErrNotConfigured = errors.New("remote stage not configured")

// Remote fetches a record from an external source.
type Remote[T any] func(ctx context.Context) (*T, error)

// Heuristic computes a record locally. A nil record with a nil error means
// the module does not apply.
type Heuristic[T any] func() (*T, error)

// Outcome is the typed result of a run.
type Outcome[T any] struct {
	Value     *T
	Stage     Stage
	RemoteErr error
}

// Run tries remote first and falls back to heuristic on any remote error or
// empty remote result. A heuristic error is returned as is.
func Run[T any](ctx context.Context, remote Remote[T], heuristic Heuristic[T]) (Outcome[T], error) {
	var out Outcome[T]

	if remote != nil {
		v, err := remote(ctx)
		if err == nil && v != nil {
			out.Value = v
			out.Stage = StageRemote
			return out, nil
		}
		out.RemoteErr = err
	}

	if ctx.Err() != nil {
		out.Stage = StageNone
		return out, ctx.Err()
	}

	if heuristic == nil {
		out.Stage = StageNone
		return out, nil
	}
	v, err := heuristic()
	if err != nil {
		out.Stage = StageNone
		return out, err
	}
	if v == nil {
		out.Stage = StageNone
		return out, nil
	}
	out.Value = v
	out.Stage = StageHeuristic
	return out, nil
}
