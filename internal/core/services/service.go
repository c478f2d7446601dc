package services

import "context"

// Service is a single use case. Run owns its unit of work: it either commits
// everything it changed or nothing.
type Service[T any, S any] interface {
	Run(ctx context.Context, input T) (S, error)
}
