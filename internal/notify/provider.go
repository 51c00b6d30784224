package notify

import (
	"context"

	"github.com/akvarma/devpulse/internal/model"
)

// Provider sends notifications through a specific transport. New transports
// implement this interface without touching the alert evaluator.
type Provider interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}
