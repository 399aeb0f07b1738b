package chi

import (
	"context"

	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, req askuc.Request) (askuc.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
