package health

import (
	"context"
	"sync"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates neither retrieval source is reachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing marks an optional component that is not there yet. It does not degrade status.
	CheckMissing CheckResult = "missing"
)

// Component names in a Report.
const (
	ComponentVectorIndex = "vector_index"
	ComponentChunkStore  = "chunk_store"
	ComponentEmbedding   = "embedding"
	ComponentModel       = "relevance_model"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	vectors   Pinger
	chunks    Pinger
	embedding EmbeddingChecker
	model     ModelReporter
}

// New creates a Service. embedding and model can be nil.
func New(vectors, chunks Pinger, embedding EmbeddingChecker, model ModelReporter) *Service {
	return &Service{vectors: vectors, chunks: chunks, embedding: embedding, model: model}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult)
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := CheckOK
			if err := fn(ctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}

	run(ComponentVectorIndex, s.vectors.Ping)
	run(ComponentChunkStore, s.chunks.Ping)
	if s.embedding != nil {
		run(ComponentEmbedding, s.embedding.HealthCheck)
	}
	wg.Wait()

	if s.model != nil {
		if s.model.Model() != nil {
			checks[ComponentModel] = CheckOK
		} else {
			checks[ComponentModel] = CheckMissing
		}
	}

	return Report{Status: aggregate(checks), Checks: checks}
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[ComponentVectorIndex] == CheckError && checks[ComponentChunkStore] == CheckError {
		return Unhealthy
	}
	for _, v := range checks {
		if v == CheckError {
			return Degraded
		}
	}
	return Healthy
}
