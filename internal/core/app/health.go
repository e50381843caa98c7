package app

import (
	"context"
	"fmt"
	"time"

	"coalesce/internal/shared/observability"
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	// Check Parser
	if s.app.loader != nil && s.app.loader.CheckExpression("$a ?? $b") == nil {
		status.Components["parser"] = fmt.Sprintf("ok (%v)", s.app.loader.SupportedExtensions())
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	level, _, _ := s.app.snapshot()
	status.Components["php_version"] = level.String()

	// Check History Store
	if s.app.history != nil {
		if _, err := s.app.history.ListRuns(ctx, s.app.projectKey(), 1); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	} else if s.app.Config().History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	return status
}
