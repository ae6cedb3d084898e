package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/skimeister/internal/resort"
)

// Service asks its sources for a forecast in preference order.
type Service struct {
	sources []Source
	timeout time.Duration
	log     *slog.Logger
}

// NewService creates a new Service. Sources are tried in the given order.
func NewService(log *slog.Logger, timeout time.Duration, sources ...Source) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		sources: sources,
		timeout: timeout,
		log:     log,
	}
}

// SelectSources orders registered sources by name. Unknown names and
// unregistered sources are skipped.
func SelectSources(order []string, registry map[string]Source) []Source {
	var out []Source
	seen := make(map[string]bool)
	for _, name := range order {
		src, ok := registry[name]
		if !ok || src == nil || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, src)
	}
	return out
}

// Sources returns the names of the configured sources in order.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

// Forecast returns up to seven days for target from the first source that
// produces any. Source failures are logged; the result may be empty.
func (s *Service) Forecast(ctx context.Context, target Target) []resort.ForecastDay {
	if len(s.sources) == 0 {
		s.log.Warn("no forecast sources configured", "target", target.Key())
		return nil
	}

	for _, src := range s.sources {
		days, err := s.try(ctx, src, target)
		if err != nil {
			s.log.Warn("forecast source failed", "source", src.Name(), "target", target.Key(), "error", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		days = NormalizeDays(days)
		if len(days) > 0 {
			s.log.Debug("forecast resolved", "source", src.Name(), "target", target.Key(), "days", len(days))
			return days
		}
	}

	s.log.Info("no forecast available", "target", target.Key())
	return nil
}

func (s *Service) try(ctx context.Context, src Source, target Target) ([]resort.ForecastDay, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return src.Forecast(ctx, target)
}
