package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

const (
	reportGenerationKey = "reports:gen"
	reportKeyPrefix     = "reports:v"
	dateKeyLayout       = "20060102T150405Z"
)

// ReportCache stores generated reports in Redis. Keys embed a generation number;
// Invalidate bumps the generation so older entries are never read again and
// expire on their TTL.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache returns nil when Redis is disabled or ttl is zero.
func NewReportCache(r *Redis, ttl time.Duration) *ReportCache {
	if !r.Enabled() || ttl <= 0 {
		return nil
	}
	return &ReportCache{client: r.Client, ttl: ttl}
}

// Generation returns the current cache generation. Callers read it once per
// request and pass it to both Get and Set, so a report computed while an
// invalidation lands is stored under the superseded generation and never served.
func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, reportGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("read report generation: %w", err)
	}
	return gen, nil
}

// Get loads a cached report stored under gen. The boolean is false on a miss.
func (c *ReportCache) Get(ctx context.Context, gen int64, reportType domain.ReportType, rng domain.DateRange) (*domain.Report, bool, error) {
	raw, err := c.client.Get(ctx, ReportCacheKey(gen, reportType, rng)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached report: %w", err)
	}

	var cached cachedReport
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	report := cached.toReport()
	return &report, true, nil
}

// Set stores a report under gen.
func (c *ReportCache) Set(ctx context.Context, gen int64, report *domain.Report, rng domain.DateRange) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return c.client.Set(ctx, ReportCacheKey(gen, report.Type, rng), raw, c.ttl).Err()
}

// Invalidate makes every cached report stale.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, reportGenerationKey).Err()
}

// ReportCacheKey builds the Redis key for one report request.
func ReportCacheKey(gen int64, reportType domain.ReportType, rng domain.DateRange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%d:%s", reportKeyPrefix, gen, reportType)
	for _, bound := range []*time.Time{rng.From, rng.To} {
		b.WriteByte(':')
		if bound == nil {
			b.WriteByte('-')
			continue
		}
		b.WriteString(bound.UTC().Format(dateKeyLayout))
	}
	return b.String()
}

// cachedReport keeps the data block as raw JSON; it is served back verbatim.
type cachedReport struct {
	Type        domain.ReportType `json:"report_type"`
	GeneratedAt time.Time         `json:"generated_at"`
	FromDate    *time.Time        `json:"from_date"`
	ToDate      *time.Time        `json:"to_date"`
	Summary     string            `json:"summary"`
	Data        json.RawMessage   `json:"data"`
}

func (c cachedReport) toReport() domain.Report {
	return domain.Report{
		Type:        c.Type,
		GeneratedAt: c.GeneratedAt,
		FromDate:    c.FromDate,
		ToDate:      c.ToDate,
		Summary:     c.Summary,
		Data:        c.Data,
	}
}
