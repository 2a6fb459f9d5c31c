// Package stats derives analytics and XP from the session log and renders them.
package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/focusflow/internal/model"
)

// Source loads the session log of a scope.
type Source interface {
	LoadAll(ctx context.Context, scope string) ([]model.Session, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Scope           string          `json:"scope" yaml:"scope"`
	GeneratedAt     time.Time       `json:"generatedAt" yaml:"generated_at"`
	Sessions        int             `json:"sessions" yaml:"sessions"`
	Topics          []TopicStat     `json:"topics" yaml:"topics"`
	Week            WeekSummary     `json:"week" yaml:"week"`
	LifetimeMinutes int             `json:"lifetimeMinutes" yaml:"lifetime_minutes"`
	TodayMinutes    int             `json:"todayMinutes" yaml:"today_minutes"`
	Progress        Progress        `json:"progress" yaml:"progress"`
	Recent          []model.Session `json:"recent" yaml:"recent"`
}

// Reduce computes a report from an in-memory log.
func Reduce(scope string, sessions []model.Session, now time.Time) Report {
	lifetime := LifetimeMinutes(sessions)
	today := TodayMinutes(sessions, now)
	return Report{
		Scope:           scope,
		GeneratedAt:     now,
		Sessions:        len(sessions),
		Topics:          ByTopic(sessions),
		Week:            Week(sessions, now),
		LifetimeMinutes: lifetime,
		TodayMinutes:    today,
		Progress:        ComputeProgress(lifetime, today),
		Recent:          Recent(sessions, RecentLimit),
	}
}

// BuildReport loads and reduces the log. On a load error it returns the
// report of an empty log together with the error.
func BuildReport(ctx context.Context, src Source, scope string, now time.Time) (Report, error) {
	sessions, err := src.LoadAll(ctx, scope)
	if err != nil {
		return Reduce(scope, nil, now), err
	}
	return Reduce(scope, sessions, now), nil
}
