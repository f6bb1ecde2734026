package cron

import (
	"time"

	"github.com/google/uuid"
)

// Schedule kinds.
const (
	KindEvery = "every"
	KindCron  = "cron"
	KindAt    = "at"
)

// TaskRematch re-runs matching over recently filed reports.
const TaskRematch = "rematch"

type Schedule struct {
	Kind    string `json:"kind"`
	EveryMs int64  `json:"everyMs,omitempty"`
	Expr    string `json:"expr,omitempty"` // six-field cron expression
	AtMs    int64  `json:"atMs,omitempty"`
}

// Payload tells the handler what to do when the job fires.
type Payload struct {
	Task     string `json:"task"`
	MinScore int    `json:"minScore,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type JobState struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// LastRun returns the previous run time, or the zero time if the job never ran.
func (s JobState) LastRun() time.Time {
	if s.LastRunAtMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastRunAtMs).UTC()
}

type CronJob struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	Schedule       Schedule `json:"schedule"`
	Payload        Payload  `json:"payload"`
	State          JobState `json:"state"`
	CreatedAtMs    int64    `json:"createdAtMs"`
	DeleteAfterRun bool     `json:"deleteAfterRun,omitempty"`
}

func NewCronJob(name string, schedule Schedule, payload Payload) CronJob {
	return CronJob{
		ID:          uuid.NewString(),
		Name:        name,
		Enabled:     true,
		Schedule:    schedule,
		Payload:     payload,
		CreatedAtMs: time.Now().UnixMilli(),
	}
}

// Every builds an interval schedule.
func Every(d time.Duration) Schedule {
	return Schedule{Kind: KindEvery, EveryMs: d.Milliseconds()}
}
