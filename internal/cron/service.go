// Package cron runs persisted background jobs such as periodic rematching.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/stellarlinkco/lostfound/internal/logger"
)

// Handler runs a fired job and returns a short summary for the log.
type Handler func(ctx context.Context, job CronJob) (string, error)

type Service struct {
	storePath string
	mu        sync.Mutex
	jobs      []CronJob
	OnJob     Handler
	cron      *rcron.Cron
	entryMap  map[string]rcron.EntryID // job ID -> cron entry ID
	runCtx    context.Context
	cancel    context.CancelFunc
	stopCh    chan struct{}
	log       *logger.Logger
}

func NewService(storePath string) *Service {
	return &Service{
		storePath: storePath,
		entryMap:  make(map[string]rcron.EntryID),
		runCtx:    context.Background(),
		log:       logger.Named("cron"),
	}
}

func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	stopCh := make(chan struct{})
	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.stopCh = stopCh
	s.mu.Unlock()

	if err := s.load(); err != nil {
		s.log.Warn().Err(err).Msg("failed to load jobs")
	}

	s.cron = rcron.New(rcron.WithSeconds())

	s.mu.Lock()
	for i := range s.jobs {
		if s.jobs[i].Enabled && s.jobs[i].Schedule.Kind == KindCron {
			s.registerJob(&s.jobs[i])
		}
	}
	count := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info().Int("jobs", count).Msg("started")

	go s.tickLoop(runCtx)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
			return
		}
	}()

	return nil
}

func (s *Service) registerJob(job *CronJob) {
	jobCopy := *job
	id, err := s.cron.AddFunc(job.Schedule.Expr, func() {
		s.executeJob(jobCopy)
	})
	if err != nil {
		s.log.Error().Err(err).Str("job", job.Name).Str("expr", job.Schedule.Expr).Msg("failed to register job")
		return
	}
	s.entryMap[job.ID] = id
}

func (s *Service) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}

func (s *Service) executeJob(job CronJob) {
	s.log.Debug().Str("job", job.Name).Str("id", job.ID).Msg("executing job")

	if s.OnJob == nil {
		s.log.Warn().Str("job", job.Name).Msg("no OnJob handler set")
		return
	}

	result, err := s.OnJob(s.runContext(), job)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID != job.ID {
			continue
		}
		s.jobs[i].State.LastRunAtMs = time.Now().UnixMilli()
		if err != nil {
			s.jobs[i].State.LastStatus = "error"
			s.jobs[i].State.LastError = err.Error()
			s.log.Error().Err(err).Str("job", job.Name).Msg("job failed")
		} else {
			s.jobs[i].State.LastStatus = "ok"
			s.jobs[i].State.LastError = ""
			s.log.Info().Str("job", job.Name).Str("result", truncate(result, 100)).Msg("job done")
		}

		if s.jobs[i].DeleteAfterRun {
			if entryID, ok := s.entryMap[job.ID]; ok && s.cron != nil {
				s.cron.Remove(entryID)
				delete(s.entryMap, job.ID)
			}
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		}
		break
	}

	if err := s.save(); err != nil {
		s.log.Warn().Err(err).Msg("failed to save jobs")
	}
}

func (s *Service) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, job := range s.dueJobs(time.Now().UnixMilli()) {
				s.executeJob(job)
			}
		case <-ctx.Done():
			return
		}
	}
}

// dueJobs collects interval and one-shot jobs whose time has come. One-shot
// jobs are disabled as they are collected so they fire once.
func (s *Service) dueJobs(now int64) []CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []CronJob
	for i := range s.jobs {
		job := &s.jobs[i]
		if !job.Enabled {
			continue
		}
		switch job.Schedule.Kind {
		case KindEvery:
			if job.Schedule.EveryMs > 0 && now >= job.State.LastRunAtMs+job.Schedule.EveryMs {
				due = append(due, *job)
			}
		case KindAt:
			if job.Schedule.AtMs > 0 && now >= job.Schedule.AtMs {
				job.Enabled = false
				due = append(due, *job)
			}
		}
	}
	return due
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopCh := s.stopCh
	s.cancel = nil
	s.stopCh = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if stopCh != nil {
		close(stopCh)
	}

	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			s.log.Warn().Msg("stop timeout waiting for running jobs")
		}
	}
	s.log.Info().Msg("stopped")
}

func (s *Service) AddJob(name string, schedule Schedule, payload Payload) (*CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := NewCronJob(name, schedule, payload)
	s.jobs = append(s.jobs, job)

	if job.Schedule.Kind == KindCron && s.cron != nil {
		s.registerJob(&s.jobs[len(s.jobs)-1])
	}

	if err := s.save(); err != nil {
		return nil, fmt.Errorf("save jobs: %w", err)
	}

	return &job, nil
}

// EnsureJob adds a job named name, or updates the schedule and payload of
// the existing one while keeping its run state. Call it after Start so jobs
// loaded from disk are seen.
func (s *Service) EnsureJob(name string, schedule Schedule, payload Payload) (*CronJob, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return s.AddJob(name, schedule, payload)
	}
	defer s.mu.Unlock()

	job := &s.jobs[idx]
	if entryID, ok := s.entryMap[job.ID]; ok && s.cron != nil {
		s.cron.Remove(entryID)
		delete(s.entryMap, job.ID)
	}
	job.Schedule = schedule
	job.Payload = payload
	job.Enabled = true
	if job.Schedule.Kind == KindCron && s.cron != nil {
		s.registerJob(job)
	}

	if err := s.save(); err != nil {
		return nil, fmt.Errorf("save jobs: %w", err)
	}
	out := *job
	return &out, nil
}

func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.jobs {
		if job.ID == id {
			if entryID, ok := s.entryMap[id]; ok && s.cron != nil {
				s.cron.Remove(entryID)
				delete(s.entryMap, id)
			}
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			_ = s.save()
			return true
		}
	}
	return false
}

func (s *Service) ListJobs() []CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]CronJob, len(s.jobs))
	copy(result, s.jobs)
	return result
}

func (s *Service) EnableJob(id string, enabled bool) (*CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID != id {
			continue
		}
		s.jobs[i].Enabled = enabled
		if s.jobs[i].Schedule.Kind == KindCron && s.cron != nil {
			entryID, registered := s.entryMap[id]
			switch {
			case enabled && !registered:
				s.registerJob(&s.jobs[i])
			case !enabled && registered:
				s.cron.Remove(entryID)
				delete(s.entryMap, id)
			}
		}
		_ = s.save()
		job := s.jobs[i]
		return &job, nil
	}
	return nil, fmt.Errorf("job %s not found", id)
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.jobs)
}

// save writes the job list through a temp file and rename. Callers hold mu.
func (s *Service) save() error {
	dir := filepath.Dir(s.storePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.storePath)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.storePath)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
