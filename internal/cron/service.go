// Package cron runs the bot's background jobs on fixed schedules.
// Jobs are registered in code at startup; there is no runtime job API.
package cron

import (
	"context"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

type Job struct {
	Name string
	Spec string // standard 5-field cron expression
	Run  func(ctx context.Context)
}

type Service struct {
	mu   sync.Mutex
	jobs []Job
	cron *rcron.Cron
}

func NewService() *Service {
	return &Service{}
}

// AddJob registers a job. Must be called before Start.
func (s *Service) AddJob(name, spec string, run func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, Job{Name: name, Spec: spec, Run: run})
}

func (s *Service) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron = rcron.New()
	for _, job := range s.jobs {
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			log.Printf("[cron] running job %s", job.Name)
			job.Run(ctx)
		})
		if err != nil {
			log.Printf("[cron] failed to register job %s (%s): %v", job.Name, job.Spec, err)
			continue
		}
	}

	s.cron.Start()
	log.Printf("[cron] started with %d jobs", len(s.jobs))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			log.Printf("[cron] stop timeout waiting for running jobs")
		}
	}
	log.Printf("[cron] stopped")
}
