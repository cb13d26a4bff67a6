package signer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/tiebasign/internal/config"
	"github.com/nao1215/tiebasign/internal/model"
)

// Service is the remote side of a run. *tieba.Client implements it.
type Service interface {
	Login(ctx context.Context, creds model.Credentials) error
	FollowedForums(ctx context.Context) ([]string, error)
	TBS(ctx context.Context) (string, error)
	Sign(ctx context.Context, forum, tbs string) (map[string]any, error)
}

// Signer signs every followed forum of one account.
type Signer struct {
	service   Service
	delayer   Delayer
	logger    *slog.Logger
	onOutcome func(model.Outcome)
	now       func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) {
		s.logger = logger
	}
}

// WithDelayer sets the pause taken after each successful check-in.
// The default is RandomDelay between config.DefaultMinDelay and
// config.DefaultMaxDelay.
func WithDelayer(d Delayer) Option {
	return func(s *Signer) {
		s.delayer = d
	}
}

// WithOnOutcome registers a callback invoked after each forum, in order.
func WithOnOutcome(fn func(model.Outcome)) Option {
	return func(s *Signer) {
		s.onOutcome = fn
	}
}

// WithClock replaces time.Now for the report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New creates a Signer for service.
func New(service Service, opts ...Option) *Signer {
	s := &Signer{
		service: service,
		delayer: RandomDelay{Min: config.DefaultMinDelay, Max: config.DefaultMaxDelay},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.delayer == nil {
		s.delayer = NoDelay{}
	}

	return s
}

// Authenticate logs the account in.
func (s *Signer) Authenticate(ctx context.Context, creds model.Credentials) error {
	s.logger.Info("logging in", "credentials", creds)
	if err := s.service.Login(ctx, creds); err != nil {
		return err
	}
	s.logger.Info("login succeeded")
	return nil
}

// Enumerate returns the followed forums.
func (s *Signer) Enumerate(ctx context.Context) ([]string, error) {
	forums, err := s.service.FollowedForums(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("followed forums found", "count", len(forums))
	return forums, nil
}

// SignForum signs one forum and returns its outcome. It never fails: an
// exchange error becomes a failed outcome carrying the error message.
func (s *Signer) SignForum(ctx context.Context, forum string) model.Outcome {
	resp, err := s.sign(ctx, forum)
	if err != nil {
		s.logger.Error("sign failed", "forum", forum, "error", err)
		return model.NewOutcome(forum, model.FailureResponse(err))
	}

	outcome := model.NewOutcome(forum, resp)
	s.logger.Debug("sign response", "forum", forum, "status", outcome.Status, "code", outcome.Code)

	if err := s.delayer.Wait(ctx); err != nil {
		s.logger.Debug("delay cut short", "forum", forum, "error", err)
	}
	return outcome
}

func (s *Signer) sign(ctx context.Context, forum string) (map[string]any, error) {
	tbs, err := s.service.TBS(ctx)
	if err != nil {
		return nil, err
	}
	return s.service.Sign(ctx, forum, tbs)
}

// Run performs a complete pass and returns its report.
//
// A login failure or an empty forum list return a report with
// Success=false and zero counts. When ctx is cancelled, the loop stops
// before the next forum and the partial report is returned with
// Message set to model.MessageRunInterrupted. A check-in cut short by
// the cancellation is not recorded.
func (s *Signer) Run(ctx context.Context, creds model.Credentials) *model.Report {
	started := s.now()

	report := s.run(ctx, creds)
	report.StartedAt = started
	report.FinishedAt = s.now()

	s.logger.Info("run finished",
		"success", report.Success,
		"total", report.Total,
		"signed", report.Signed,
		"already_signed", report.AlreadySigned,
		"failed", report.Failed,
		"duration", report.Duration(),
	)
	return report
}

func (s *Signer) run(ctx context.Context, creds model.Credentials) *model.Report {
	if err := s.Authenticate(ctx, creds); err != nil {
		if ctx.Err() != nil {
			return s.interrupted()
		}
		s.logger.Error("login failed", "error", err)
		return model.NewFailedReport(fmt.Sprintf("%s: %v", model.MessageLoginFailed, err))
	}

	forums, err := s.Enumerate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return s.interrupted()
		}
		s.logger.Error("failed to list followed forums", "error", err)
		return model.NewFailedReport(fmt.Sprintf("%s: %v", model.MessageNoForums, err))
	}
	if len(forums) == 0 {
		s.logger.Warn(model.MessageNoForums)
		return model.NewFailedReport(model.MessageNoForums)
	}

	report := model.NewReport(len(forums))
	for i, forum := range forums {
		if ctx.Err() != nil {
			s.logger.Warn("run interrupted", "processed", i, "total", len(forums))
			report.Message = model.MessageRunInterrupted
			break
		}

		outcome := s.SignForum(ctx, forum)
		// A check-in cut short by cancellation is not a forum failure.
		if ctx.Err() != nil && outcome.IsLocalFailure() {
			s.logger.Warn("run interrupted", "processed", i, "total", len(forums))
			report.Message = model.MessageRunInterrupted
			break
		}
		report.Add(outcome)
		s.logger.Info("forum processed",
			"forum", forum,
			"progress", fmt.Sprintf("%d/%d", i+1, len(forums)),
			"status", outcome.Label,
		)
		if s.onOutcome != nil {
			s.onOutcome(outcome)
		}
	}
	return report
}

// interrupted reports a run stopped before the forum loop started.
func (s *Signer) interrupted() *model.Report {
	s.logger.Warn("run interrupted before signing")
	return model.NewFailedReport(model.MessageRunInterrupted)
}
