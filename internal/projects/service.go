// Package projects runs sizing calculations and keeps their history for
// replay and reporting.
package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/technosupport/ts-sizer/internal/calc"
	"github.com/technosupport/ts-sizer/internal/catalog"
	"github.com/technosupport/ts-sizer/internal/data"
)

var ErrProjectNotFound = errors.New("project not found")

type Repository interface {
	Create(ctx context.Context, p *data.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*data.Project, error)
	List(ctx context.Context, filter data.ProjectFilter, limit, offset int) ([]*data.Project, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Runner is the single-site or multi-site calculation pipeline.
type Runner interface {
	Run(req calc.CalculationRequest, cat *catalog.Catalog) (*calc.CalculationResult, error)
}

// Publisher pushes completed-calculation summaries to subscribers.
type Publisher interface {
	PublishResult(result *calc.CalculationResult) error
}

// Mailer delivers a result summary to the requesting contact.
type Mailer interface {
	SendResult(ctx context.Context, to string, result *calc.CalculationResult) error
}

// Observer counts notification failures for the metrics surface.
type Observer interface {
	WebhookError()
	MailError()
}

type Service struct {
	repo      Repository
	single    Runner
	multi     Runner
	catalogs  *catalog.Manager
	publisher Publisher
	mailer    Mailer
	observer  Observer
}

// SetObserver attaches a failure counter, typically the metrics collector.
func (s *Service) SetObserver(o Observer) { s.observer = o }

func NewService(repo Repository, single, multi Runner, catalogs *catalog.Manager, pub Publisher, mail Mailer) *Service {
	return &Service{
		repo:      repo,
		single:    single,
		multi:     multi,
		catalogs:  catalogs,
		publisher: pub,
		mailer:    mail,
	}
}

// Calculate runs the pipeline against the current catalog snapshot, stores
// the outcome and fans out notifications. Notification failures are logged,
// never fatal: the caller still gets the result.
func (s *Service) Calculate(ctx context.Context, req calc.CalculationRequest) (*calc.CalculationResult, error) {
	cat := s.catalogs.Current()

	runner := s.single
	if s.useMultiSite(req) {
		runner = s.multi
	}

	result, err := runner.Run(req, cat)
	if err != nil {
		return nil, err
	}

	if err := s.store(ctx, req, result); err != nil {
		log.Printf("Projects: failed to store calculation %s: %v", result.ID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishResult(result); err != nil {
			log.Printf("Projects: webhook publish failed for %s: %v", result.ID, err)
			if s.observer != nil {
				s.observer.WebhookError()
			}
		}
	}
	if s.mailer != nil && req.ContactEmail != "" {
		if err := s.mailer.SendResult(ctx, req.ContactEmail, result); err != nil {
			log.Printf("Projects: result mail failed for %s: %v", result.ID, err)
			if s.observer != nil {
				s.observer.MailError()
			}
		}
	}

	return result, nil
}

// useMultiSite decides whether the deployment spans sites: either the
// request asks for site constraints, or it overflows the default cap.
func (s *Service) useMultiSite(req calc.CalculationRequest) bool {
	if req.Sites != nil {
		return true
	}
	return req.TotalDeviceCount() > calc.DefaultSiteConstraints().MaxDevicesPerSite
}

func (s *Service) store(ctx context.Context, req calc.CalculationRequest, result *calc.CalculationResult) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &data.Project{
		Name:         req.ProjectName,
		ContactEmail: req.ContactEmail,
		Request:      reqJSON,
		Result:       resJSON,
		Feasible:     result.Feasible,
		TotalDevices: result.TotalDevices,
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*data.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, data.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

func (s *Service) List(ctx context.Context, filter data.ProjectFilter, limit, offset int) ([]*data.Project, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, data.ErrRecordNotFound) {
		return ErrProjectNotFound
	}
	return err
}

// Replay re-runs a stored request against the current catalog. Presets may
// have changed since the original run; the stored result stays untouched.
func (s *Service) Replay(ctx context.Context, id uuid.UUID) (*calc.CalculationResult, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var req calc.CalculationRequest
	if err := json.Unmarshal(p.Request, &req); err != nil {
		return nil, err
	}

	runner := s.single
	if s.useMultiSite(req) {
		runner = s.multi
	}
	return runner.Run(req, s.catalogs.Current())
}
