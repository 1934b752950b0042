package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/session"
)

type Config struct {
	Sessions     session.Store
	Catalog      *catalog.Catalog
	EventBus     *event.Bus
	Locker       Locker
	Sink         Sink
	Notifier     Notifier
	Unsubscribes Unsubscribes

	ShareBaseURL string
	LockWait     time.Duration
}

type Service struct {
	sessions session.Store
	catalog  *catalog.Catalog
	eb       *event.Bus
	locker   Locker
	sink     Sink
	notifier Notifier
	unsubs   Unsubscribes

	shareBaseURL string
	lockWait     time.Duration
	now          func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		sessions:     c.Sessions,
		catalog:      c.Catalog,
		eb:           c.EventBus,
		locker:       c.Locker,
		sink:         c.Sink,
		notifier:     c.Notifier,
		unsubs:       c.Unsubscribes,
		shareBaseURL: c.ShareBaseURL,
		lockWait:     c.LockWait,
		now:          time.Now,
	}

	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.unsubs == nil {
		s.unsubs = NewMemoryUnsubscribes()
	}
	if s.lockWait <= 0 {
		s.lockWait = DefaultLockWait
	}
	if s.catalog == nil {
		s.catalog = catalog.New()
	}

	return s
}

type SubmitRequest struct {
	SessionID       string
	Student         Student
	DurationSeconds int
	TimeSpentMS     map[string]int
}

type SubmitResponse struct {
	AttemptID string
	// Notified is false when the address opted out or no notifier is configured.
	Notified bool
	Payload  Payload
}

// Submit stores the report of a scored session and notifies the student unless
// they unsubscribed. Storing and notifying run under the report lock.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	student := req.Student.Normalize()
	if err := student.Validate(); err != nil {
		return nil, err
	}

	ss, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if ss.Result == nil {
		return nil, errors.NotFound("session has no result yet: %s", req.SessionID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate attempt ID: %w", err)
	}

	p := BuildPayload(BuildRequest{
		AttemptID:       id.String(),
		Student:         student,
		Session:         ss,
		Catalog:         s.catalog,
		ShareBaseURL:    s.shareBaseURL,
		DurationSeconds: req.DurationSeconds,
		TimeSpentMS:     req.TimeSpentMS,
	})

	release, err := s.locker.Acquire(ctx, s.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.sink != nil {
		a, rs := Rows(p, s.now())
		if err := s.sink.Append(ctx, a, rs); err != nil {
			return nil, errors.Unavailable(err, "store report failed: attempt=%s", p.AttemptID)
		}
	}

	notified, err := s.notify(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.eb != nil {
		names := make([]string, 0, len(p.WeakTopics))
		for _, wt := range p.WeakTopics {
			names = append(names, wt.Name)
		}
		s.eb.Publish(ctx, domain.EventReportSubmitted{
			AttemptID:  p.AttemptID,
			WeakTopics: names,
			Notified:   notified,
		})
	}

	return &SubmitResponse{AttemptID: p.AttemptID, Notified: notified, Payload: p}, nil
}

func (s *Service) notify(ctx context.Context, p Payload) (bool, error) {
	if s.notifier == nil {
		return false, nil
	}

	off, err := s.unsubs.IsUnsubscribed(ctx, p.Student.Email)
	if err != nil {
		return false, errors.Unavailable(err, "check unsubscribe failed")
	}
	if off {
		slog.InfoContext(ctx, "report: skip notification for unsubscribed address", "attempt", p.AttemptID)
		return false, nil
	}

	// A failed notification does not fail an attempt that is already stored.
	if err := s.notifier.Notify(ctx, p); err != nil {
		slog.ErrorContext(ctx, "report: notify failed", "attempt", p.AttemptID, "error", err)
		return false, nil
	}

	return true, nil
}

// Unsubscribe opts email out of report notifications. Repeating it is a no-op.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	e := Student{Name: "-", Email: email}.Normalize()
	if err := e.Validate(); err != nil {
		return err
	}

	if err := s.unsubs.Unsubscribe(ctx, e.Email); err != nil {
		return errors.Unavailable(err, "unsubscribe failed")
	}

	slog.InfoContext(ctx, "report: address unsubscribed")
	return nil
}
