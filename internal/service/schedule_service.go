package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/repository"
	"github.com/campushq/scheduling-api/pkg/config"
	"github.com/campushq/scheduling-api/pkg/database"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Schedule, error)
	FindActiveByNaturalKey(ctx context.Context, exec sqlx.ExtContext, roomID, date, startTime string) (*models.Schedule, error)
	AcquireKeyLocks(ctx context.Context, exec sqlx.ExtContext, keys []string) error
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	Update(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	Cancel(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type transactor interface {
	WithTransaction(ctx context.Context, fn func(tx sqlx.ExtContext) error) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateTimetables(ctx context.Context) error
}

// CreateScheduleRequest describes the payload for booking a session.
type CreateScheduleRequest struct {
	RoomID       string `json:"room_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
}

func (r CreateScheduleRequest) proposal() models.ScheduleProposal {
	return models.ScheduleProposal{
		RoomID:       r.RoomID,
		CourseID:     r.CourseID,
		InstructorID: r.InstructorID,
		Interval:     models.TimeInterval{Date: r.Date, StartTime: r.StartTime, EndTime: r.EndTime},
	}
}

// UpdateScheduleRequest rebooks an existing schedule; it passes through the
// same validation path as creation.
type UpdateScheduleRequest = CreateScheduleRequest

// BulkCreateSchedulesRequest holds an ordered batch of proposals. The batch
// commits all-or-nothing.
type BulkCreateSchedulesRequest struct {
	Items []CreateScheduleRequest `json:"items" validate:"required,min=1,dive"`
}

// UpsertResult reports whether the natural key routed to insert or update.
type UpsertResult struct {
	Schedule *models.Schedule `json:"schedule"`
	Created  bool             `json:"created"`
}

type timetablePage struct {
	Schedules  []models.Schedule  `json:"schedules"`
	Pagination *models.Pagination `json:"pagination"`
}

// ScheduleService coordinates validation and transactional commits for
// schedules. Concurrent commits against the same room+date or
// instructor+date serialise on advisory key locks; disjoint keys proceed in
// parallel.
type ScheduleService struct {
	repo      scheduleRepository
	validator *ScheduleValidator
	tx        transactor
	cache     timetableCache
	metrics   *MetricsService
	payload   *validator.Validate
	logger    *zap.Logger
	cfg       config.SchedulingConfig
	cacheCfg  config.TimetableConfig
}

// NewScheduleService instantiates ScheduleService. cache and metrics may be
// nil.
func NewScheduleService(repo scheduleRepository, schedValidator *ScheduleValidator, tx transactor, cache timetableCache, metrics *MetricsService, payload *validator.Validate, logger *zap.Logger, cfg config.SchedulingConfig, cacheCfg config.TimetableConfig) *ScheduleService {
	if payload == nil {
		payload = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		validator: schedValidator,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		payload:   payload,
		logger:    logger,
		cfg:       cfg,
		cacheCfg:  cacheCfg,
	}
}

// List returns schedules with pagination metadata, served from the timetable
// cache when possible.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	cacheable := s.cache != nil && s.cacheCfg.CacheEnabled && filter.SortBy == "" && filter.SortOrder == "" && filter.Status == ""
	cacheKey := ""
	if cacheable {
		cacheKey = timetableCacheKey(filter, page, size)
		var cached timetablePage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached.Schedules, cached.Pagination, nil
		}
	}

	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if cacheable {
		if err := s.cache.Set(ctx, cacheKey, timetablePage{Schedules: schedules, Pagination: pagination}, s.cacheCfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.Error(err))
		}
	}

	return schedules, pagination, nil
}

// Get loads one schedule.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	sched, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return sched, nil
}

// Create validates a proposal and commits it atomically. The fast pre-check
// outside the transaction rejects hopeless proposals cheaply; the decision
// that counts is re-run inside the transaction with the key locks held, so
// two concurrent overlapping commits can never both succeed.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	proposal := req.proposal()

	pre, err := s.validate(ctx, nil, proposal, "")
	if err != nil {
		return nil, err
	}
	if !pre.Accepted {
		return nil, s.rejectSingle(pre)
	}

	var created *models.Schedule
	err = s.commit(ctx, func(tx sqlx.ExtContext) error {
		if err := s.repo.AcquireKeyLocks(ctx, tx, lockKeys(proposal)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scheduling keys")
		}
		result, err := s.validate(ctx, tx, proposal, "")
		if err != nil {
			return err
		}
		if !result.Accepted {
			return s.rejectSingle(result)
		}

		sched := scheduleFromProposal(proposal)
		if err := s.repo.Create(ctx, tx, &sched); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		}
		created = &sched
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCommit(CommitOutcomeCommitted)
	s.invalidateTimetables(ctx)
	return created, nil
}

// Update rebooks a schedule through the full validation path. The schedule
// never conflicts with its own prior version.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.ScheduleStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot modify a cancelled schedule")
	}

	proposal := req.proposal()

	pre, err := s.validate(ctx, nil, proposal, id)
	if err != nil {
		return nil, err
	}
	if !pre.Accepted {
		return nil, s.rejectSingle(pre)
	}

	var updated *models.Schedule
	err = s.commit(ctx, func(tx sqlx.ExtContext) error {
		// Lock the old placement too so a concurrent move into the slot
		// being vacated still serialises against this commit.
		if err := s.repo.AcquireKeyLocks(ctx, tx, lockKeys(proposal, proposalOf(*existing))); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scheduling keys")
		}

		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
		if current.Status == models.ScheduleStatusCancelled {
			return appErrors.Clone(appErrors.ErrConflict, "cannot modify a cancelled schedule")
		}

		result, err := s.validate(ctx, tx, proposal, id)
		if err != nil {
			return err
		}
		if !result.Accepted {
			return s.rejectSingle(result)
		}

		next := *current
		next.RoomID = proposal.RoomID
		next.CourseID = proposal.CourseID
		next.InstructorID = proposal.InstructorID
		next.Date = proposal.Interval.Date
		next.StartTime = proposal.Interval.StartTime
		next.EndTime = proposal.Interval.EndTime
		if err := s.repo.Update(ctx, tx, &next); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCommit(CommitOutcomeCommitted)
	s.invalidateTimetables(ctx)
	return updated, nil
}

// Cancel soft-deletes a schedule. Cancelling twice is a no-op.
func (s *ScheduleService) Cancel(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == models.ScheduleStatusCancelled {
		return nil
	}

	if err := s.repo.Cancel(ctx, nil, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel schedule")
	}
	s.invalidateTimetables(ctx)
	return nil
}

// BulkCreate commits an ordered batch of proposals atomically. If any item
// fails validation, nothing is persisted; the result reports every violation
// of every item, including conflicts between batch items.
func (s *ScheduleService) BulkCreate(ctx context.Context, req BulkCreateSchedulesRequest) ([]models.Schedule, error) {
	if err := s.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk schedule payload")
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Items) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch exceeds the configured size limit")
	}

	proposals := make([]models.ScheduleProposal, len(req.Items))
	for i, item := range req.Items {
		proposals[i] = item.proposal()
	}

	pre, err := s.validateBatch(ctx, nil, proposals)
	if err != nil {
		return nil, err
	}
	if !pre.Accepted {
		return nil, s.rejectBatch(pre)
	}

	var created []models.Schedule
	err = s.commit(ctx, func(tx sqlx.ExtContext) error {
		if err := s.repo.AcquireKeyLocks(ctx, tx, lockKeys(proposals...)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scheduling keys")
		}
		result, err := s.validateBatch(ctx, tx, proposals)
		if err != nil {
			return err
		}
		if !result.Accepted {
			return s.rejectBatch(result)
		}

		created = make([]models.Schedule, 0, len(proposals))
		for _, proposal := range proposals {
			sched := scheduleFromProposal(proposal)
			if err := s.repo.Create(ctx, tx, &sched); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
			}
			created = append(created, sched)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCommit(CommitOutcomeCommitted)
	s.invalidateTimetables(ctx)
	return created, nil
}

// Upsert inserts or updates by the (room, date, start time) natural key.
// Both branches pass through the same validation path; the branch decision
// happens inside the transaction so it cannot race a concurrent insert.
func (s *ScheduleService) Upsert(ctx context.Context, req CreateScheduleRequest) (*UpsertResult, error) {
	if err := s.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	proposal := req.proposal()

	var result *UpsertResult
	err := s.commit(ctx, func(tx sqlx.ExtContext) error {
		if err := s.repo.AcquireKeyLocks(ctx, tx, lockKeys(proposal)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scheduling keys")
		}

		existing, err := s.repo.FindActiveByNaturalKey(ctx, tx, proposal.RoomID, proposal.Interval.Date, proposal.Interval.StartTime)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve natural key")
		}

		excludeID := ""
		if existing != nil {
			excludeID = existing.ID
		}
		validation, err := s.validate(ctx, tx, proposal, excludeID)
		if err != nil {
			return err
		}
		if !validation.Accepted {
			return s.rejectSingle(validation)
		}

		if existing != nil {
			next := *existing
			next.CourseID = proposal.CourseID
			next.InstructorID = proposal.InstructorID
			next.EndTime = proposal.Interval.EndTime
			if err := s.repo.Update(ctx, tx, &next); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
			}
			result = &UpsertResult{Schedule: &next, Created: false}
			return nil
		}

		sched := scheduleFromProposal(proposal)
		if err := s.repo.Create(ctx, tx, &sched); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		}
		result = &UpsertResult{Schedule: &sched, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCommit(CommitOutcomeCommitted)
	s.invalidateTimetables(ctx)
	return result, nil
}

func (s *ScheduleService) validate(ctx context.Context, exec sqlx.ExtContext, proposal models.ScheduleProposal, excludeID string) (models.ValidationResult, error) {
	start := time.Now()
	result, err := s.validator.Validate(ctx, exec, proposal, excludeID)
	s.metrics.ObserveValidationDuration(time.Since(start))
	return result, err
}

func (s *ScheduleService) validateBatch(ctx context.Context, exec sqlx.ExtContext, proposals []models.ScheduleProposal) (models.BatchValidationResult, error) {
	start := time.Now()
	result, err := s.validator.ValidateBatch(ctx, exec, proposals)
	s.metrics.ObserveValidationDuration(time.Since(start))
	return result, err
}

func (s *ScheduleService) rejectSingle(result models.ValidationResult) error {
	s.metrics.ObserveCommit(CommitOutcomeRejected)
	s.metrics.ObserveViolations(result.Violations)
	rejected := &models.ScheduleRejectedError{Message: "schedule validation failed", Result: &result}
	return appErrors.Wrap(rejected, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, rejected.Message)
}

func (s *ScheduleService) rejectBatch(batch models.BatchValidationResult) error {
	s.metrics.ObserveCommit(CommitOutcomeRejected)
	for _, item := range batch.Items {
		s.metrics.ObserveViolations(item.Violations)
	}
	rejected := &models.ScheduleRejectedError{Message: "bulk schedule validation failed", Batch: &batch}
	return appErrors.Wrap(rejected, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, rejected.Message)
}

// commit runs fn inside one transaction and normalises serialization or
// deadlock failures into a distinct retryable error kind.
func (s *ScheduleService) commit(ctx context.Context, fn func(tx sqlx.ExtContext) error) error {
	err := s.tx.WithTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	if database.IsSerializationFailure(err) {
		s.metrics.ObserveCommit(CommitOutcomeRolledBack)
		s.logger.Warn("schedule commit lost a serialization race", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrTxSerialization.Code, appErrors.ErrTxSerialization.Status, appErrors.ErrTxSerialization.Message)
	}
	return err
}

func (s *ScheduleService) invalidateTimetables(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTimetables(ctx); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
	}
}

func scheduleFromProposal(proposal models.ScheduleProposal) models.Schedule {
	return models.Schedule{
		RoomID:       proposal.RoomID,
		CourseID:     proposal.CourseID,
		InstructorID: proposal.InstructorID,
		Date:         proposal.Interval.Date,
		StartTime:    proposal.Interval.StartTime,
		EndTime:      proposal.Interval.EndTime,
		Status:       models.ScheduleStatusActive,
	}
}

func proposalOf(sched models.Schedule) models.ScheduleProposal {
	return models.ScheduleProposal{
		RoomID:       sched.RoomID,
		CourseID:     sched.CourseID,
		InstructorID: sched.InstructorID,
		Interval:     sched.Interval(),
	}
}

// lockKeys derives the advisory lock keys for the given proposals, deduped
// and sorted so every commit acquires them in the same global order.
func lockKeys(proposals ...models.ScheduleProposal) []string {
	set := make(map[string]struct{}, len(proposals)*2)
	for _, p := range proposals {
		set["sched:room:"+p.RoomID+":"+p.Interval.Date] = struct{}{}
		set["sched:instructor:"+p.InstructorID+":"+p.Interval.Date] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func timetableCacheKey(filter models.ScheduleFilter, page, size int) string {
	return repository.TimetableKey(filter.Date, filter.RoomID, filter.InstructorID, filter.CourseID, page, size)
}
