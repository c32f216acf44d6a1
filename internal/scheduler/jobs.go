package scheduler

import (
	"context"
	"errors"
	"time"

	distributiondomain "github.com/smallbiznis/settlement/internal/distribution/domain"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	"github.com/smallbiznis/settlement/internal/runlock"
	"github.com/smallbiznis/settlement/internal/scheduler/guard"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/zap"
)

// closedPeriod returns the previous month once the close grace has passed.
func (s *Scheduler) closedPeriod() (start, end time.Time, ok bool) {
	now := s.clock.Now()
	start, end = guard.PreviousMonth(now)
	if err := guard.EnsurePeriodClosed(end, now, s.cfg.CloseGrace); err != nil {
		return start, end, false
	}
	return start, end, true
}

// withLock runs fn while holding key. It reports false when another
// instance holds the lock.
func (s *Scheduler) withLock(ctx context.Context, job, key string, fn func(context.Context) error) (bool, error) {
	release, ok, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger(ctx).Warn("failed to release run lock", zap.String("job", job), zap.String("key", key), zap.Error(err))
		}
	}()
	return true, fn(ctx)
}

// SettlementEngineJob settles the configured parties for the previous month,
// once per month.
func (s *Scheduler) SettlementEngineJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobSettlementEngine)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	start, end, due := s.closedPeriod()
	period := guard.PeriodKey(start)
	if len(s.cfg.Parties) == 0 {
		s.logJobSkipped(ctx, JobSettlementEngine, obsmetrics.SchedulerSkipReasonNoParties, period)
		return nil
	}
	if !due {
		s.logJobSkipped(ctx, JobSettlementEngine, obsmetrics.SchedulerSkipReasonOutsideWindow, period)
		return nil
	}
	if s.alreadyCompleted(JobSettlementEngine, period) {
		s.logJobSkipped(ctx, JobSettlementEngine, obsmetrics.SchedulerSkipReasonAlreadyRan, period)
		return nil
	}

	acquired, err := s.withLock(ctx, JobSettlementEngine, runlock.EngineRunKey(start, end), func(ctx context.Context) error {
		ruleSet, err := s.policy.RuleSet(ctx)
		if err != nil {
			return err
		}
		result, err := s.engine.GenerateSettlements(ctx, settlementdomain.Config{
			PeriodStart:    start,
			PeriodEnd:      end,
			Parties:        s.cfg.Parties,
			RuleSet:        ruleSet,
			Tag:            "scheduled:" + period,
			MaxParallelism: s.cfg.MaxParallelism,
			PerformedBy:    s.cfg.PerformedBy,
		})
		if err != nil {
			return err
		}
		run.AddProcessed(len(result.Settlements))
		s.metrics.AddBatchProcessed(JobSettlementEngine, "settlement", len(result.Settlements))
		s.metrics.AddBatchProcessed(JobSettlementEngine, "settlement_item", len(result.SettlementItems))
		return nil
	})
	if errors.Is(err, settlementdomain.ErrSettlementLocked) {
		// the period has settlements past pending; rerunning cannot succeed
		s.logJobSkipped(ctx, JobSettlementEngine, obsmetrics.SchedulerSkipReasonSettled, period)
		s.markCompleted(JobSettlementEngine, period)
		return nil
	}
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.settlement_engine.failed", JobSettlementEngine, err, zap.String("period", period))
		return err
	}
	if !acquired {
		s.logJobSkipped(ctx, JobSettlementEngine, obsmetrics.SchedulerSkipReasonLockHeld, period)
		return nil
	}
	s.markCompleted(JobSettlementEngine, period)
	return nil
}

// AutoSettlementJob runs the distribution automation for the previous month.
// A run with per-organization errors is retried on the next tick; the
// automation skips organizations already settled.
func (s *Scheduler) AutoSettlementJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobAutoSettlement)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	start, _, due := s.closedPeriod()
	period := guard.PeriodKey(start)
	if !due {
		s.logJobSkipped(ctx, JobAutoSettlement, obsmetrics.SchedulerSkipReasonOutsideWindow, period)
		return nil
	}
	if s.alreadyCompleted(JobAutoSettlement, period) {
		s.logJobSkipped(ctx, JobAutoSettlement, obsmetrics.SchedulerSkipReasonAlreadyRan, period)
		return nil
	}

	year, month := start.Year(), int(start.Month())
	var result *distributiondomain.AutomationResult
	acquired, err := s.withLock(ctx, JobAutoSettlement, runlock.AutomationRunKey(year, month), func(ctx context.Context) error {
		var err error
		result, err = s.automation.RunAutoSettlement(ctx, distributiondomain.AutomationOptions{Year: year, Month: month}, s.cfg.PerformedBy)
		return err
	})
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.auto_settlement.failed", JobAutoSettlement, err, zap.String("period", period))
		return err
	}
	if !acquired {
		s.logJobSkipped(ctx, JobAutoSettlement, obsmetrics.SchedulerSkipReasonLockHeld, period)
		return nil
	}

	run.AddProcessed(result.Totals.OrganizationsProcessed)
	run.AddErrors(result.Phases.ErrorCount())
	s.metrics.AddBatchProcessed(JobAutoSettlement, "organization_settlement", result.Totals.OrganizationsProcessed)
	for _, warning := range result.Warnings {
		s.logger(ctx).Warn("auto settlement warning", zap.String("period", period), zap.String("warning", warning))
	}
	if result.Success {
		s.markCompleted(JobAutoSettlement, period)
	}
	return nil
}

// CascadeRemittanceJob remits confirmed settlements of the previous month.
// It runs every tick because settlements are confirmed by operators over
// time.
func (s *Scheduler) CascadeRemittanceJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobCascadeRemittance)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	start, _, due := s.closedPeriod()
	period := guard.PeriodKey(start)
	if !due {
		s.logJobSkipped(ctx, JobCascadeRemittance, obsmetrics.SchedulerSkipReasonOutsideWindow, period)
		return nil
	}

	year, month := start.Year(), int(start.Month())
	var result *distributiondomain.CascadeResult
	acquired, err := s.withLock(ctx, JobCascadeRemittance, runlock.CascadeRunKey(year, month), func(ctx context.Context) error {
		var err error
		result, err = s.automation.ProcessCascadeRemittance(ctx, year, month, s.cfg.PerformedBy)
		return err
	})
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.cascade_remittance.failed", JobCascadeRemittance, err, zap.String("period", period))
		return err
	}
	if !acquired {
		s.logJobSkipped(ctx, JobCascadeRemittance, obsmetrics.SchedulerSkipReasonLockHeld, period)
		return nil
	}

	remitted := result.BranchToDivision.Processed + result.DivisionToNational.Processed
	run.AddProcessed(remitted)
	run.AddErrors(len(result.BranchToDivision.Errors) + len(result.DivisionToNational.Errors))
	s.metrics.AddBatchProcessed(JobCascadeRemittance, "remittance", remitted)
	return nil
}
