// Package delivery hands finished reports back to the calling session,
// retrying on transient failures and persisting an orphaned copy when
// the session is gone.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
	"github.com/vigilsec/argus/internal/service"
)

// Deliverer pushes final reports to sessions, falling back to the
// persistence sink when the session cannot be reached.
type Deliverer struct {
	channel core.SessionChannel
	sink    core.PersistenceSink
	retry   *service.RetryPolicy
	log     *logging.Logger
	now     func() time.Time
}

// New creates a deliverer. channel may be nil for detached runs; every
// report then goes straight to the sink.
func New(channel core.SessionChannel, sink core.PersistenceSink, log *logging.Logger) *Deliverer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Deliverer{
		channel: channel,
		sink:    sink,
		retry:   service.DeliveryRetryPolicy(),
		log:     log,
		now:     time.Now,
	}
}

// Deliver sends the report to the requesting session. If the session is
// unreachable after retries (or the request carries no session), the
// report is persisted as an orphaned result and its workflow ID is
// returned so the caller can fetch it later.
func (d *Deliverer) Deliver(ctx context.Context, req core.WorkflowRequest, report core.SynthesizedReport) (core.DeliveryOutcome, error) {
	log := d.log.WithWorkflow(string(req.ID)).WithTenant(req.Tenant)

	if d.channel == nil || req.Session == "" {
		log.Info("no session attached, persisting result")
		return d.orphan(ctx, req, report, "no session attached to the request")
	}

	err := d.retry.Execute(ctx, func(ctx context.Context) error {
		if sendErr := d.channel.SendFinal(ctx, req.Session, report); sendErr != nil {
			return core.ErrTransient(core.CodeNetworkFailure, "final report send failed").WithCause(sendErr)
		}
		return nil
	})
	if err == nil {
		log.Info("report delivered to session", "session", string(req.Session))
		return core.DeliveryOutcome{Delivered: true}, nil
	}

	log.Warn("session unreachable, persisting orphaned result", "error", err)
	return d.orphan(ctx, req, report, fmt.Sprintf("session %s unreachable: %v", req.Session, err))
}

func (d *Deliverer) orphan(ctx context.Context, req core.WorkflowRequest, report core.SynthesizedReport, reason string) (core.DeliveryOutcome, error) {
	if d.sink == nil {
		return core.DeliveryOutcome{}, core.ErrDeliveryUnreachable("report undeliverable and no persistence sink configured")
	}
	id, err := d.sink.Save(ctx, core.OrphanedResult{
		WorkflowID:  req.ID,
		Tenant:      req.Tenant,
		Report:      report,
		Reason:      reason,
		PersistedAt: d.now().UTC(),
	})
	if err != nil {
		return core.DeliveryOutcome{}, core.ErrDeliveryUnreachable("failed to persist orphaned result").WithCause(err)
	}
	d.log.WithWorkflow(string(id)).Info("orphaned result persisted", "reason", reason)
	return core.DeliveryOutcome{OrphanID: id}, nil
}
