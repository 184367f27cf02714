package snapcopy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/faciam-dev/snapcopy/internal/events"
	"github.com/faciam-dev/snapcopy/pkg/metrics"
)

// TimestampLayout formats the CreatedOn tag value (minute resolution, local time).
const TimestampLayout = "2006-01-02-15-04"

// Tag keys and fixed values attached to every copy.
const (
	TagCreatedBy    = "CreatedBy"
	TagCreatedOn    = "CreatedOn"
	TagShareAndCopy = "shareAndCopy"

	CreatedByValue = "Snapshot Tool for Aurora"
)

// EventCopyRequested is emitted after a copy request was accepted.
const EventCopyRequested = "snapshot.copy.requested"

// Decision is what a pass decided for one cluster.
type Decision string

const (
	DecisionCopy          Decision = "copy"
	DecisionSkipExists    Decision = "skip-exists"
	DecisionSkipDuplicate Decision = "skip-duplicate"
)

// Action is the outcome for one cluster.
type Action struct {
	ClusterID         string    `yaml:"cluster_id" json:"cluster_id"`
	Source            string    `yaml:"source" json:"source"`
	Target            string    `yaml:"target" json:"target"`
	SnapshotCreatedAt time.Time `yaml:"snapshot_created_at" json:"snapshot_created_at"`
	Decision          Decision  `yaml:"decision" json:"decision"`
}

// Result summarises one pass.
type Result struct {
	RunID      string               `yaml:"run_id" json:"run_id"`
	Region     string               `yaml:"region" json:"region"`
	DryRun     bool                 `yaml:"dry_run" json:"dry_run"`
	Timestamp  string               `yaml:"timestamp" json:"timestamp"`
	StartedAt  time.Time            `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time            `yaml:"finished_at" json:"finished_at"`
	Counts     map[SnapshotType]int `yaml:"counts" json:"counts"`
	Actions    []Action             `yaml:"actions" json:"actions"`
}

// Copied returns the actions that issued a copy.
func (r *Result) Copied() []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Decision == DecisionCopy {
			out = append(out, a)
		}
	}
	return out
}

// Dispatcher receives copy notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, e events.Event)
}

// Options configures a Copier.
type Options struct {
	Region string
	KMSKey string

	Logger *zap.SugaredLogger
	Events Dispatcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Copier copies the newest automated snapshot of every cluster into a manual
// snapshot re-encrypted with the configured key.
type Copier struct {
	api    API
	region string
	kmsKey string
	logger *zap.SugaredLogger
	events Dispatcher
	now    func() time.Time
}

// New returns a Copier using api for listing and copying.
func New(api API, opts Options) *Copier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Copier{
		api:    api,
		region: opts.Region,
		kmsKey: opts.KMSKey,
		logger: logger,
		events: opts.Events,
		now:    now,
	}
}

// Run performs one pass, issuing at most one copy per cluster. Listing and
// copy failures are returned as-is (wrapped); a failed copy stops the pass.
// The returned Result is non-nil and describes the work done so far.
func (c *Copier) Run(ctx context.Context) (*Result, error) {
	began := time.Now()
	res, err := c.pass(ctx, c.now(), false)
	metrics.RunDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		metrics.Runs.WithLabelValues("error").Inc()
		return res, err
	}
	metrics.Runs.WithLabelValues("ok").Inc()
	return res, nil
}

// Plan performs the same pass as Run without issuing any copies.
func (c *Copier) Plan(ctx context.Context) (*Result, error) {
	return c.pass(ctx, c.now(), true)
}

func (c *Copier) pass(ctx context.Context, start time.Time, dryRun bool) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Region:    c.region,
		DryRun:    dryRun,
		Timestamp: start.Format(TimestampLayout),
		StartedAt: start,
	}
	log := c.logger.With("run_id", res.RunID, "region", c.region)
	defer func() { res.FinishedAt = c.now() }()

	snaps, err := c.api.ListClusterSnapshots(ctx)
	if err != nil {
		c.logAPIError(log, "list cluster snapshots", err)
		return res, fmt.Errorf("list cluster snapshots: %w", err)
	}

	inv := Partition(snaps)
	res.Counts = inv.Counts
	metrics.Snapshots.Reset()
	for typ, n := range inv.Counts {
		metrics.Snapshots.WithLabelValues(string(typ)).Set(float64(n))
	}
	log.Debugw("snapshot inventory", "total", len(snaps), "clusters", len(inv.Clusters), "manual", len(inv.Manual))

	for _, cluster := range inv.Clusters {
		latest, ok := Latest(inv.Automated[cluster])
		if !ok {
			continue
		}
		act := Action{
			ClusterID:         cluster,
			Source:            latest.SnapshotID,
			Target:            TargetIdentifier(latest.SnapshotID),
			SnapshotCreatedAt: latest.CreatedAt,
		}

		if inv.HasManual(act.Target) {
			act.Decision = DecisionSkipExists
			if issued(res.Actions, act.Target) {
				act.Decision = DecisionSkipDuplicate
				log.Warnw("target already claimed by another cluster in this run", "cluster", cluster, "target", act.Target)
			} else {
				log.Debugw("copy already exists", "cluster", cluster, "target", act.Target)
			}
			res.Actions = append(res.Actions, act)
			if !dryRun {
				metrics.Skips.WithLabelValues(string(act.Decision)).Inc()
			}
			continue
		}

		act.Decision = DecisionCopy
		res.Actions = append(res.Actions, act)
		inv.Manual[act.Target] = struct{}{}
		if dryRun {
			continue
		}

		log.Infow("copying snapshot", "cluster", cluster, "source", act.Source, "target", act.Target)
		if err := c.api.CopyClusterSnapshot(ctx, c.request(act, res.Timestamp)); err != nil {
			c.logAPIError(log, "copy cluster snapshot", err, "source", act.Source, "target", act.Target)
			return res, fmt.Errorf("copy %s to %s: %w", act.Source, act.Target, err)
		}
		metrics.Copies.WithLabelValues(c.region).Inc()
		c.notify(ctx, act)
	}
	return res, nil
}

func (c *Copier) request(act Action, timestamp string) CopyRequest {
	return CopyRequest{
		Source: act.Source,
		Target: act.Target,
		KMSKey: c.kmsKey,
		Tags: []Tag{
			{Key: TagCreatedBy, Value: CreatedByValue},
			{Key: TagCreatedOn, Value: timestamp},
			{Key: TagShareAndCopy, Value: "YES"},
		},
	}
}

func (c *Copier) notify(ctx context.Context, act Action) {
	if c.events == nil {
		return
	}
	c.events.Dispatch(ctx, events.Event{
		Name: EventCopyRequested,
		Time: c.now(),
		Data: act,
		ID:   uuid.NewString(),
	})
}

func (c *Copier) logAPIError(log *zap.SugaredLogger, op string, err error, kv ...any) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kv = append(kv, "code", apiErr.ErrorCode(), "fault", apiErr.ErrorFault().String())
	}
	log.Errorw(op+" failed", append(kv, "err", err)...)
}

// issued reports whether an earlier action in this pass already copied to target.
func issued(actions []Action, target string) bool {
	for _, a := range actions {
		if a.Decision == DecisionCopy && a.Target == target {
			return true
		}
	}
	return false
}
