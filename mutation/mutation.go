// Package mutation writes schema rows into WordPress post meta with
// dry-run, backup and rollback support.
//
// There is no cross-request locking: two concurrent writes to the same
// post race and the last one wins. Callers that need strict ordering must
// run one mutation per post at a time.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamtostring/schegen/backup"
	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/logger"
	"github.com/liamtostring/schegen/metrics"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

// MetaStore is the subset of database.Store the mutator needs.
type MetaStore interface {
	ListMeta(ctx context.Context, postID int64, prefixes ...string) ([]database.MetaRow, error)
	GetMeta(ctx context.Context, postID int64, key string) (database.MetaRow, error)
	InsertMeta(ctx context.Context, postID int64, key, value string) (int64, error)
	UpdateMeta(ctx context.Context, metaID int64, value string) error
	ReplaceMeta(ctx context.Context, postID int64, remove []int64, add []database.MetaRow) error
}

type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
)

// Target describes the row a write lands on.
type Target struct {
	PostID int64  `json:"postId"`
	Key    string `json:"metaKey"`
}

func (t Target) String() string {
	return fmt.Sprintf("post %d meta %s", t.PostID, t.Key)
}

// Plan is what a write would do.
type Plan struct {
	Action           Action         `json:"action"`
	Target           Target         `json:"target"`
	WouldOverwriteID int64          `json:"wouldOverwriteId,omitempty"`
	Identical        bool           `json:"identical"`
	Simulated        bool           `json:"simulated"`
	Value            string         `json:"value"`
	Issues           []schema.Issue `json:"issues,omitempty"`
}

type ExecOptions struct {
	Commit    bool
	Backup    bool
	IsPrimary bool
}

// Result is the outcome of Execute. MetaID is zero for simulated writes.
type Result struct {
	Plan
	MetaID   int64  `json:"metaId,omitempty"`
	BackupID string `json:"backupId,omitempty"`
}

// BackedUp reports whether a reversible backup exists for this write.
func (r Result) BackedUp() bool { return r.BackupID != "" }

// Mutator performs schema writes for one site.
type Mutator struct {
	meta    MetaStore
	backups backup.Store
	site    string
	log     *logger.Logger
	metrics *metrics.Metrics

	shortcode func() string
}

type Option func(*Mutator)

func WithLogger(l *logger.Logger) Option { return func(m *Mutator) { m.log = l } }
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Mutator) { m.metrics = mt } }

// WithShortcodes overrides shortcode generation.
func WithShortcodes(fn func() string) Option { return func(m *Mutator) { m.shortcode = fn } }

// New returns a Mutator. site labels backups so posts of different sites
// never share history.
func New(meta MetaStore, backups backup.Store, site string, opts ...Option) *Mutator {
	m := &Mutator{
		meta:      meta,
		backups:   backups,
		site:      site,
		log:       logger.Nop(),
		shortcode: newShortcode,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Component("mutation")
	return m
}

func (m *Mutator) record(postID int64) backup.Record {
	return backup.Record{Site: m.site, PostID: postID}
}

// Preview reports what Execute would do without writing anything.
func (m *Mutator) Preview(ctx context.Context, postID int64, e schema.Entity) (Plan, error) {
	plan, _, err := m.plan(ctx, postID, e, false)
	return plan, err
}

// plan performs the single lookup that decides INSERT or UPDATE.
func (m *Mutator) plan(ctx context.Context, postID int64, e schema.Entity, primary bool) (Plan, *database.MetaRow, error) {
	key, err := KeyFor(e)
	if err != nil {
		return Plan{}, nil, err
	}
	plan := Plan{Action: ActionInsert, Target: Target{PostID: postID, Key: key}}
	plan.Issues = schema.Validate(&schema.Graph{Entities: []schema.Entity{e}}).Issues

	existing, err := m.meta.GetMeta(ctx, postID, key)
	switch {
	case errors.Is(err, models.ErrNotFound):
		plan.Value, err = Serialize(e, m.shortcode(), primary)
		return plan, nil, err
	case err != nil:
		return Plan{}, nil, err
	}

	// updates keep the shortcode already embedded in post content
	code := shortcodeOf(existing.Value)
	if code == "" {
		code = m.shortcode()
	}
	plan.Action = ActionUpdate
	plan.WouldOverwriteID = existing.MetaID
	plan.Value, err = Serialize(e, code, primary)
	if err != nil {
		return Plan{}, nil, err
	}
	plan.Identical = sameValue(existing.Value, plan.Value)
	return plan, &existing, nil
}

// Execute writes one entity. Without Commit it returns the plan marked
// simulated. Required validation issues block the write, and when Backup
// is set a failed backup aborts it.
func (m *Mutator) Execute(ctx context.Context, postID int64, e schema.Entity, opts ExecOptions) (res Result, err error) {
	plan, existing, err := m.plan(ctx, postID, e, opts.IsPrimary)
	if err != nil {
		return Result{}, err
	}
	res.Plan = plan

	defer func() {
		m.log.LogMutation(postID, string(res.Action), res.Target.Key, res.MetaID, res.Simulated, err)
		m.metrics.RecordMutation(string(res.Action), res.Simulated, err)
	}()

	if !opts.Commit {
		res.Simulated = true
		return res, nil
	}
	if err := (schema.Report{Issues: plan.Issues}).Err(); err != nil {
		return res, err
	}

	if opts.Backup {
		id, err := m.Backup(ctx, postID)
		if err != nil {
			return res, err
		}
		res.BackupID = id
	}

	if existing == nil {
		res.MetaID, err = m.meta.InsertMeta(ctx, postID, plan.Target.Key, plan.Value)
		if err != nil {
			return res, fmt.Errorf("inserting %s: %w", plan.Target, err)
		}
	} else {
		res.MetaID = existing.MetaID
		if err := m.meta.UpdateMeta(ctx, existing.MetaID, plan.Value); err != nil {
			return res, fmt.Errorf("updating %s: %w", plan.Target, err)
		}
	}

	if opts.IsPrimary {
		if err := m.demoteOthers(ctx, postID, plan.Target.Key); err != nil {
			return res, err
		}
		if err := m.setSnippet(ctx, postID, SnippetFor(e)); err != nil {
			return res, err
		}
	}
	return res, nil
}

// demoteOthers clears isPrimary on every schema row except key, so a post
// keeps a single primary schema.
func (m *Mutator) demoteOthers(ctx context.Context, postID int64, key string) error {
	rows, err := m.meta.ListMeta(ctx, postID, SchemaKeyPrefix)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.Key == key {
			continue
		}
		value, changed := clearPrimary(row.Value)
		if !changed {
			continue
		}
		if err := m.meta.UpdateMeta(ctx, row.MetaID, value); err != nil {
			return fmt.Errorf("demoting %s: %w", row.Key, err)
		}
	}
	return nil
}

// managedRows lists the rows this package owns. ListMeta matches by prefix,
// which also catches keys like rank_math_rich_snippet_x.
func (m *Mutator) managedRows(ctx context.Context, postID int64) ([]database.MetaRow, error) {
	rows, err := m.meta.ListMeta(ctx, postID, ManagedPrefixes...)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if isManaged(row.Key) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *Mutator) setSnippet(ctx context.Context, postID int64, value string) error {
	row, err := m.meta.GetMeta(ctx, postID, RichSnippetKey)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if _, err := m.meta.InsertMeta(ctx, postID, RichSnippetKey, value); err != nil {
			return fmt.Errorf("inserting %s: %w", RichSnippetKey, err)
		}
		return nil
	case err != nil:
		return err
	}
	if row.Value == value {
		return nil
	}
	if err := m.meta.UpdateMeta(ctx, row.MetaID, value); err != nil {
		return fmt.Errorf("updating %s: %w", RichSnippetKey, err)
	}
	return nil
}

// Backup snapshots every managed row of the post and returns the backup
// ID. Any failure is reported as models.ErrBackupFailed.
func (m *Mutator) Backup(ctx context.Context, postID int64) (id string, err error) {
	defer func() { m.metrics.RecordBackup(err) }()

	rows, err := m.managedRows(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("%w: reading rows of post %d: %w", models.ErrBackupFailed, postID, err)
	}
	b := backup.New(m.record(postID), rows)
	if err := m.backups.Save(ctx, b); err != nil {
		return "", fmt.Errorf("%w: saving snapshot of post %d: %w", models.ErrBackupFailed, postID, err)
	}

	m.log.Info().
		Str("event", "backup").
		Int64("post_id", postID).
		Str("backup_id", b.ID).
		Int("rows", len(rows)).
		Msg("backup taken")
	return b.ID, nil
}

// Rollback replaces the post's managed rows with the latest backup and
// returns how many rows were restored. The backup stays available.
func (m *Mutator) Rollback(ctx context.Context, postID int64) (n int, err error) {
	defer func() { m.metrics.RecordRollback(err) }()

	b, err := m.backups.Latest(ctx, m.record(postID))
	if err != nil {
		return 0, err
	}
	current, err := m.managedRows(ctx, postID)
	if err != nil {
		return 0, err
	}

	remove := make([]int64, 0, len(current))
	for _, row := range current {
		remove = append(remove, row.MetaID)
	}
	restore := make([]database.MetaRow, 0, len(b.Rows))
	for _, row := range b.Rows {
		if isManaged(row.Key) {
			restore = append(restore, database.MetaRow{PostID: postID, Key: row.Key, Value: row.Value})
		}
	}

	if err := m.meta.ReplaceMeta(ctx, postID, remove, restore); err != nil {
		return 0, fmt.Errorf("restoring backup %s: %w", b.ID, err)
	}

	m.log.Info().
		Str("event", "rollback").
		Int64("post_id", postID).
		Str("backup_id", b.ID).
		Int("removed", len(remove)).
		Int("restored", len(restore)).
		Msg("rollback complete")
	return len(restore), nil
}

// Backups lists the post's backups, newest first.
func (m *Mutator) Backups(ctx context.Context, postID int64) ([]backup.Backup, error) {
	return m.backups.List(ctx, m.record(postID))
}
