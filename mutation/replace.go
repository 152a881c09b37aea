package mutation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

// referenceOnlyTypes are pruned from ReplaceAll when they carry no more
// than maxReferenceKeys top-level keys.
var referenceOnlyTypes = map[string]bool{
	"WebSite":      true,
	"Organization": true,
	"Place":        true,
	"ImageObject":  true,
}

const maxReferenceKeys = 3

// primaryTypes are tried in order when picking the primary row.
var primaryTypes = []string{"Service", "Article", "Product"}

type ReplaceOptions struct {
	Commit bool
	Backup bool
}

// RowResult is the outcome of one entity in ReplaceAll.
type RowResult struct {
	Type    string `json:"type"`
	Key     string `json:"metaKey,omitempty"`
	Primary bool   `json:"primary,omitempty"`
	Action  Action `json:"action,omitempty"`
	MetaID  int64  `json:"metaId,omitempty"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

func (r *RowResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

type ReplaceResult struct {
	PostID    int64       `json:"postId"`
	Rows      []RowResult `json:"rows"`
	Skipped   []string    `json:"skipped,omitempty"`
	Removed   int         `json:"removed"`
	BackupID  string      `json:"backupId,omitempty"`
	Simulated bool        `json:"simulated"`
}

// Success reports whether every row succeeded.
func (r ReplaceResult) Success() bool {
	for _, row := range r.Rows {
		if row.Err != nil {
			return false
		}
	}
	return true
}

// IsReferenceOnly reports whether an entity is a placeholder that only
// points at something defined elsewhere.
func IsReferenceOnly(e schema.Entity) bool {
	if !referenceOnlyTypes[e.SchemaType()] {
		return false
	}
	data, err := json.Marshal(e)
	if err != nil {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	return len(fields) <= maxReferenceKeys
}

// PrimaryIndex picks the first Service, Article or Product, in that order
// of preference, else the first entity. It returns -1 for an empty list.
func PrimaryIndex(entities []schema.Entity) int {
	for _, typ := range primaryTypes {
		for i, e := range entities {
			if matchesPrimary(e, typ) {
				return i
			}
		}
	}
	if len(entities) == 0 {
		return -1
	}
	return 0
}

func matchesPrimary(e schema.Entity, typ string) bool {
	switch typ {
	case "Service":
		return e.Kind() == schema.KindService
	case "Article":
		return e.Kind() == schema.KindArticle
	}
	return e.SchemaType() == typ
}

// ReplaceAll stores the graph's entities as the post's complete set of
// schema rows. Existing managed rows are removed in the same transaction
// the new rows are inserted in, except rows whose replacement failed
// validation, which keep their previous value. Duplicate @type rows and
// invalid rows are reported as failures; the result succeeds only when
// every row does.
func (m *Mutator) ReplaceAll(ctx context.Context, postID int64, entities []schema.Entity, opts ReplaceOptions) (ReplaceResult, error) {
	res := ReplaceResult{PostID: postID, Simulated: !opts.Commit}

	var kept []schema.Entity
	for _, e := range entities {
		if e == nil {
			continue
		}
		if IsReferenceOnly(e) {
			res.Skipped = append(res.Skipped, e.SchemaType())
			continue
		}
		kept = append(kept, e)
	}
	primary := PrimaryIndex(kept)

	current, err := m.managedRows(ctx, postID)
	if err != nil {
		return res, err
	}
	existing := make(map[string]database.MetaRow, len(current))
	for _, row := range current {
		if _, ok := existing[row.Key]; !ok {
			existing[row.Key] = row
		}
	}

	seen := map[string]bool{}
	keep := map[string]bool{}
	var add []database.MetaRow
	for i, e := range kept {
		row := RowResult{Type: e.SchemaType(), Primary: i == primary}
		key, err := KeyFor(e)
		if err != nil {
			row.fail(err)
			res.Rows = append(res.Rows, row)
			continue
		}
		row.Key = key
		row.Action = ActionInsert
		prev, had := existing[key]
		if had {
			row.Action = ActionUpdate
		}

		if seen[key] {
			row.fail(fmt.Errorf("%w: %s", models.ErrDuplicateSchemaType, key))
			res.Rows = append(res.Rows, row)
			continue
		}
		seen[key] = true

		if err := schema.Validate(&schema.Graph{Entities: []schema.Entity{e}}).Err(); err != nil {
			row.fail(err)
			keep[key] = true
			if row.Primary {
				keep[RichSnippetKey] = true
			}
			res.Rows = append(res.Rows, row)
			continue
		}

		code := ""
		if had {
			code = shortcodeOf(prev.Value)
		}
		if code == "" {
			code = m.shortcode()
		}
		value, err := Serialize(e, code, row.Primary)
		if err != nil {
			row.fail(err)
			keep[key] = true
			res.Rows = append(res.Rows, row)
			continue
		}
		add = append(add, database.MetaRow{PostID: postID, Key: key, Value: value})
		if row.Primary {
			add = append(add, database.MetaRow{PostID: postID, Key: RichSnippetKey, Value: SnippetFor(e)})
		}
		res.Rows = append(res.Rows, row)
	}

	newPrimary := false
	for _, row := range res.Rows {
		if row.Primary && row.Err == nil {
			newPrimary = true
		}
	}

	var remove []int64
	for _, row := range current {
		if !keep[row.Key] {
			remove = append(remove, row.MetaID)
			res.Removed++
			continue
		}
		// a kept row must not stay primary next to the new primary
		if newPrimary && row.Key != RichSnippetKey {
			if value, changed := clearPrimary(row.Value); changed {
				remove = append(remove, row.MetaID)
				add = append(add, database.MetaRow{PostID: postID, Key: row.Key, Value: value})
			}
		}
	}

	if !opts.Commit {
		return res, nil
	}

	if opts.Backup {
		id, err := m.Backup(ctx, postID)
		if err != nil {
			return res, err
		}
		res.BackupID = id
	}

	if err := m.meta.ReplaceMeta(ctx, postID, remove, add); err != nil {
		err = fmt.Errorf("replacing schema rows of post %d: %w", postID, err)
		for i := range res.Rows {
			if res.Rows[i].Err == nil {
				res.Rows[i].fail(err)
			}
		}
		m.metrics.RecordMutation("REPLACE", false, err)
		return res, err
	}

	stored, err := m.meta.ListMeta(ctx, postID, SchemaKeyPrefix)
	if err != nil {
		return res, err
	}
	ids := make(map[string]int64, len(stored))
	for _, row := range stored {
		ids[row.Key] = row.MetaID
	}
	for i := range res.Rows {
		if res.Rows[i].Err == nil {
			res.Rows[i].MetaID = ids[res.Rows[i].Key]
		}
	}

	m.metrics.RecordMutation("REPLACE", false, nil)
	m.log.Info().
		Str("event", "replace_all").
		Int64("post_id", postID).
		Int("rows", len(add)).
		Int("removed", res.Removed).
		Strs("skipped", res.Skipped).
		Bool("success", res.Success()).
		Msg("schema rows replaced")
	return res, nil
}
