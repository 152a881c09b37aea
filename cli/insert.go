package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/mutation"
	"github.com/liamtostring/schegen/schema"
	"github.com/liamtostring/schegen/utils"
)

var (
	insertFlags   genFlags
	insertPost    postFlags
	insertFrom    string
	insertExecute bool
	insertBackup  bool
	insertOnly    string
	insertPrimary bool

	rollbackPost    postFlags
	rollbackExecute bool

	backupsPost postFlags
)

var insertCmd = &cobra.Command{
	Use:   "insert [url]",
	Short: "Write a page's schema into Rank Math post meta",
	Long: `Generates the page's graph (or reads it with --from) and stores every entity
as a rank_math_schema_<Type> row of the target post, replacing the post's
previous schema rows. Without --execute nothing is written.

The target post is --post-id, --slug, or the last path segment of the URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInsert,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore a post's schema rows from its latest backup",
	Args:  cobra.NoArgs,
	RunE:  runRollback,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List a post's schema backups",
	Args:  cobra.NoArgs,
	RunE:  runBackups,
}

func init() {
	insertFlags.register(insertCmd)
	insertPost.register(insertCmd)
	f := insertCmd.Flags()
	f.StringVar(&insertFrom, "from", "", "Read the graph from a JSON file instead of generating it")
	f.BoolVar(&insertExecute, "execute", false, "Write to the database (default is a dry run)")
	f.BoolVar(&insertBackup, "backup", true, "Back up the post's schema rows before writing")
	f.StringVar(&insertOnly, "only", "", "Write only the entity with this @type, leaving other rows alone")
	f.BoolVar(&insertPrimary, "primary", false, "With --only, mark the entity as the primary schema")

	rollbackPost.register(rollbackCmd)
	rollbackCmd.Flags().BoolVar(&rollbackExecute, "execute", false, "Restore the rows (default only shows the backup)")

	backupsPost.register(backupsCmd)

	rootCmd.AddCommand(insertCmd, rollbackCmd, backupsCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 && insertFrom == "" {
		return fmt.Errorf("%w: a url or --from is required", models.ErrInvalidInput)
	}
	if insertPost.slug == "" && insertPost.postID == 0 && len(args) == 1 {
		insertPost.slug = utils.Slug(args[0])
	}

	m, store, err := state.mutator(ctx)
	if err != nil {
		return err
	}
	postID, err := insertPost.resolve(ctx, store)
	if err != nil {
		return err
	}
	graph, err := loadGraph(ctx, insertFrom, args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if insertOnly != "" {
		return insertOne(ctx, w, m, postID, graph)
	}

	res, err := m.ReplaceAll(ctx, postID, graph.Entities, mutation.ReplaceOptions{
		Commit: insertExecute,
		Backup: insertBackup,
	})
	if outputJSON {
		if perr := printJSON(w, res); perr != nil {
			return perr
		}
	} else {
		printReplace(w, res)
	}
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%w: some schema rows were not written", models.ErrValidation)
	}
	return nil
}

func insertOne(ctx context.Context, w io.Writer, m *mutation.Mutator, postID int64, graph *schema.Graph) error {
	var entity schema.Entity
	for _, e := range graph.Entities {
		if e.SchemaType() == insertOnly {
			entity = e
			break
		}
	}
	if entity == nil {
		return fmt.Errorf("%w: graph has no %s entity", models.ErrNotFound, insertOnly)
	}

	res, err := m.Execute(ctx, postID, entity, mutation.ExecOptions{
		Commit:    insertExecute,
		Backup:    insertBackup,
		IsPrimary: insertPrimary,
	})
	if outputJSON {
		if perr := printJSON(w, res); perr != nil {
			return perr
		}
		return err
	}

	mode := "dry run"
	if !res.Simulated {
		mode = "written"
	}
	fmt.Fprintf(w, "%s %s (%s)", res.Action, res.Target, mode)
	if res.WouldOverwriteID != 0 {
		fmt.Fprintf(w, " meta_id=%d", res.WouldOverwriteID)
	}
	if res.Identical {
		fmt.Fprint(w, " unchanged")
	}
	fmt.Fprintln(w)
	for _, i := range res.Issues {
		fmt.Fprintf(w, "  %s\n", i)
	}
	if res.BackedUp() {
		fmt.Fprintf(w, "backup %s\nundo with: schegen rollback --post-id %d --execute\n", res.BackupID, postID)
	}
	return err
}

// loadGraph reads --from or generates the graph for the url argument.
func loadGraph(ctx context.Context, from string, args []string) (*schema.Graph, error) {
	if from != "" {
		data, err := os.ReadFile(from)
		if err != nil {
			return nil, err
		}
		return schema.DecodeGraph(data)
	}
	svc, err := state.generator()
	if err != nil {
		return nil, err
	}
	req, err := insertFlags.request(args[0])
	if err != nil {
		return nil, err
	}
	res, err := svc.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

func printReplace(w io.Writer, res mutation.ReplaceResult) {
	mode := "dry run"
	if !res.Simulated {
		mode = "written"
	}
	fmt.Fprintf(w, "post %d (%s): %d rows, %d removed\n", res.PostID, mode, len(res.Rows), res.Removed)
	for _, row := range res.Rows {
		primary := ""
		if row.Primary {
			primary = " primary"
		}
		if row.Err != nil {
			fmt.Fprintf(w, "  FAIL %s%s: %s\n", row.Type, primary, row.Error)
			continue
		}
		fmt.Fprintf(w, "  %-6s %s%s\n", row.Action, row.Key, primary)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skip   %s (reference only)\n", s)
	}
	if res.BackupID != "" {
		fmt.Fprintf(w, "backup %s\nundo with: schegen rollback --post-id %d --execute\n", res.BackupID, res.PostID)
	}
}

func runRollback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	m, store, err := state.mutator(ctx)
	if err != nil {
		return err
	}
	postID, err := rollbackPost.resolve(ctx, store)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if !rollbackExecute {
		list, err := m.Backups(ctx, postID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("no backup for post %d: %w", postID, models.ErrNotFound)
		}
		latest := list[0]
		fmt.Fprintf(w, "would restore %d rows of post %d from backup %s (%s)\n",
			len(latest.Rows), postID, latest.ID, latest.CreatedAt.Format(time.RFC3339))
		fmt.Fprintln(w, "pass --execute to restore")
		return nil
	}

	n, err := m.Rollback(ctx, postID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "restored %d rows of post %d\n", n, postID)
	return nil
}

func runBackups(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	m, store, err := state.mutator(ctx)
	if err != nil {
		return err
	}
	postID, err := backupsPost.resolve(ctx, store)
	if err != nil {
		return err
	}
	list, err := m.Backups(ctx, postID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintf(w, "no backups for post %d\n", postID)
		return nil
	}
	for _, b := range list {
		fmt.Fprintf(w, "%s  %s  %d rows  %s\n", b.CreatedAt.Format(time.RFC3339), b.ID, len(b.Rows), rowKeys(b.Rows))
	}
	return nil
}

func rowKeys(rows []database.MetaRow) string {
	s := ""
	for i, r := range rows {
		if i > 0 {
			s += ","
		}
		s += r.Key
	}
	return s
}
