package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liamtostring/schegen/classifier"
	"github.com/liamtostring/schegen/crawler"
	"github.com/liamtostring/schegen/generator"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

// generation flags shared by generate, insert and batch
type genFlags struct {
	mode         string
	pageType     string
	area         string
	businessType string
	phone        string
	verify       bool
	fallback     bool
}

func (g *genFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&g.mode, "mode", string(generator.ModeHeuristic), "Generation mode (heuristic, ai)")
	f.StringVar(&g.pageType, "type", "", "Force the page type (article, service, location)")
	f.StringVar(&g.area, "area", "", "Comma-separated areas served")
	f.StringVar(&g.businessType, "business-type", "", "LocalBusiness subtype, e.g. HVACBusiness")
	f.StringVar(&g.phone, "phone", "", "Business telephone")
	f.BoolVar(&g.verify, "verify", false, "Ask the model to review the graph")
	f.BoolVar(&g.fallback, "fallback", false, "Fall back to heuristic composition when the model fails")
}

func (g *genFlags) options() (models.Options, error) {
	opts := models.Options{AreaServed: g.area, Phone: g.phone}
	if g.businessType != "" {
		bt, ok := models.ParseBusinessType(g.businessType)
		if !ok {
			return opts, fmt.Errorf("%w: unknown business type %q", models.ErrUnsupportedType, g.businessType)
		}
		opts.BusinessType = bt
	}
	return state.options(opts), nil
}

func (g *genFlags) request(url string) (generator.Request, error) {
	mode, err := generator.ParseMode(g.mode)
	if err != nil {
		return generator.Request{}, err
	}
	opts, err := g.options()
	if err != nil {
		return generator.Request{}, err
	}
	req := generator.Request{URL: url, Mode: mode, Options: opts, Fallback: g.fallback, Verify: g.verify}
	if g.pageType != "" {
		pt, ok := models.ParsePageType(g.pageType)
		if !ok {
			return generator.Request{}, fmt.Errorf("%w: page type %q", models.ErrUnsupportedType, g.pageType)
		}
		req.PageType = pt
	}
	return req, nil
}

var (
	generateFlags  genFlags
	generateOutput string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Classify a page as article, service or location",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Generate the JSON-LD graph for a page",
	Long: `Fetches the page, classifies it and prints its @graph. With --mode ai the
graph is produced by the configured model and repaired before validation.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate a JSON-LD graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the graph to a file instead of stdout")
	rootCmd.AddCommand(classifyCmd, generateCmd, validateCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	page, err := state.fetcher().Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	data, err := crawler.NewExtractor().Extract(page.URL, page.Body)
	if err != nil {
		return err
	}
	res := classifier.New().Classify(page.URL, data)
	state.metrics.RecordClassification(string(res.Type))

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s\n", page.URL, res.Type)
	fmt.Fprintf(w, "  scores: article=%d service=%d location=%d\n", res.Scores.Article, res.Scores.Service, res.Scores.Location)
	for _, r := range res.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	svc, err := state.generator()
	if err != nil {
		return err
	}
	req, err := generateFlags.request(args[0])
	if err != nil {
		return err
	}
	res, err := svc.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	data, err := res.Graph.JSON()
	if err != nil {
		return err
	}
	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, append(data, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %d entities)\n", generateOutput, res.PageType, len(res.Graph.Entities))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	printIssues(cmd.ErrOrStderr(), res.Report)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}
	g, err := schema.DecodeGraph(data)
	if err != nil {
		return err
	}
	report := schema.Validate(g)

	if outputJSON {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		return report.Err()
	}
	w := cmd.OutOrStdout()
	types := make([]string, 0, len(g.Entities))
	for _, e := range g.Entities {
		types = append(types, e.SchemaType())
	}
	fmt.Fprintf(w, "%d entities: %s\n", len(g.Entities), strings.Join(types, ", "))
	printIssues(w, report)
	if report.Valid() {
		fmt.Fprintln(w, "valid")
	}
	return report.Err()
}

func printIssues(w io.Writer, r schema.Report) {
	for _, i := range r.Issues {
		fmt.Fprintf(w, "  %s\n", i)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
