package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/filter"
	"github.com/goliatone/go-pagecache/internal/demo"
	"github.com/goliatone/go-pagecache/navigation"
	"github.com/goliatone/go-pagecache/pkg/di"
	"github.com/goliatone/go-pagecache/view"
	"github.com/spf13/cobra"
)

type series = demo.Series

type browseParams struct {
	data         string
	generate     int
	query        string
	page         int
	pageSize     int
	fetchAll     bool
	search       string
	fuzzy        bool
	audio        []string
	excludeAudio []string
	output       string
	languages    bool
	metrics      bool
}

func newBrowseCmd(a *app) *cobra.Command {
	var params browseParams

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Load one page of a collection and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, a, params)
		},
	}

	cmd.Flags().StringVar(&params.data, "data", "", "JSON file with an array of series (default: generated)")
	cmd.Flags().IntVar(&params.generate, "generate", 60, "number of series to generate when --data is empty")
	cmd.Flags().StringVar(&params.query, "url", "", "initial query string, e.g. '?page=2'")
	cmd.Flags().IntVar(&params.page, "page", 0, "page to show (1-indexed, 0 = from --url)")
	cmd.Flags().IntVar(&params.pageSize, "page-size", 0, "items per page (0 = config default)")
	cmd.Flags().BoolVar(&params.fetchAll, "fetch-all", false, "load the whole collection and page client side")
	cmd.Flags().StringVar(&params.search, "search", "", "keep titles containing this text")
	cmd.Flags().BoolVar(&params.fuzzy, "fuzzy", false, "match --search as a fuzzy subsequence")
	cmd.Flags().StringSliceVar(&params.audio, "audio", nil, "keep series with any of these audio languages")
	cmd.Flags().StringSliceVar(&params.excludeAudio, "exclude-audio", nil, "drop series with any of these audio languages")
	cmd.Flags().StringVar(&params.output, "output", "table", "output format: table or json")
	cmd.Flags().BoolVar(&params.languages, "languages", false, "print the audio language filter options")
	cmd.Flags().BoolVar(&params.metrics, "metrics", false, "print store metrics after the run")

	return cmd
}

// tablePager lets navigation.PageParam drive a view.Table.
type tablePager struct {
	ctx   context.Context
	table *view.Table[series]
	err   error
}

func (p *tablePager) GotoPage(n int) bool {
	_, ok, err := p.table.Goto(p.ctx, n)
	if err != nil {
		p.err = err
	}
	return ok
}

func runBrowse(cmd *cobra.Command, a *app, params browseParams) error {
	if params.output != "table" && params.output != "json" {
		return fmt.Errorf("unsupported output format %q", params.output)
	}

	if params.pageSize > 0 {
		a.cfg.Paging.PageSize = params.pageSize
	}
	if cmd.Flags().Changed("fetch-all") {
		a.cfg.Paging.FetchAll = params.fetchAll
	}
	if err := a.buildContainer(); err != nil {
		return err
	}

	items, err := loadSeries(params.data, params.generate)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	coll := demo.NewCollection(items)
	table, err := di.NewTable(a.container, cache.Key("series"), coll.Fetcher(), buildPredicate(params))
	if err != nil {
		return err
	}
	defer table.Query().Close()

	urlParams, err := navigation.ParseQuery(params.query)
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}
	if params.page > 0 {
		urlParams.Replace(navigation.DefaultParam, strconv.Itoa(params.page))
	}
	pageParam := navigation.NewPageParam(urlParams, navigation.DefaultParam)

	m, err := table.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}

	if idx := pageParam.InitialIndex(); idx > 0 {
		pager := &tablePager{ctx: ctx, table: table}
		if !pageParam.Navigate(pager, idx) {
			a.logger.Warn().Int("page", idx+1).Int("page_count", m.PageCount).Msg("page out of range, showing first page")
		}
		if pager.err != nil {
			return fmt.Errorf("failed to load page %d: %w", idx+1, pager.err)
		}
		m = table.Model()
	}

	a.logger.Debug().
		Int("fetches", coll.CallCount()).
		Str("key", table.Query().Key().String()).
		Msg("browse finished")

	out := cmd.OutOrStdout()
	if err := render(out, params.output, m, urlParams.Encode()); err != nil {
		return err
	}
	if params.languages {
		renderLanguages(out, filter.LanguageOptions(items, seriesLanguages))
	}
	if params.metrics {
		return printMetrics(out)
	}
	return nil
}

func buildPredicate(params browseParams) filter.Predicate[series] {
	title := filter.TitleContains(params.search, demo.SeriesTitle)
	if params.fuzzy {
		title = filter.FuzzyTitle(params.search, demo.SeriesTitle)
	}
	return filter.Active(
		title,
		filter.IncludeAny(params.audio, demo.SeriesAudioCodes),
		filter.ExcludeAny(params.excludeAudio, demo.SeriesAudioCodes),
	)
}

func seriesLanguages(s series) []filter.Language {
	out := make([]filter.Language, 0, len(s.AudioLanguage))
	for _, l := range s.AudioLanguage {
		out = append(out, filter.Language{Code: l.Code2, Name: l.Name})
	}
	return out
}

func loadSeries(path string, generate int) ([]series, error) {
	if path == "" {
		if generate < 0 {
			return nil, fmt.Errorf("--generate must be >= 0, got %d", generate)
		}
		return demo.GenerateSeries(generate), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var items []series
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

type browseResult struct {
	Page       int      `json:"page"`
	PageCount  int      `json:"page_count"`
	PageSize   int      `json:"page_size"`
	TotalCount int      `json:"total_count"`
	FetchAll   bool     `json:"fetch_all"`
	Stale      bool     `json:"stale"`
	Query      string   `json:"query"`
	Items      []series `json:"items"`
}

func render(w io.Writer, format string, m view.Model[series], query string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(browseResult{
			Page:       m.Page + 1,
			PageCount:  m.PageCount,
			PageSize:   m.PageSize,
			TotalCount: m.TotalCount,
			FetchAll:   m.FetchAll,
			Stale:      m.Stale,
			Query:      query,
			Items:      m.Items,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tAUDIO")
	for _, s := range m.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.ID, s.Title, s.Year, strings.Join(demo.SeriesAudioCodes(s), ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\npage %d of %d, %d series", m.Page+1, max(m.PageCount, 1), m.TotalCount)
	if m.FetchAll {
		fmt.Fprint(w, " (client side)")
	}
	if query != "" {
		fmt.Fprintf(w, ", ?%s", query)
	}
	fmt.Fprintln(w)
	return nil
}

func renderLanguages(w io.Writer, opts []filter.Option) {
	fmt.Fprintln(w, "\naudio languages:")
	for _, o := range opts {
		fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Label)
	}
}
