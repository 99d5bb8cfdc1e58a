package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/model"
)

// sourceList collects repeated -source flags.
type sourceList []model.Source

func (s *sourceList) String() string {
	parts := make([]string, len(*s))
	for i, src := range *s {
		parts[i] = string(src)
	}
	return strings.Join(parts, ",")
}

func (s *sourceList) Set(v string) error {
	src := model.Source(v)
	if !src.Valid() {
		return fmt.Errorf("unknown source %q", v)
	}
	*s = append(*s, src)
	return nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var sources sourceList
	fs.Var(&sources, "source", "Source to search (repeatable; default Yargıtay)")
	page := fs.Int("page", 1, "Result page")
	start := fs.String("from", "", "Start date YYYY-MM-DD")
	end := fs.String("to", "", "End date YYYY-MM-DD")
	open := fs.Int("open", 0, "Also fetch the full text of result N (1-based)")
	fs.Parse(os.Args[1:])

	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "usage: emsal-obs search [-source S]... [-page N] [-from D] [-to D] [-open N] <query>")
		os.Exit(1)
	}
	if len(sources) == 0 {
		sources = sourceList{model.Yargitay}
	}

	cfg := loadConfig()
	timeout, _ := cfg.APITimeout()
	client := api.NewClient(cfg.API.BaseURL, api.WithTimeout(timeout), api.WithRateLimit(cfg.API.RatePerSecond))

	ctx := context.Background()
	req := api.SearchRequest{
		Sources: sources,
		Query:   query,
		Filters: model.FilterSet{StartDate: *start, EndDate: *end},
		Page:    *page,
	}

	fmt.Printf("=== Search %q on %s (page %d) ===\n", query, sources.String(), *page)
	began := time.Now()
	result, err := client.Search(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed (%s): %v\n", api.KindOf(err), err)
		os.Exit(1)
	}
	fmt.Printf("%d hits, page %d/%d, %s\n\n", result.Total, result.Page, result.Pages, time.Since(began).Round(time.Millisecond))

	for i, it := range result.Items {
		fmt.Printf("%2d. %s\n", i+1, truncate(it.Title, 90))
		fmt.Printf("    %s  %s  %s  score=%.2f  id=%s\n", it.Source, it.Date, it.CaseNumber, it.Score, it.ID)
	}

	if *open <= 0 {
		return
	}
	if *open > len(result.Items) {
		fmt.Fprintf(os.Stderr, "\n-open %d: only %d results\n", *open, len(result.Items))
		os.Exit(1)
	}
	it := result.Items[*open-1]
	doc, err := client.Document(ctx, it.Source, it.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "document failed (%s): %v\n", api.KindOf(err), err)
		os.Exit(1)
	}
	fmt.Printf("\n=== %s ===\n%s · %s · %s\n\n%s\n", doc.Title, doc.Court, doc.Date, doc.CaseNumber, doc.PageContent)
}
