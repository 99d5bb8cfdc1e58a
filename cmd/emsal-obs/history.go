package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/emsal/internal/model"
)

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 20, "Number of rows per section")
	analyses := fs.Bool("analyses", false, "Show only analyses")
	searches := fs.Bool("searches", false, "Show only searches")
	full := fs.Bool("full", false, "Print analysis result text")
	fs.Parse(os.Args[1:])

	st := openDB(loadConfig())
	defer st.Close()

	if !*analyses {
		recs, err := st.RecentSearches(*n)
		if err != nil {
			log.Fatalf("read searches: %v", err)
		}
		fmt.Printf("=== Searches (%d) ===\n", len(recs))
		for _, r := range recs {
			srcs := make([]string, len(r.Sources))
			for i, s := range r.Sources {
				srcs[i] = string(s)
			}
			fmt.Printf("%s  %-30s  page %-3d %5d hits  %s\n",
				r.At.Local().Format(time.DateTime), truncate(r.Query, 30), r.Page, r.Total,
				truncate(strings.Join(srcs, ", "), 60))
		}
		if !*searches {
			fmt.Println()
		}
	}

	if *searches {
		return
	}
	recs, err := st.RecentAnalyses(*n)
	if err != nil {
		log.Fatalf("read analyses: %v", err)
	}
	fmt.Printf("=== Analyses (%d) ===\n", len(recs))
	for _, r := range recs {
		action := "summarize"
		if r.Action == model.ActionCompare {
			action = "compare"
		}
		status := "ok"
		if r.Err != "" {
			status = "err=" + truncate(r.Err, 60)
		}
		fmt.Printf("%s  %-9s  %2d docs  %-7s %s\n",
			r.At.Local().Format(time.DateTime), action, len(r.DocIDs), r.Provider, status)
		if *full && r.Result != "" {
			for _, line := range strings.Split(r.Result, "\n") {
				fmt.Println("    " + line)
			}
		}
	}
}
