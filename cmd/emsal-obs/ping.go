package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/brain"
	"github.com/abelbrown/emsal/internal/model"
)

func runPing() {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	skipAI := fs.Bool("no-ai", false, "Only check the search API")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	ctx := context.Background()
	failed := false

	fmt.Println("=== Search API ===")
	fmt.Printf("Endpoint: %s\n", cfg.API.BaseURL)
	timeout, _ := cfg.APITimeout()
	client := api.NewClient(cfg.API.BaseURL, api.WithTimeout(timeout))
	began := time.Now()
	_, err := client.Search(ctx, api.SearchRequest{Sources: []model.Source{model.Yargitay}, Query: "ping", Page: 1})
	if err != nil {
		fmt.Printf("FAIL  %s: %v\n", api.KindOf(err), err)
		failed = true
	} else {
		fmt.Printf("OK    %s\n", time.Since(began).Round(time.Millisecond))
	}

	if *skipAI {
		if failed {
			os.Exit(1)
		}
		return
	}

	fmt.Println()
	fmt.Println("=== AI providers ===")
	aiTimeout, _ := cfg.AITimeout()
	var providers []brain.Provider
	if g, err := brain.NewGeminiProvider(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model); err != nil {
		fmt.Printf("gemini  FAIL  %v\n", err)
		failed = true
	} else {
		providers = append(providers, g)
	}
	if o, err := brain.NewOllamaProvider(cfg.AI.Ollama.Host, cfg.AI.Ollama.Model); err != nil {
		fmt.Printf("ollama  FAIL  %v\n", err)
		failed = true
	} else {
		providers = append(providers, o)
	}

	for _, p := range providers {
		marker := " "
		if p.Name() == cfg.AI.Provider {
			marker = "*"
		}
		if !p.Available() {
			fmt.Printf("%s%-7s SKIP  not configured\n", marker, p.Name())
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, aiTimeout)
		began := time.Now()
		resp, err := p.Generate(pctx, brain.Request{UserPrompt: "Yalnızca 'tamam' yaz.", MaxTokens: 16})
		cancel()
		if err != nil {
			fmt.Printf("%s%-7s FAIL  %v\n", marker, p.Name(), err)
			if p.Name() == cfg.AI.Provider {
				failed = true
			}
			continue
		}
		fmt.Printf("%s%-7s OK    %s  model=%s reply=%q\n", marker, p.Name(), time.Since(began).Round(time.Millisecond), resp.Model, truncate(resp.Content, 30))
	}

	if failed {
		os.Exit(1)
	}
}
