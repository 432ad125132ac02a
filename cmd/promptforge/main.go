package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"promptforge/internal/analyzer"
	"promptforge/internal/artifact"
	"promptforge/internal/config"
	"promptforge/internal/llmclient"
	"promptforge/internal/pipeline"
	"promptforge/internal/store"
	"promptforge/internal/trace"
	"promptforge/internal/types"
)

func main() {
	typeHint := flag.String("type", "", "workflow hint: feature, bug, refactor, documentation, research, pr_review")
	format := flag.String("format", "json", "output format: json, yaml, markdown")
	save := flag.Bool("save", false, "persist the enhanced prompt")
	archive := flag.Bool("archive", false, "also write the export to the artifact store")
	get := flag.String("get", "", "retrieve a stored prompt by id instead of enhancing")
	search := flag.Bool("search", false, "search stored prompts instead of enhancing")
	workflow := flag.String("workflow", "", "search filter: workflow type")
	tags := flag.String("tags", "", "search filter: comma-separated tags, all must match")
	minScore := flag.Int("min-score", 0, "search filter: minimum validation score")
	root := flag.String("root", "", "project root for context analysis (overrides env)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *root != "" {
		cfg.ProjectRoot = *root
	}

	logger := trace.New(cfg.TracePath)

	ctx := context.Background()
	enh, closeClient := buildEnhancer(ctx, cfg, logger)
	defer closeClient()

	exportFormat, err := store.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *get != "":
		p, err := enh.Retrieve(ctx, *get)
		if err != nil {
			log.Fatal(err)
		}
		printExport(enh, p, exportFormat)

	case *search:
		q := store.Query{MinScore: *minScore}
		if *workflow != "" {
			wf, ok := types.ParseWorkflowType(*workflow)
			if !ok {
				log.Fatalf("unknown workflow type %q", *workflow)
			}
			q.Workflow = wf
		}
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
		results, err := enh.Search(ctx, q)
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range results {
			fmt.Printf("%s  %-14s  %3d/100  %s\n", p.ID, p.Workflow, p.Validation.Score, p.Instruction)
		}

	default:
		content := strings.Join(flag.Args(), " ")
		if strings.TrimSpace(content) == "" {
			content = readStdin()
		}
		if strings.TrimSpace(content) == "" {
			log.Fatal("nothing to enhance: pass the instruction as arguments or on stdin")
		}

		raw := types.RawPromptInput{Content: content}
		if *typeHint != "" {
			wf, ok := types.ParseWorkflowType(*typeHint)
			if !ok {
				log.Fatalf("unknown workflow type %q", *typeHint)
			}
			raw.Type = wf
		}

		p, err := enh.Enhance(ctx, raw)
		if err != nil {
			log.Fatal(err)
		}
		if *save {
			id, err := enh.Save(ctx, p)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("saved prompt %s (score %d/100)", id, p.Validation.Score)
		}
		out := printExport(enh, p, exportFormat)
		if *archive {
			archiveExport(ctx, cfg, p, exportFormat, out)
		}
	}
}

// buildEnhancer wires the pipeline from configuration. The returned close
// func releases the model client, if any.
func buildEnhancer(ctx context.Context, cfg *config.Config, logger *trace.Logger) (*pipeline.Enhancer, func()) {
	var client llmclient.LLMClient
	closeClient := func() {}
	if cfg.Model != "" {
		gc, err := llmclient.NewGeminiClient(ctx, cfg.Model)
		if err != nil {
			log.Printf("model client unavailable, enhancing with fallback: %v", err)
		} else {
			client = llmclient.Wrap(gc,
				llmclient.WithLogging(logger),
				llmclient.WithRetry(cfg.RetryAttempts, 500*time.Millisecond),
			)
			closeClient = func() { _ = gc.Close() }
		}
	}

	return pipeline.New(pipeline.Options{
		Client:      client,
		LLMTimeout:  cfg.LLMTimeout,
		ProjectRoot: cfg.ProjectRoot,
		Analyzer: analyzer.Options{
			MaxFiles:    cfg.MaxFiles,
			MaxTokens:   cfg.MaxTokens,
			IgnoreGlobs: cfg.IgnoreGlobs,
		},
		Store:  storeFromConfig(cfg, logger),
		Logger: logger,
	}), closeClient
}

func storeFromConfig(cfg *config.Config, logger *trace.Logger) *store.Store {
	if cfg.StoreDSN == "" {
		return store.New(cfg.StorePath, logger)
	}
	s, err := store.NewPostgres(cfg.StoreDSN, logger)
	if err != nil {
		logger.Warn("postgres unavailable, using file store", map[string]any{"error": err.Error()})
		return store.New(cfg.StorePath, logger)
	}
	return s
}

func printExport(enh *pipeline.Enhancer, p *types.StructuredPrompt, f store.Format) string {
	out, err := enh.Export(p, f)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
	return out
}

func archiveExport(ctx context.Context, cfg *config.Config, p *types.StructuredPrompt, f store.Format, body string) {
	st, err := artifactStore(cfg.Artifact)
	if err != nil {
		log.Printf("artifact store unavailable: %v", err)
		return
	}
	if st == nil {
		log.Print("no artifact store configured, skipping archive")
		return
	}
	name := "prompt." + string(f)
	if err := st.Put(ctx, p.ID, name, contentType(f), []byte(body)); err != nil {
		log.Printf("archive failed: %v", err)
		return
	}
	log.Printf("archived %s for prompt %s", name, p.ID)
}

func artifactStore(cfg config.ArtifactConfig) (artifact.Store, error) {
	switch {
	case cfg.Dir != "":
		return artifact.NewDirStore(cfg.Dir)
	case cfg.Endpoint != "":
		return artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, nil
	}
}

func contentType(f store.Format) string {
	switch f {
	case store.FormatYAML:
		return "application/yaml"
	case store.FormatMarkdown:
		return "text/markdown"
	default:
		return "application/json"
	}
}

func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return string(b)
}
