package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/davidbz/markl/internal/benchmark"
	redisCache "github.com/davidbz/markl/internal/cache/redis"
	"github.com/davidbz/markl/internal/config"
	"github.com/davidbz/markl/internal/domain"
	markhttp "github.com/davidbz/markl/internal/http"
	"github.com/davidbz/markl/internal/http/middleware"
	"github.com/davidbz/markl/internal/observability"
	"github.com/davidbz/markl/internal/parser"
	"github.com/davidbz/markl/internal/provider/echo"
	"github.com/davidbz/markl/internal/provider/openaichat"
	"github.com/davidbz/markl/internal/provider/registry"
	"github.com/davidbz/markl/internal/scoring"
	"github.com/davidbz/markl/internal/store/sqlite"
	"github.com/davidbz/markl/internal/study"
)

const usage = `Usage: markl <command> [flags]

Commands:
  generate   generate study material from a document or inline content
  benchmark  run every provider against every material kind and compare
  report     build a provider comparison report from stored benchmarks
  list       list stored documents and configured providers
  serve      start the dashboard HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	container := buildContainer()

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(container, os.Args[2:])
	case "benchmark":
		err = runBenchmark(container, os.Args[2:])
	case "report":
		err = runReport(container, os.Args[2:])
	case "list":
		err = runList(container)
	case "serve":
		err = runServe(container)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("markl %s: %v", os.Args[1], err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Pricing and cost calculation
	if err := container.Provide(func() domain.PricingRegistry {
		return domain.NewInMemoryPricingRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Provide(func(pricing domain.PricingRegistry) domain.CostCalculator {
		return domain.NewStandardCostCalculator(pricing)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}
	if err := container.Invoke(func(pricing domain.PricingRegistry) error {
		return openaichat.RegisterDefaultPricing(context.Background(), pricing)
	}); err != nil {
		log.Fatalf("Failed to register pricing: %v", err)
	}

	// Provider registry with every configured backend. The echo provider is
	// always available so offline workflows keep working.
	if err := container.Provide(func(cfg *config.Config, costs domain.CostCalculator) (domain.ProviderRegistry, error) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		if err := reg.Register(ctx, echo.NewProvider()); err != nil {
			return nil, fmt.Errorf("failed to register echo provider: %w", err)
		}

		backends := []struct {
			name string
			cfg  config.ProviderConfig
		}{
			{"openai", cfg.OpenAI},
			{"groq", cfg.Groq},
		}
		for _, backend := range backends {
			if backend.cfg.APIKey == "" {
				continue
			}
			provider, err := openaichat.NewProvider(openaichat.Config{
				Name:        backend.name,
				APIKey:      backend.cfg.APIKey,
				BaseURL:     backend.cfg.BaseURL,
				Model:       backend.cfg.Model,
				MaxTokens:   cfg.Generation.MaxTokens,
				Temperature: cfg.Generation.Temperature,
				Timeout:     backend.cfg.Timeout,
			}, costs)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s provider: %w", backend.name, err)
			}
			if err := reg.Register(ctx, provider); err != nil {
				return nil, fmt.Errorf("failed to register %s provider: %w", backend.name, err)
			}
		}

		return reg, nil
	}); err != nil {
		log.Fatalf("Failed to provide provider registry: %v", err)
	}

	// Storage
	if err := container.Provide(func(cfg *config.DatabaseConfig) (domain.Store, error) {
		return sqlite.NewStore(cfg.Path)
	}); err != nil {
		log.Fatalf("Failed to provide store: %v", err)
	}

	// Generation cache, disabled when no Redis address is configured.
	if err := container.Provide(func(cfg *config.RedisConfig) domain.GenerationCache {
		if cfg.Addr == "" {
			return nil
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
		return redisCache.NewCache(client)
	}); err != nil {
		log.Fatalf("Failed to provide cache: %v", err)
	}

	// Domain services
	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		cache domain.GenerationCache,
		store domain.Store,
		cfg *config.Config,
	) *study.Service {
		ttl := time.Duration(cfg.Redis.TTLHours) * time.Hour
		return study.NewService(reg, cache, store, &cfg.Generation, ttl)
	}); err != nil {
		log.Fatalf("Failed to provide study service: %v", err)
	}
	if err := container.Provide(func(cfg *config.ScoringConfig) *scoring.Scorer {
		return scoring.New(scoring.Weights{
			Quality: cfg.QualityWeight,
			Cost:    cfg.CostWeight,
			Speed:   cfg.SpeedWeight,
		})
	}); err != nil {
		log.Fatalf("Failed to provide scorer: %v", err)
	}
	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		store domain.Store,
		scorer *scoring.Scorer,
		cfg *config.Config,
	) *benchmark.Runner {
		return benchmark.NewRunner(reg, store, scorer, benchmark.Defaults{
			FlashcardCount: cfg.Generation.FlashcardCount,
			QuizCount:      cfg.Generation.QuizCount,
			SummaryLength:  domain.SummaryLength(cfg.Generation.SummaryLength),
		}, cfg.Benchmark.Concurrency)
	}); err != nil {
		log.Fatalf("Failed to provide benchmark runner: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(markhttp.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(func(cfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide middleware: %v", err)
	}
	if err := container.Provide(markhttp.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// loadContent resolves -file/-content flags into text, importing the file
// as a document when save is set.
func loadContent(ctx context.Context, service *study.Service, file, content string, save bool) (string, int64, error) {
	if file == "" && content == "" {
		return "", 0, errors.New("either -file or -content is required")
	}
	if file != "" && content != "" {
		return "", 0, errors.New("-file and -content are mutually exclusive")
	}

	if content != "" {
		return content, 0, nil
	}

	text, fileType, err := parser.Parse(file)
	if err != nil {
		return "", 0, err
	}
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("no text extracted from %s", file)
	}

	stats := parser.ContentStats(text)
	observability.FromContext(ctx).Info("document parsed",
		observability.String("file", file),
		observability.String("file_type", fileType),
		observability.Int("words", stats.Words),
		observability.Int("characters", stats.Characters),
		observability.Int("sentences", stats.Sentences),
	)

	var documentID int64
	if save {
		documentID, err = service.ImportDocument(ctx, file, text, fileType)
		if err != nil {
			return "", 0, err
		}
	}

	return text, documentID, nil
}

func runGenerate(container *dig.Container, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	file := fs.String("file", "", "path to a txt, md, pdf or docx document")
	content := fs.String("content", "", "inline content instead of a file")
	kind := fs.String("type", "flashcards", "material kind: flashcards, quiz, summary or study_guide")
	provider := fs.String("provider", "openai", "provider name")
	count := fs.Int("count", 0, "number of items to generate (0 uses the default)")
	length := fs.String("length", "", "summary length: short, medium or long")
	save := fs.Bool("save", false, "store the document and generated material")
	if err := fs.Parse(args); err != nil {
		return err
	}

	materialKind, err := domain.ParseKind(*kind)
	if err != nil {
		return err
	}

	return container.Invoke(func(service *study.Service) error {
		ctx := context.Background()

		text, documentID, err := loadContent(ctx, service, *file, *content, *save)
		if err != nil {
			return err
		}

		result, err := service.Generate(ctx, domain.GenerationRequest{
			Content:    text,
			Kind:       materialKind,
			Count:      *count,
			Provider:   *provider,
			Length:     domain.SummaryLength(*length),
			DocumentID: documentID,
		})
		if err != nil {
			return err
		}

		return printJSON(result)
	})
}

func runBenchmark(container *dig.Container, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ExitOnError)
	file := fs.String("file", "", "path to a txt, md, pdf or docx document")
	content := fs.String("content", "", "inline content instead of a file")
	kinds := fs.String("types", "", "comma-separated material kinds (default: all)")
	providers := fs.String("providers", "", "comma-separated provider names (default: all registered)")
	save := fs.Bool("save", false, "store the document and benchmark rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	materialKinds := domain.AllKinds()
	if *kinds != "" {
		materialKinds = materialKinds[:0]
		for _, raw := range strings.Split(*kinds, ",") {
			kind, err := domain.ParseKind(strings.TrimSpace(raw))
			if err != nil {
				return err
			}
			materialKinds = append(materialKinds, kind)
		}
	}

	return container.Invoke(func(
		service *study.Service,
		runner *benchmark.Runner,
		reg domain.ProviderRegistry,
	) error {
		ctx := context.Background()

		providerNames, err := splitOrAll(ctx, reg, *providers)
		if err != nil {
			return err
		}

		text, documentID, err := loadContent(ctx, service, *file, *content, *save)
		if err != nil {
			return err
		}

		run, err := runner.Run(ctx, text, materialKinds, providerNames, documentID)
		if err != nil {
			return err
		}

		return printJSON(run)
	})
}

func runReport(container *dig.Container, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	documentID := fs.Int64("doc", 0, "document id to report on (0 covers every stored row)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return container.Invoke(func(runner *benchmark.Runner) error {
		report, err := runner.ComparisonReport(context.Background(), *documentID)
		if err != nil {
			return err
		}
		return printJSON(report)
	})
}

func runList(container *dig.Container) error {
	return container.Invoke(func(store domain.Store, reg domain.ProviderRegistry) error {
		ctx := context.Background()

		providers, err := reg.Names(ctx)
		if err != nil {
			return err
		}

		documents, err := store.GetAllDocuments(ctx)
		if err != nil {
			return err
		}

		return printJSON(map[string]any{
			"providers": providers,
			"documents": documents,
		})
	})
}

func runServe(container *dig.Container) error {
	return container.Invoke(func(server *markhttp.Server) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	})
}

func splitOrAll(ctx context.Context, reg domain.ProviderRegistry, raw string) ([]string, error) {
	if raw == "" {
		names, err := reg.Names(ctx)
		if err != nil {
			return nil, err
		}
		return benchmark.DefaultProviders(names), nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		names = append(names, strings.TrimSpace(part))
	}
	return names, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
