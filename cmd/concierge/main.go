package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"concierge/internal/adapter/llm"
	"concierge/internal/adapter/tool"
	"concierge/internal/domain"
	"concierge/internal/infra/config"
	"concierge/internal/infra/logger"
	"concierge/internal/infra/tracer"
	"concierge/internal/usecase"
)

// demoInputs exercise each lookup once plus a plain chat turn. Used when
// interactive mode is not requested.
var demoInputs = []string{
	"What's the weather in Albany, New York?",
	"What are the top science headlines in the US?",
	"What is the square root of 1764?",
	"Thanks, that's all for now.",
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	interactive := flag.Bool("i", false, "read user messages from stdin")
	flag.Parse()

	if err := run(*configPath, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, interactive bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLogger()

	ctx := context.Background()
	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracer(shutdownCtx)
	}()

	provider, err := llm.NewProvider(cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}

	registry := tool.NewRegistry(log)
	if err := registerTools(registry, cfg, log); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	loop := usecase.NewLoop(usecase.LoopDeps{
		LLM:       provider,
		Tools:     registry,
		Logger:    log,
		MaxTokens: cfg.Agent.MaxTokens,
	})

	session := usecase.NewSession()
	session.AddMessage(domain.Message{
		Role:    domain.RoleSystem,
		Content: cfg.Agent.SystemPrompt,
	})

	log.Info("concierge started",
		"session", session.ID,
		"provider", provider.Name(),
		"model", cfg.LLM.Provider.Model,
		"interactive", interactive,
	)

	if interactive {
		return runInteractive(ctx, loop, session, cfg.Agent.Timeout)
	}
	return runDemo(ctx, loop, session, cfg.Agent.Timeout)
}

// registerTools wires the enabled lookups into the registry.
func registerTools(registry *tool.Registry, cfg *config.Config, log *slog.Logger) error {
	if cfg.Lookups.Weather.Enabled {
		backend := tool.NewOpenWeatherBackend(cfg.Lookups.Weather, log)
		if err := registry.Register(tool.NewWeatherTool(backend, cfg.Lookups.Weather.Units, log)); err != nil {
			return err
		}
	}
	if cfg.Lookups.News.Enabled {
		backend := tool.NewNewsAPIBackend(cfg.Lookups.News, log)
		if err := registry.Register(tool.NewNewsTool(backend, cfg.Lookups.News.Format, cfg.Lookups.News.MaxHeadlines, log)); err != nil {
			return err
		}
	}
	if cfg.Lookups.Answer.Enabled {
		backend := tool.NewWolframBackend(cfg.Lookups.Answer, log)
		if err := registry.Register(tool.NewAnswerTool(backend, cfg.Lookups.Answer.MaxChars, log)); err != nil {
			return err
		}
	}
	return nil
}

// runDemo drives the fixed example inputs through one session, printing each
// reply. Turn-level failures are printed as text; the exit code stays zero.
func runDemo(ctx context.Context, loop *usecase.Loop, session *usecase.Session, timeout time.Duration) error {
	for _, input := range demoInputs {
		fmt.Printf("\nUser: %s\n", input)
		reply := handleTurn(ctx, loop, session, input, timeout)
		fmt.Printf("Concierge: %s\n", reply)
	}
	return nil
}

// runInteractive reads user messages from stdin until EOF.
func runInteractive(ctx context.Context, loop *usecase.Loop, session *usecase.Session, timeout time.Duration) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Print("> ")
			continue
		}
		reply := handleTurn(ctx, loop, session, input, timeout)
		fmt.Printf("%s\n> ", reply)
	}
	return scanner.Err()
}

func handleTurn(ctx context.Context, loop *usecase.Loop, session *usecase.Session, input string, timeout time.Duration) string {
	turnCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return loop.HandleMessage(turnCtx, session, input)
}
