// Command agentcore is the bootstrap binary for the agent core library: it
// wires configuration, history storage, tokenization, chat memory, tool
// registry, the completion client and the generation orchestrator together,
// and exposes a minimal stdin/stdout harness for exercising a session by
// hand.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/agentcore/chatcore/internal/completion"
	"github.com/agentcore/chatcore/internal/config"
	"github.com/agentcore/chatcore/internal/events"
	"github.com/agentcore/chatcore/internal/history"
	"github.com/agentcore/chatcore/internal/memory"
	"github.com/agentcore/chatcore/internal/orchestrator"
	"github.com/agentcore/chatcore/internal/tokenizer"
	"github.com/agentcore/chatcore/internal/tools"
	"github.com/agentcore/chatcore/internal/tools/builtin"
	"github.com/agentcore/chatcore/pkg/models"
)

var version = "dev"

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "agentcore",
		Short:   "agentcore - conversational agent runtime",
		Version: version,
		// SilenceUsage keeps RunE errors from dumping the flag help on
		// every failure.
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildChatCmd())
	return rootCmd
}

// deps bundles every component the chat subcommand uses, assembled once
// from a loaded Config.
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    history.Store
	mem      *memory.Memory
	registry *tools.Registry
	executor *tools.Executor
	comp     *completion.Client
	model    models.SupportedChatModel
	modelCfg *models.ModelConfig
}

func bootstrap(configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, err := buildStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	model, ok := models.LookupModel(cfg.LLM.Model)
	if !ok {
		return nil, fmt.Errorf("unsupported model %q", cfg.LLM.Model)
	}
	tk := tokenizer.New(model)
	comp := completion.New(cfg.LLM.APIKey)
	summarizer := memory.NewLLMSummarizer(comp, model)
	mem := memory.New(store, tk, summarizer, cfg.Memory.ReplyReservation)

	registry := tools.NewRegistry()
	registry.Register(builtin.Calculator{})
	registry.Register(builtin.Wikipedia{})
	registry.Register(builtin.WebSearch{})
	registry.Register(builtin.PyEval{})
	executor := tools.NewExecutor(registry)

	modelCfg, err := models.NewModelConfig(model, models.ModelConfig{
		Temperature:      cfg.LLM.Temperature,
		PresencePenalty:  cfg.LLM.PresencePenalty,
		FrequencyPenalty: cfg.LLM.FrequencyPenalty,
		MaxTokens:        cfg.LLM.MaxTokens,
		ForcedTool:       cfg.LLM.ForcedTool,
		SystemPrompt:     cfg.LLM.SystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}

	return &deps{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		mem:      mem,
		registry: registry,
		executor: executor,
		comp:     comp,
		model:    model,
		modelCfg: modelCfg,
	}, nil
}

func buildStore(cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return history.NewMemoryStore(), nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, err
		}
		return history.NewPostgresStore(db)
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, err
		}
		if _, err := db.Exec(history.SQLiteSchema); err != nil {
			return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
		}
		return history.NewSQLiteStore(db)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// buildChatCmd wires up a single orchestrator and reads one user message per
// line of stdin, printing the assistant's reply to stdout. Each line is a
// turn in the same session unless --chat/--topic select a different one.
// With --metrics-addr set, a Prometheus /metrics endpoint runs alongside
// the loop, fed by the same event bus every turn emits onto.
func buildChatCmd() *cobra.Command {
	var (
		configPath  string
		chatID      string
		topic       string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive session against stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			session, err := models.NewSession(chatID, topic)
			if err != nil {
				return fmt.Errorf("invalid session: %w", err)
			}

			orch := orchestrator.New(d.mem, d.registry, d.comp, d.modelCfg)

			var metrics *orchestrator.Metrics
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				metrics = orchestrator.NewMetrics(reg)

				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						d.logger.Error("metrics server stopped", "error", err)
					}
				}()
				defer srv.Close()
				d.logger.Info("serving metrics", "addr", metricsAddr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runChatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orch, session, metrics)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agentcore.yaml", "Path to YAML configuration file")
	cmd.Flags().StringVar(&chatID, "chat", "local", "Chat identifier for session scoping")
	cmd.Flags().StringVar(&topic, "topic", "default", "Topic identifier for session scoping")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "If set, serve Prometheus /metrics on this address")

	return cmd
}

func runChatLoop(ctx context.Context, stdin io.Reader, stdout io.Writer, orch *orchestrator.Orchestrator, session models.Session, metrics *orchestrator.Metrics) error {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		userMsg, err := models.NewUserMessage(line, "")
		if err != nil {
			fmt.Fprintf(stdout, "error: %v\n", err)
			continue
		}

		bus := events.New(uuid.NewString())
		if metrics != nil {
			bus.Subscribe(metrics)
		}

		result, err := orch.Run(ctx, session, userMsg, bus)
		if err != nil {
			fmt.Fprintf(stdout, "error: %v\n", err)
			continue
		}
		if result.Reply != nil {
			fmt.Fprintln(stdout, result.Reply.Content)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}
