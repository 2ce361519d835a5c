// llmchat streams one chat turn against the first configured provider and
// prints the response as it arrives. It exists as a working end-to-end
// exercise of the library: provider resolution, streaming, retry, prompt
// caching, and conversation recording.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/config"
	"github.com/loicboutet/llm-toolkit-sub000/llm"
	"github.com/loicboutet/llm-toolkit-sub000/logger"
	"github.com/loicboutet/llm-toolkit-sub000/record"
)

func main() {
	if err := run(); err != nil {
		if ue := llm.TranslateTerminalError(err); ue != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", ue.Message)
			if ue.Suggestion != "" {
				fmt.Fprintln(os.Stderr, ue.Suggestion)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		provider     = flag.String("provider", "", "Provider to use (anthropic, openrouter, mistral, scaleway). Default: first configured")
		model        = flag.String("model", "", "Model name. Default: provider default from config")
		system       = flag.String("system", "", "System prompt")
		maxTokens    = flag.Int64("max-tokens", 4096, "Maximum tokens to generate")
		conversation = flag.String("conversation", "", "Conversation ID to continue (requires recording)")
		noCache      = flag.Bool("no-cache", false, "Disable prompt-cache breakpoints")
		logFile      = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty       = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("usage: llmchat [flags] <prompt>")
	}

	cfg, err := config.LoadConfig(config.GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *logFile == "" {
		*logFile = cfg.LogFile
	}
	if *noCache {
		cfg.Cache.Disabled = true
	}

	log, err := logger.InitWithOptions(*logFile, cfg.LogLevel, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	registry := config.NewRegistry(cfg)
	key, err := resolveKey(registry, cfg, *provider, *model)
	if err != nil {
		return err
	}
	log.Info().Str("provider", key.Provider).Str("model", key.Model).Msg("Provider resolved")

	client, err := config.NewClient(key, log)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", key.Provider, err)
	}
	wrapped := llm.WrapWithMiddleware(client, llm.NewLoggingMiddleware(log))

	var store *record.Store
	if cfg.Record.Enabled || *conversation != "" {
		store, err = record.Open(cfg.DefaultDBPath(), log)
		if err != nil {
			return fmt.Errorf("failed to open conversation database: %w", err)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return chat(ctx, wrapped, store, cfg, key, *system, *conversation, prompt, *maxTokens, log)
}

func resolveKey(registry *llm.ProviderRegistry, cfg *config.Config, provider, model string) (*llm.ClientKey, error) {
	if provider != "" {
		return registry.ResolveProvider(provider, model)
	}
	prefs := make([]llm.Preference, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		prefs = append(prefs, llm.Preference{Provider: p, Model: model})
	}
	return registry.Resolve(prefs)
}

func chat(ctx context.Context, client llm.Client, store *record.Store, cfg *config.Config, key *llm.ClientKey, system, conversationID, prompt string, maxTokens int64, log zerolog.Logger) error {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	userMessage := llm.NewTextMessage(llm.RoleUser, prompt)
	if store != nil {
		if err := store.AppendMessage(ctx, conversationID, userMessage); err != nil {
			return fmt.Errorf("failed to record user message: %w", err)
		}
	}

	req := &llm.Request{
		Model:     key.Model,
		System:    system,
		MaxTokens: maxTokens,
	}
	var sink llm.ChunkSink
	var history llm.HistorySupplier
	if store != nil {
		// History replay picks up the freshly recorded user message.
		sink, history = store, store
	} else {
		req.Messages = []llm.Message{userMessage}
	}

	runner := llm.NewRunner(client, nil, sink, history, cfg.RunnerConfig(), log)

	emit := func(chunk llm.Chunk) {
		switch chunk.Type {
		case llm.ChunkTypeContent:
			fmt.Print(chunk.Text)
		case llm.ChunkTypeError:
			fmt.Fprintf(os.Stderr, "\n%s\n", chunk.Err.Message)
			if chunk.Err.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "%s\n", chunk.Err.Suggestion)
			}
		}
	}

	resp, err := runner.RunTurn(ctx, conversationID, req, emit)
	if err != nil {
		return err
	}
	fmt.Println()

	if store != nil {
		assistant := llm.NewTextMessage(llm.RoleAssistant, resp.Content)
		if err := store.AppendMessage(ctx, conversationID, assistant); err != nil {
			return fmt.Errorf("failed to record assistant message: %w", err)
		}
		fmt.Fprintf(os.Stderr, "conversation: %s\n", conversationID)
	}

	if resp.Usage != nil {
		log.Info().
			Int64("input_tokens", resp.Usage.InputTokens).
			Int64("output_tokens", resp.Usage.OutputTokens).
			Int64("cache_read_tokens", resp.Usage.CacheReadInputTokens).
			Str("stop_reason", resp.StopReason).
			Msg("Turn complete")
	}
	return nil
}
