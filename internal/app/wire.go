// Package app wires configuration into concrete store adapters and
// services, shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/amail-io/amail-ce/internal/ai"
	"github.com/amail-io/amail-ce/internal/config"
	"github.com/amail-io/amail-ce/internal/repository"
	"github.com/amail-io/amail-ce/internal/service"
)

// Stores bundles the concrete store adapters selected by configuration.
type Stores struct {
	Tickets  repository.TicketRepository
	Messages repository.MessageRepository
}

// BuildStores constructs the ticket and message repositories for the
// configured driver ("dynamodb" or "memory").
func BuildStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store.Driver {
	case "memory":
		return &Stores{
			Tickets:  repository.NewMemoryTicketRepository(),
			Messages: repository.NewMemoryMessageRepository(),
		}, nil
	case "dynamodb", "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Store.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Store.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Store.Endpoint)
			}
		})
		return &Stores{
			Tickets:  repository.NewDynamoTicketRepository(client, cfg.Store.TicketsTable, cfg.Store.Timeout),
			Messages: repository.NewDynamoMessageRepository(client, cfg.Store.MessagesTable, cfg.Store.Timeout),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// BuildSessionStore constructs the chat session backing selected by
// configuration: in-memory for single-instance deployments, Redis when
// sessions must be shared across instances.
func BuildSessionStore(cfg *config.Config) (repository.SessionRepository, error) {
	switch cfg.AI.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return repository.NewRedisSessionRepository(client, cfg.Redis.Session.Prefix, cfg.Redis.Session.TTL), nil
	case "memory", "":
		return repository.NewMemorySessionRepository(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.AI.SessionBackend)
	}
}

// BuildAIService constructs the conversation session manager with its
// completion client. The API key falls back to OPENAI_API_KEY when not
// configured.
func BuildAIService(cfg *config.Config) (*service.AIService, error) {
	sessions, err := BuildSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	apiKey := cfg.AI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	completer := ai.NewOpenAIClient(ai.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	})
	return service.NewAIService(sessions, completer, service.AIConfig{
		PriceInPer1K:  cfg.AI.PriceInPer1K,
		PriceOutPer1K: cfg.AI.PriceOutPer1K,
	}), nil
}

// SetupLogging installs the process-wide slog handler per configuration.
func SetupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
