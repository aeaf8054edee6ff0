package main

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/m-mizutani/smolagent/llm/claude"
	"github.com/m-mizutani/smolagent/llm/gemini"
	"github.com/m-mizutani/smolagent/llm/openai"
	"github.com/urfave/cli/v3"
)

const (
	providerOpenAI       = "openai"
	providerClaude       = "claude"
	providerClaudeVertex = "claude-vertex"
	providerGemini       = "gemini"
)

type modelConfig struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	project  string
	location string
	rpm      int
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Value:   providerOpenAI,
			Sources: cli.EnvVars("SMOLAGENT_PROVIDER"),
			Usage:   "Model provider (openai, claude, claude-vertex, gemini)",
		},
		&cli.StringFlag{
			Name:    "model",
			Sources: cli.EnvVars("SMOLAGENT_MODEL"),
			Usage:   "Model name. The provider default is used when empty",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Sources: cli.EnvVars("SMOLAGENT_API_KEY"),
			Usage:   "API key for openai and claude",
		},
		&cli.StringFlag{
			Name:    "base-url",
			Sources: cli.EnvVars("SMOLAGENT_BASE_URL"),
			Usage:   "Override the API endpoint for openai and claude",
		},
		&cli.StringFlag{
			Name:    "gcp-project",
			Sources: cli.EnvVars("SMOLAGENT_GCP_PROJECT"),
			Usage:   "Google Cloud project for gemini and claude-vertex",
		},
		&cli.StringFlag{
			Name:    "gcp-location",
			Value:   "us-central1",
			Sources: cli.EnvVars("SMOLAGENT_GCP_LOCATION"),
			Usage:   "Google Cloud location for gemini and claude-vertex",
		},
		&cli.IntFlag{
			Name:    "rpm",
			Sources: cli.EnvVars("SMOLAGENT_RPM"),
			Usage:   "Maximum model requests per minute. 0 means unlimited",
		},
	}
}

func modelConfigFrom(cmd *cli.Command) modelConfig {
	return modelConfig{
		provider: cmd.String("provider"),
		model:    cmd.String("model"),
		apiKey:   cmd.String("api-key"),
		baseURL:  cmd.String("base-url"),
		project:  cmd.String("gcp-project"),
		location: cmd.String("gcp-location"),
		rpm:      int(cmd.Int("rpm")),
	}
}

func newModel(ctx context.Context, cfg modelConfig) (smolagent.Model, error) {
	var model smolagent.Model

	switch cfg.provider {
	case providerOpenAI:
		var opts []openai.Option
		if cfg.model != "" {
			opts = append(opts, openai.WithModel(cfg.model))
		}
		if cfg.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.baseURL))
		}
		client, err := openai.New(ctx, cfg.apiKey, opts...)
		if err != nil {
			return nil, err
		}
		model = client

	case providerClaude, providerClaudeVertex:
		var opts []claude.Option
		if cfg.model != "" {
			opts = append(opts, claude.WithModel(cfg.model))
		}
		if cfg.baseURL != "" {
			opts = append(opts, claude.WithBaseURL(cfg.baseURL))
		}

		var client *claude.Client
		var err error
		if cfg.provider == providerClaudeVertex {
			client, err = claude.NewWithVertex(ctx, cfg.location, cfg.project, opts...)
		} else {
			client, err = claude.New(ctx, cfg.apiKey, opts...)
		}
		if err != nil {
			return nil, err
		}
		model = client

	case providerGemini:
		var opts []gemini.Option
		if cfg.model != "" {
			opts = append(opts, gemini.WithModel(cfg.model))
		}
		client, err := gemini.New(ctx, cfg.project, cfg.location, opts...)
		if err != nil {
			return nil, err
		}
		model = client

	default:
		return nil, goerr.New("unknown provider", goerr.V("provider", cfg.provider))
	}

	return smolagent.NewRateLimitedModel(model, cfg.rpm), nil
}
