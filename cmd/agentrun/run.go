package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/agentrt/runtime/agent"
	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/providers/anthropic"
	"github.com/agentrt/runtime/providers/openai"
	"github.com/agentrt/runtime/telemetry"
	"github.com/agentrt/runtime/toolproc"
	"github.com/agentrt/runtime/tools"
	"github.com/agentrt/runtime/validation"
)

// textOutput is the candidate shape the demo agent asks the model to emit
// through its output tool: a single free-form text answer.
type textOutput struct {
	Answer string `json:"answer"`
}

const outputSchema = `{
	"type": "object",
	"properties": {
		"answer": {"type": "string", "minLength": 1}
	},
	"required": ["answer"],
	"additionalProperties": false
}`

// buildClient resolves a model.Client from the configured provider.
func buildClient(cfg *Config) (model.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewFromAPIKey(cfg.Model.APIKey)
	case "openai":
		return openai.NewFromAPIKey(cfg.Model.APIKey)
	default:
		return nil, fmt.Errorf("agentrun: unknown provider %q", cfg.Provider)
	}
}

// buildDefinition assembles the minimal text-in/text-out agent definition
// this CLI drives (spec §3: AgentDefinition). Run and Attempt carry no
// custom state; this is the smallest instantiation of the generic agent
// surface, mirroring the teacher's cmd/demo/main.go "stub planner" role.
func buildDefinition(cfg *Config, observer *telemetry.Observer) (*agent.Definition[string, textOutput, struct{}, struct{}], error) {
	schemaLayer, err := validation.NewSchemaLayer("output-schema", "the output tool's own schema", json.RawMessage(outputSchema))
	if err != nil {
		return nil, fmt.Errorf("agentrun: compiling output schema: %w", err)
	}

	defn := &agent.Definition[string, textOutput, struct{}, struct{}]{
		Model: agent.ModelParams{
			Name:        cfg.Model.Name,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
		},
		Tools: agent.Tools[struct{}, struct{}, textOutput]{
			Output: agent.OutputToolDef[textOutput]{
				Name:        "submit_answer",
				Description: "Submit the final answer to the user's question.",
				InputSchema: json.RawMessage(outputSchema),
			},
			Helpers: map[tools.Ident]toolproc.HelperTool[struct{}, struct{}]{},
		},
		Validation: agent.ValidationSpec{
			Layers: []validation.Layer{schemaLayer},
		},
		Prompts: agent.Prompts[string]{
			System: func(_ context.Context) (string, error) {
				return "You are a careful, concise assistant. Answer the user's question using the submit_answer tool.", nil
			},
			InitialUser: func(_ context.Context, input string) (string, error) {
				return input, nil
			},
			ErrorFeedback: func(_ context.Context, formattedError string, execCtx agent.Context) (string, error) {
				return fmt.Sprintf("Your previous answer was rejected: %s\nPlease submit a corrected answer.", formattedError), nil
			},
		},
		MaxAttempts:    cfg.MaxAttempts,
		MaxIterations:  cfg.MaxIterations,
		InitialRun:     struct{}{},
		InitialAttempt: struct{}{},
	}
	if observer != nil {
		defn.Observer = observer
	}
	return defn, nil
}

// runAgent wires the CLI's configuration into a Definition, executes it
// against the given question, and prints the result.
func runAgent(ctx context.Context, cfg *Config, question string) error {
	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	var observer *telemetry.Observer
	if cfg.Telemetry.Enabled {
		observer = telemetry.NewObserver(telemetry.NewClueLogger(), telemetry.NewClueMetrics(), telemetry.NewClueTracer())
		observer.RunID = uuid.NewString()
	}

	defn, err := buildDefinition(cfg, observer)
	if err != nil {
		return err
	}

	res := agent.Execute(ctx, defn, agent.ExecuteOptions[string]{
		Input:       question,
		Client:      client,
		MaxAttempts: cfg.MaxAttempts,
	})

	out, ok := res.Value()
	if !ok {
		if failErr := res.Error(); failErr != nil {
			return failErr
		}
		return fmt.Errorf("agentrun: execution failed with no error detail")
	}

	fmt.Fprintln(os.Stdout, out.Output.Answer)
	return nil
}
