// Command agentrun is a minimal CLI driver for the agent runtime: it loads
// provider/model configuration, wires a model.Client, and runs a single
// text-in/text-out agent execution per spec §3-§6, printing the final
// answer or the formatted failure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	cliName    = "agentrun"
	cliVersion = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   cliName + " [question]",
		Short: "Run a single attempt-controlled agent execution",
		Args:  cobra.ArbitraryArgs,
		RunE:  runRoot,
	}

	rootCmd.Flags().StringP("provider", "p", "", "model provider: anthropic or openai (overrides config)")
	rootCmd.Flags().StringP("model", "m", "", "model name (overrides config)")
	rootCmd.Flags().IntP("max-attempts", "a", 0, "maximum attempts (overrides config)")
	rootCmd.Flags().IntP("max-iterations", "i", 0, "maximum iterations per attempt (overrides config)")
	rootCmd.Flags().Bool("telemetry", false, "enable structured logging/metrics/tracing for this run")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the agentrun version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", cliName, cliVersion)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config init",
		Short: "write a default config.yaml to the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDefaultConfig("./config.yaml")
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.Model.Name = m
	}
	if a, _ := cmd.Flags().GetInt("max-attempts"); a > 0 {
		cfg.MaxAttempts = a
	}
	if it, _ := cmd.Flags().GetInt("max-iterations"); it > 0 {
		cfg.MaxIterations = it
	}
	if t, _ := cmd.Flags().GetBool("telemetry"); t {
		cfg.Telemetry.Enabled = true
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv(strings.ToUpper(cfg.Provider) + "_API_KEY")
	}

	question := strings.Join(args, " ")
	if question == "" {
		return fmt.Errorf("agentrun: a question argument is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runAgent(ctx, cfg, question)
}
