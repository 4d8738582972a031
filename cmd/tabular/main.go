// Command tabular is a terminal chat over a CSV file: it routes each request
// to the transform or plot agent and prints the streamed events.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nexxia-ai/tabular"
	"github.com/nexxia-ai/tabular/ai/openai"
	"github.com/nexxia-ai/tabular/artifact"
	"github.com/nexxia-ai/tabular/config"
	"github.com/nexxia-ai/tabular/sandbox"
)

var (
	configPath string
	csvPath    string
	figurePath string
)

func main() {
	root := &cobra.Command{
		Use:           "tabular",
		Short:         "Chat with tabular data: generated pandas/plotly code executed against your CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "tabular.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&csvPath, "file", "", "CSV file to load (required)")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat over the loaded table",
		RunE:  runChat,
	}

	plot := &cobra.Command{
		Use:   "plot [request]",
		Short: "Generate a single chart and write its figure JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}
	plot.Flags().StringVar(&figurePath, "out", "figure.json", "path to write the figure JSON to")

	root.AddCommand(chat, plot)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, *artifact.Table, error) {
	// .env is optional; real environments set the key directly.
	godotenv.Load()

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if csvPath == "" {
		return config.Config{}, nil, fmt.Errorf("--file is required")
	}
	table, err := artifact.ReadCSV(csvPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, table, nil
}

func newRouter(cfg config.Config, table *artifact.Table) *tabular.TableAgent {
	model := openai.NewModel(cfg.Model, cfg.APIKey(), cfg.BaseURL)
	if cfg.Temperature != nil {
		model.WithTemperature(*cfg.Temperature)
	}

	opts := []tabular.Option{
		tabular.WithSandbox(sandbox.NewWithRunner(sandbox.PythonRunner(cfg.Python))),
	}
	if cfg.TraceDir != "" {
		if trace, err := tabular.NewTrace(cfg.TraceDir); err == nil {
			opts = append(opts, tabular.WithTrace(trace))
		}
	}
	return tabular.NewTableAgent(model, table, opts...)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, table, err := setup()
	if err != nil {
		return err
	}
	agent := newRouter(cfg, table)

	fmt.Printf("loaded %s (%d rows). Ask away; ctrl-d to quit.\n", table.Name, table.NumRows())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		printTurn(cmd.Context(), agent, query)
	}
}

func printTurn(ctx context.Context, agent *tabular.TableAgent, query string) {
	for event := range agent.CallAgent(ctx, query) {
		switch ev := event.(type) {
		case *tabular.TextDeltaEvent:
			fmt.Print(ev.Delta)
		case *tabular.TableTransformEvent:
			fmt.Printf("\n[table %q: %d rows, columns %s]\n",
				ev.TableName, ev.Table.NumRows(), strings.Join(ev.Table.Columns, ", "))
		case *tabular.PlotGeneratedEvent:
			fmt.Printf("\n[figure with %d trace(s)]\n", len(ev.Figure.Data))
		case *tabular.FunctionErrorEvent:
			fmt.Printf("\n[execution failed, retrying: %s]\n", ev.Message)
		case *tabular.ErrorEvent:
			fmt.Printf("\n[error: %v]\n", ev.Err)
		case *tabular.ResponseCompletedEvent:
			fmt.Println()
		}
	}
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, table, err := setup()
	if err != nil {
		return err
	}
	agent := newRouter(cfg, table)

	var figure *artifact.Figure
	for event := range agent.CallAgent(cmd.Context(), args[0]) {
		switch ev := event.(type) {
		case *tabular.TextDeltaEvent:
			fmt.Print(ev.Delta)
		case *tabular.PlotGeneratedEvent:
			figure = ev.Figure
		case *tabular.ErrorEvent:
			return fmt.Errorf("plot failed: %w", ev.Err)
		}
	}
	fmt.Println()
	if figure == nil {
		return fmt.Errorf("the model did not produce a figure")
	}

	data, err := json.MarshalIndent(figure, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(figurePath, data, 0644); err != nil {
		return err
	}
	fmt.Println("wrote", figurePath)
	return nil
}
