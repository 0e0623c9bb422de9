// predict submits one client record to the prediction service from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/ashureev/bank-marketing/internal/config"
	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/predict"
	"github.com/ashureev/bank-marketing/internal/prompt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// sampleRecord is the reference client used by -sample.
var sampleRecord = map[string]string{
	domain.FieldAge:       "40",
	domain.FieldJob:       "management",
	domain.FieldMarital:   "married",
	domain.FieldEducation: "tertiary",
	domain.FieldDefault:   "no",
	domain.FieldBalance:   "1500.0",
	domain.FieldHousing:   "yes",
	domain.FieldLoan:      "no",
	domain.FieldContact:   "cellular",
	domain.FieldDay:       "15",
	domain.FieldMonth:     "may",
	domain.FieldCampaign:  "2",
	domain.FieldPDays:     "-1",
	domain.FieldPrevious:  "0",
	domain.FieldPOutcome:  "unknown",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.NewSurveyDriver()))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, driver prompt.Driver) int {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	endpoint := fs.String("url", cfg.PredictURL, "prediction endpoint")
	file := fs.String("file", "", "YAML or JSON file with field values")
	interactive := fs.Bool("prompt", false, "ask for field values interactively")
	sample := fs.Bool("sample", false, "start from the built-in sample client")
	rawJSON := fs.Bool("json", false, "print the raw prediction result as JSON")
	strict := fs.Bool("strict", cfg.StrictValidation, "validate fields before sending")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" && !*interactive && !*sample {
		fmt.Fprintln(stderr, "one of -file, -prompt or -sample is required")
		fs.Usage()
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := predict.NewClient(predict.ClientConfig{
		Endpoint: *endpoint,
		Timeout:  cfg.PredictTimeout,
	}, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize prediction client: %v\n", err)
		return 1
	}

	ctrl := form.New(client, form.Options{ID: "cli", Strict: *strict, Logger: logger})

	if *sample {
		if err := apply(ctrl, sampleRecord); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *file != "" {
		values, err := loadValues(*file)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read %s: %v\n", *file, err)
			return 1
		}
		if err := apply(ctrl, values); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *interactive {
		var v *form.Validator
		if *strict {
			v = form.NewValidator()
		}
		if err := prompt.Fill(ctx, driver, ctrl, v); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				fmt.Fprintln(stderr, "Aborted")
				return 1
			}
			fmt.Fprintf(stderr, "Prompt failed: %v\n", err)
			return 1
		}
	}

	snap := ctrl.Submit(ctx)
	return report(snap, *rawJSON, stdout, stderr)
}

// loadValues reads a flat map of field values. YAML is a superset of JSON, so
// one decoder serves both.
func loadValues(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	values := make(map[string]string, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case nil:
			values[name] = ""
		case string:
			values[name] = v
		case int, int64, float64, bool:
			values[name] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("field %q: unsupported value %v", name, v)
		}
	}
	return values, nil
}

func apply(ctrl *form.Controller, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctrl.UpdateField(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func report(snap form.Snapshot, rawJSON bool, stdout, stderr io.Writer) int {
	view := snap.View()
	if view.Status != form.StatusSuccess {
		fmt.Fprintln(stderr, view.Error)
		for _, issue := range view.Issues {
			fmt.Fprintf(stderr, "  %s: %s\n", issue.Field, issue.Message)
		}
		return 1
	}

	if rawJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap.Result); err != nil {
			fmt.Fprintf(stderr, "Failed to encode result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "Prediction: %s\n", view.Outcome)
	fmt.Fprintf(stdout, "Likelihood to Subscribe (Class 1): %s\n", view.SubscribeProbability)
	fmt.Fprintf(stdout, "Likelihood to Not Subscribe (Class 0): %s\n", view.DeclineProbability)
	return 0
}
