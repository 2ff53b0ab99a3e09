package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polyguard-ai/polyguard/internal/logger"
	"github.com/polyguard-ai/polyguard/pkg/audit"
	"github.com/polyguard-ai/polyguard/pkg/config"
	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/armorclient"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
	"github.com/polyguard-ai/polyguard/pkg/infra/prometheus"
	"github.com/polyguard-ai/polyguard/pkg/runner"
)

func main() {
	configPath := flag.String("config", "config.json", "policy file path")
	identity := flag.String("identity", "default", "identity for the audit log")
	auditDir := flag.String("audit-dir", "audit", "audit log directory")
	generated := flag.String("generated", "", "model-generated text for the output phase")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	listDetectors := flag.Bool("list-detectors", false, "print the detector catalog as JSON and exit")
	flag.Parse()

	if *listDetectors {
		out, err := json.MarshalIndent(detectors.DetectorList, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode detector catalog: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [flags] <input text>", os.Args[0])
	}
	inputText := flag.Arg(0)

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logg := logger.New()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(prometheus.Registry(), promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logg.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	policy, err := config.Load(*configPath, logg)
	if err != nil {
		logg.WithError(err).Fatal("failed to load policy")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	languageClient := language.NewClient(
		getenv("LANGUAGE_ENDPOINT", "https://language.googleapis.com"),
		os.Getenv("LANGUAGE_API_KEY"),
		httpClient,
		logg,
	)
	armorClient := armorclient.NewClient(
		getenv("ARMOR_ENDPOINT", "https://modelarmor.googleapis.com"),
		os.Getenv("ARMOR_API_KEY"),
		os.Getenv("ARMOR_PROJECT_ID"),
		os.Getenv("ARMOR_LOCATION_ID"),
		os.Getenv("ARMOR_TEMPLATE_ID"),
		httpClient,
		logg,
	)

	store, err := audit.NewFileStore(*auditDir, logg)
	if err != nil {
		logg.WithError(err).Fatal("failed to open audit store")
	}

	r, err := runner.New(logg, policy, runner.NewRegistry(logg, languageClient, armorClient),
		runner.WithAuditStore(store, *identity))
	if err != nil {
		logg.WithError(err).Fatal("invalid policy")
	}

	verdict, err := r.Run(context.Background(), inputText, *generated)
	if err != nil {
		logg.WithError(err).Fatal("run failed")
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		logg.WithError(err).Fatal("failed to encode verdict")
	}
	fmt.Println(string(out))

	if !verdict.Summary.Passed {
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
