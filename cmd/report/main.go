// Package main provides a one-shot reporting run over stored predictions,
// observations, and edge records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourusername/rebound-edge/internal/config"
	"github.com/yourusername/rebound-edge/internal/database"
	applogger "github.com/yourusername/rebound-edge/internal/logger"
	"github.com/yourusername/rebound-edge/internal/repository"
	"github.com/yourusername/rebound-edge/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	fromFlag := flag.String("from", "", "Performance range start (YYYY-MM-DD, default 30 days ago)")
	toFlag := flag.String("to", "", "Performance range end (YYYY-MM-DD, default today)")
	dateFlag := flag.String("date", "", "Valuation game date (YYYY-MM-DD, default today)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		log.Fatalf("Failed to load secrets: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := parseDateFlag(*fromFlag, today.AddDate(0, 0, -30))
	to := parseDateFlag(*toFlag, today)
	gameDate := parseDateFlag(*dateFlag, today)

	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	svc := service.NewReportService(repos.Observations, repos.Predictions, repos.EdgeRecords, appLog)

	perf, err := svc.BuildPerformanceReport(ctx, from, to)
	if err != nil {
		appLog.WithError(err).Fatal("Performance report failed")
	}
	printPerformance(perf)

	rows, err := svc.BuildValuationReport(ctx, gameDate)
	if err != nil {
		appLog.WithError(err).Fatal("Valuation report failed")
	}
	printValuation(gameDate, rows)
}

func parseDateFlag(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatalf("Invalid date %q: %v", value, err)
	}
	return d
}

func printPerformance(report *service.PerformanceReport) {
	fmt.Printf("Performance %s to %s: %d matched, %d unmatched, MAE %.3f, bias %+.3f\n",
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"),
		report.Matched, report.Unmatched, report.MAE, report.Bias)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tDATE\tACTUAL\tPREDICTED\tERROR")
	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%+.2f\n",
			row.PlayerID, row.GameDate.Format("2006-01-02"),
			row.ActualRebounds, row.PredictedRebounds, row.Error)
	}
	w.Flush()
}

func printValuation(gameDate time.Time, rows []service.ValuationRow) {
	fmt.Printf("\nValuation for %s: %d props\n", gameDate.Format("2006-01-02"), len(rows))
	if len(rows) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tLINE\tSIDE\tEST\tP(MODEL)\tP(IMPLIED)\tEV\tREC")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%.2f\t%.3f\t%.3f\t%+.4f\t%s\n",
			row.PlayerID, row.Line, row.Side, row.PointEstimate,
			row.ModelProbability, row.ImpliedProbability,
			row.ExpectedValue, row.Recommendation)
	}
	w.Flush()
}
