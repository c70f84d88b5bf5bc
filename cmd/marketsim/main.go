package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketsim/internal/config"
	"marketsim/internal/domain"
	"marketsim/internal/engine"
	"marketsim/internal/load"
	"marketsim/internal/optimize"
	"marketsim/internal/store"
	"marketsim/internal/strategy"
	"marketsim/internal/strategy/builtins"
	"marketsim/internal/synth"
	"marketsim/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: marketsim <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  generate    Generate a synthetic bar series and write it to CSV\n")
		fmt.Fprintf(os.Stderr, "  backtest    Run a strategy over a bar series\n")
		fmt.Fprintf(os.Stderr, "  optimize    Grid-search strategy parameters\n")
		fmt.Fprintf(os.Stderr, "  results     List saved backtest results\n")
		fmt.Fprintf(os.Stderr, "  strategies  List available strategies\n")
		fmt.Fprintf(os.Stderr, "  version     Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	// A .env file is optional; variables already in the environment win.
	godotenv.Load()

	cfg := loadConfig()
	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("marketsim %s\n", version)

	case "strategies":
		for _, name := range registry().List() {
			fmt.Println(name)
		}

	case "generate":
		err = runGenerate(cfg, os.Args[2:])

	case "backtest":
		err = runBacktest(cfg, os.Args[2:])

	case "optimize":
		err = runOptimize(cfg, os.Args[2:])

	case "results":
		err = runResults(cfg, os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func loadConfig() *config.Config {
	cfgPath := "config/marketsim.yaml"
	if p := os.Getenv("MARKETSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func registry() *strategy.Registry {
	r := strategy.NewRegistry()
	builtins.RegisterAll(r)
	return r
}

func runGenerate(cfg *config.Config, args []string) error {
	fset := flag.NewFlagSet("generate", flag.ExitOnError)
	model := fset.String("model", cfg.Generator.Model, "price model: gbm, trending, mean-reverting, regime-switching, random-walk")
	start := fset.String("start", "2023-01-01", "first day (YYYY-MM-DD)")
	end := fset.String("end", "2023-12-31", "last day (YYYY-MM-DD)")
	price := fset.Float64("price", cfg.Generator.InitialPrice, "initial price")
	vol := fset.Float64("vol", cfg.Generator.Volatility, "daily volatility")
	drift := fset.Float64("drift", cfg.Generator.Drift, "daily drift")
	seed := fset.Int64("seed", cfg.Generator.Seed, "RNG seed (0 picks one from the clock)")
	weekdays := fset.Bool("weekdays", cfg.Generator.WeekdaysOnly, "skip weekends")
	out := fset.String("out", "", "output CSV path")
	name := fset.String("store", "", "store the series in the Parquet data dir under this name")
	fset.Parse(args)

	if *out == "" && *name == "" {
		return fmt.Errorf("one of -out or -store is required")
	}
	startT, endT, err := parseRange(*start, *end)
	if err != nil {
		return err
	}

	series, err := synth.Generate(synth.ProcessParams{
		Model:        synth.Model(*model),
		Start:        startT,
		End:          endT,
		InitialPrice: *price,
		Volatility:   *vol,
		Drift:        *drift,
		Seed:         *seed,
		WeekdaysOnly: *weekdays,
	})
	if err != nil {
		return err
	}
	if *out != "" {
		if err := load.WriteFile(*out, series); err != nil {
			return err
		}
	}
	if *name != "" {
		pstore := store.NewParquetStore(cfg.Storage.DataDir)
		if err := pstore.WriteBars(context.Background(), *name, series.Bars()); err != nil {
			return err
		}
	}
	slog.Info("generated series", "model", *model, "bars", series.Len(), "out", *out, "store", *name)
	return nil
}

func runBacktest(cfg *config.Config, args []string) error {
	fset := flag.NewFlagSet("backtest", flag.ExitOnError)
	csvPath := fset.String("csv", "", "bar series CSV path")
	seriesName := fset.String("series", "", "stored series name in the Parquet data dir")
	name := fset.String("strategy", "sma-cross", "strategy name")
	paramsRaw := fset.String("params", "", "parameter overrides, e.g. short_period=5,long_period=20")
	cash := fset.Float64("cash", cfg.Simulation.InitialCash, "initial cash")
	commission := fset.Float64("commission", cfg.Simulation.CommissionRate, "commission rate per fill")
	save := fset.Bool("save", false, "persist the result to the SQLite store")
	fset.Parse(args)

	params, err := parseParams(*paramsRaw)
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg, *csvPath, *seriesName)
	if err != nil {
		return err
	}
	strat, err := registry().New(*name, params)
	if err != nil {
		return err
	}

	res, err := engine.Run(series, strat, engine.Config{
		InitialCash:    *cash,
		CommissionRate: *commission,
		SizeFraction:   cfg.Simulation.SizeFraction,
	})
	if err != nil {
		return err
	}
	printResult(res)

	if *save {
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveResult(context.Background(), res)
		if err != nil {
			return err
		}
		slog.Info("saved result", "id", id, "path", cfg.Storage.SQLitePath)
	}
	return nil
}

func runOptimize(cfg *config.Config, args []string) error {
	fset := flag.NewFlagSet("optimize", flag.ExitOnError)
	csvPath := fset.String("csv", "", "bar series CSV path")
	seriesName := fset.String("series", "", "stored series name in the Parquet data dir")
	name := fset.String("strategy", "sma-cross", "strategy name")
	gridRaw := fset.String("grid", "", "parameter grid, e.g. short_period=5|10,long_period=20|30|50")
	metric := fset.String("metric", cfg.Optimizer.TargetMetric, "target metric to maximize")
	workers := fset.Int("workers", cfg.Optimizer.MaxWorkers, "concurrent backtests (0 = one per CPU)")
	cash := fset.Float64("cash", cfg.Simulation.InitialCash, "initial cash")
	commission := fset.Float64("commission", cfg.Simulation.CommissionRate, "commission rate per fill")
	fset.Parse(args)

	if *gridRaw == "" {
		return fmt.Errorf("-grid is required")
	}
	grid, err := parseGrid(*gridRaw)
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg, *csvPath, *seriesName)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := optimize.Optimize(ctx, series, *name, registry(), grid, optimize.Metric(*metric), optimize.Options{
		Workers: *workers,
		Engine: engine.Config{
			InitialCash:    *cash,
			CommissionRate: *commission,
			SizeFraction:   cfg.Simulation.SizeFraction,
		},
	})
	if err != nil {
		return err
	}

	slog.Info("sweep finished", "evaluated", res.Evaluated, "skipped", res.Skipped, "failures", len(res.Failures))
	if res.Best == nil {
		fmt.Println("no combination produced a defined metric")
		return nil
	}
	fmt.Printf("best params: %v\n", res.BestParams)
	printResult(res.Best)
	return nil
}

func runResults(cfg *config.Config, args []string) error {
	fset := flag.NewFlagSet("results", flag.ExitOnError)
	name := fset.String("strategy", "", "filter by strategy name")
	limit := fset.Int("limit", 20, "maximum rows")
	fset.Parse(args)

	s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.ListResults(context.Background(), *name, *limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%4d  %-16s  return %8.2f%%  drawdown %6.2f%%  trades %3d  %s\n",
			r.ID, r.Strategy, r.TotalReturnPct, r.MaxDrawdownPct, r.TotalTrades,
			r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func printResult(res *domain.BacktestResult) {
	fmt.Printf("strategy:        %s\n", res.Strategy)
	fmt.Printf("total return:    %.2f%%\n", res.TotalReturnPct)
	fmt.Printf("final equity:    %.2f\n", res.FinalEquity)
	if res.SharpeRatio != nil {
		fmt.Printf("sharpe ratio:    %.3f\n", *res.SharpeRatio)
	} else {
		fmt.Printf("sharpe ratio:    n/a\n")
	}
	fmt.Printf("max drawdown:    %.2f%%\n", res.MaxDrawdownPct)
	fmt.Printf("trades:          %d (%d won, %d lost)\n", res.TotalTrades, res.WinningTrades, res.LosingTrades)
	if res.TotalTrades > 0 {
		fmt.Printf("win rate:        %.1f%%\n", res.WinRate*100)
	}
	if res.ProfitFactor != nil {
		fmt.Printf("profit factor:   %.2f\n", *res.ProfitFactor)
	}
}

// loadSeries reads bars from a CSV file or the Parquet store. Stored bars go
// through the same series validation as CSV input.
func loadSeries(cfg *config.Config, csvPath, seriesName string) (*domain.BarSeries, error) {
	switch {
	case csvPath != "" && seriesName != "":
		return nil, fmt.Errorf("-csv and -series are mutually exclusive")
	case csvPath != "":
		return load.ReadFile(csvPath)
	case seriesName != "":
		pstore := store.NewParquetStore(cfg.Storage.DataDir)
		farFuture := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		bars, err := pstore.ReadBars(context.Background(), seriesName, time.Time{}, farFuture)
		if err != nil {
			return nil, err
		}
		return domain.NewBarSeries(bars)
	}
	return nil, fmt.Errorf("one of -csv or -series is required")
}

// parseParams parses "k=v,k2=v2" into strategy parameters.
func parseParams(s string) (strategy.Params, error) {
	if s == "" {
		return nil, nil
	}
	params := strategy.Params{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad parameter %q, want name=value", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for %q: %v", k, err)
		}
		params[strings.TrimSpace(k)] = f
	}
	return params, nil
}

// parseGrid parses "k=v1|v2,k2=v3|v4" into a sweep grid.
func parseGrid(s string) (optimize.Grid, error) {
	grid := optimize.Grid{}
	for _, pair := range strings.Split(s, ",") {
		k, vs, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad grid entry %q, want name=v1|v2", pair)
		}
		var values []float64
		for _, v := range strings.Split(vs, "|") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("bad value for %q: %v", k, err)
			}
			values = append(values, f)
		}
		grid[strings.TrimSpace(k)] = values
	}
	return grid, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -start: %v", err)
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -end: %v", err)
	}
	return startT, endT, nil
}
