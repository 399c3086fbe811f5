package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"PyramidSentinel/internal/collector"
	"PyramidSentinel/internal/logger"
	"PyramidSentinel/internal/model"
	"PyramidSentinel/internal/pyramid"
	"PyramidSentinel/internal/report"
)

// Exit codes for scripted callers.
const (
	exitUsage      = 1
	exitValidation = 2
	exitQuote      = 3
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}
		os.Exit(exitUsage)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "pyramid",
		Usage:  "compute a 20-band pyramid buy-in plan and its risk summary",
		Writer: out,
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "current", Aliases: []string{"c"}, Usage: "current price (fetched from --symbol when omitted)"},
			&cli.Float64Flag{Name: "stop-loss", Aliases: []string{"s"}, Usage: "stop-loss price", Required: true},
			&cli.Float64Flag{Name: "capital", Aliases: []string{"m"}, Usage: "total capital to deploy", Required: true},
			&cli.Float64Flag{Name: "target", Aliases: []string{"t"}, Usage: "target price (default current * 1.2)"},
			&cli.StringFlag{Name: "symbol", Usage: "A-share code used to fetch the current price, e.g. 600519", EnvVars: []string{"PYRAMID_DATA_SOURCE_SYMBOL"}},
			&cli.StringFlag{Name: "provider", Value: "sina", Usage: "quote provider: sina or yahoo", EnvVars: []string{"PYRAMID_DATA_SOURCE_PROVIDER"}},
			&cli.StringFlag{Name: "proxy", Usage: "HTTP proxy for quote requests", EnvVars: []string{"HTTPS_PROXY"}},
			&cli.BoolFlag{Name: "csv", Usage: "print bands as CSV"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging to stderr"},
		},
		Action: run,
		// main maps exit codes itself.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func run(c *cli.Context) error {
	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log := logger.NewWithWriter(logger.Config{Level: level, Pretty: true}, os.Stderr)

	current := c.Float64("current")
	if !c.IsSet("current") {
		symbol := c.String("symbol")
		if symbol == "" {
			return cli.Exit("either --current or --symbol is required", exitUsage)
		}
		q, err := fetchPrice(c.Context, c.String("provider"), c.String("proxy"), symbol, log)
		if err != nil {
			return cli.Exit(fmt.Sprintf("fetch quote: %v", err), exitQuote)
		}
		current = q.Price
		fmt.Fprintf(c.App.Writer, "%s %s 现价 %.2f\n\n", q.Symbol, q.Name, q.Price)
	}

	plan, err := pyramid.Compute(model.StrategyInput{
		CurrentPrice: current,
		StopLoss:     c.Float64("stop-loss"),
		Capital:      c.Float64("capital"),
		TargetPrice:  c.Float64("target"),
	})
	if err != nil {
		var verr *pyramid.ValidationError
		if errors.As(err, &verr) {
			return cli.Exit(fmt.Sprintf("%s: %v", verr.CodeName(), err), exitValidation)
		}
		return err
	}

	if c.Bool("csv") {
		_, err := io.WriteString(c.App.Writer, report.RenderCSV(plan))
		return err
	}
	return report.RenderTable(c.App.Writer, plan)
}

func fetchPrice(ctx context.Context, provider, proxy, symbol string, log zerolog.Logger) (*model.Quote, error) {
	col := collector.NewCollector(collector.New(provider, proxy), symbol, log)
	return col.Collect(ctx)
}
