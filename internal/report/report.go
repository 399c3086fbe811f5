// Package report renders plans as plain-text tables and CSV.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"PyramidSentinel/internal/model"
)

var columns = []string{
	"band", "price", "allocation", "shares", "investment",
	"cumulative_investment", "average_cost", "breakeven_price", "potential_return_pct",
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func pct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Ratio formats a risk/reward ratio, spelling out the unbounded case.
func Ratio(r model.RiskSummary) string {
	if r.Unbounded() {
		return "inf"
	}
	return decimal.NewFromFloat(r.RiskRewardRatio).StringFixed(2)
}

func row(b model.AllocationBand) []string {
	return []string{
		fmt.Sprintf("%d", b.Index),
		money(b.Price),
		pct(b.AllocationRatio * 100),
		fmt.Sprintf("%d", b.Shares),
		money(b.Investment),
		money(b.CumulativeInvestment),
		money(b.AverageCost),
		money(b.BreakevenPrice),
		pct(b.PotentialReturnPct),
	}
}

// RenderTable writes the band table followed by the risk summary.
func RenderTable(w io.Writer, plan *model.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(columns, "\t")+"\t")
	for _, b := range plan.Bands {
		fmt.Fprintln(tw, strings.Join(row(b), "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	r := plan.Risk
	fmt.Fprintln(w)
	fmt.Fprintf(w, "current price:     %s\n", money(plan.Input.CurrentPrice))
	fmt.Fprintf(w, "stop loss:         %s\n", money(plan.Input.StopLoss))
	fmt.Fprintf(w, "target price:      %s\n", money(plan.Input.TargetPrice))
	fmt.Fprintf(w, "max investment:    %s\n", money(r.MaxInvestment))
	fmt.Fprintf(w, "max drawdown:      %s\n", pct(r.MaxDrawdownPct))
	fmt.Fprintf(w, "risk/reward:       %s\n", Ratio(r))
	fmt.Fprintf(w, "breakeven price:   %s\n", money(r.BreakevenPrice))
	_, err := fmt.Fprintf(w, "max return:        %s\n", pct(r.MaxReturnPct))
	if err == nil && plan.WarningMsg != "" {
		_, err = fmt.Fprintf(w, "warning: %s\n", plan.WarningMsg)
	}
	return err
}

// RenderCSV renders the band table as CSV.
func RenderCSV(plan *model.Plan) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, ",") + "\n")
	for _, b := range plan.Bands {
		sb.WriteString(fmt.Sprintf("%d,%.4f,%.6f,%d,%.2f,%.2f,%.4f,%.4f,%.4f\n",
			b.Index,
			b.Price,
			b.AllocationRatio,
			b.Shares,
			b.Investment,
			b.CumulativeInvestment,
			b.AverageCost,
			b.BreakevenPrice,
			b.PotentialReturnPct,
		))
	}
	return sb.String()
}
