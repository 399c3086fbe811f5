package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"PyramidSentinel/internal/model"
)

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatQuote formats a live quote.
func FormatQuote(q *model.Quote) string {
	var b strings.Builder
	title := q.Symbol
	if q.Name != "" {
		title = fmt.Sprintf("%s (%s)", html.EscapeString(q.Name), q.Symbol)
	}
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", title))
	b.WriteString(fmt.Sprintf("当前价格: %s\n", fixed(q.Price)))
	b.WriteString(fmt.Sprintf("涨跌幅: %+.2f%%\n", q.ChangePct))
	b.WriteString(fmt.Sprintf("最高: %s | 最低: %s\n", fixed(q.High), fixed(q.Low)))
	if !q.QuotedAt.IsZero() {
		b.WriteString(fmt.Sprintf("行情时间: %s\n", q.QuotedAt.Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

// FormatRisk formats the risk summary block.
func FormatRisk(r model.RiskSummary) string {
	ratio := "∞"
	if !r.Unbounded() {
		ratio = fixed(r.RiskRewardRatio)
	}
	var b strings.Builder
	b.WriteString("⚖️ <b>风险评估</b>\n")
	b.WriteString(fmt.Sprintf("最大投入金额: ¥%s\n", fixed(r.MaxInvestment)))
	b.WriteString(fmt.Sprintf("最大回撤: %s%%\n", fixed(r.MaxDrawdownPct)))
	b.WriteString(fmt.Sprintf("风险收益比: %s\n", ratio))
	b.WriteString(fmt.Sprintf("盈亏平衡价格: %s\n", fixed(r.BreakevenPrice)))
	b.WriteString(fmt.Sprintf("最大预期收益率: %s%%\n", fixed(r.MaxReturnPct)))
	return b.String()
}

// FormatPlan formats a full pyramid plan: inputs, the bands that buy
// anything, and the risk summary.
func FormatPlan(symbol string, plan *model.Plan) string {
	in := plan.Input
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔺 <b>金字塔加仓计划</b> %s\n\n", symbol))
	b.WriteString(fmt.Sprintf("当前价: %s | 止损价: %s | 目标价: %s\n", fixed(in.CurrentPrice), fixed(in.StopLoss), fixed(in.TargetPrice)))
	b.WriteString(fmt.Sprintf("资金: ¥%s\n\n", fixed(in.Capital)))

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-3s %9s %6s %8s %9s\n", "#", "价格", "股数", "均价", "收益%"))
	skipped := 0
	for _, band := range plan.Bands {
		if band.Shares == 0 {
			skipped++
			continue
		}
		b.WriteString(fmt.Sprintf("%-3d %9s %6d %8s %9s\n",
			band.Index, fixed(band.Price), band.Shares, fixed(band.AverageCost), fixed(band.PotentialReturnPct)))
	}
	b.WriteString("</pre>\n")
	if skipped > 0 {
		b.WriteString(fmt.Sprintf("(%d 个区间资金不足一股)\n", skipped))
	}
	b.WriteString("\n")
	b.WriteString(FormatRisk(plan.Risk))

	if plan.WarningMsg != "" {
		b.WriteString("\n⚠️ 目标价格不高于当前价格，可能无法获得盈利\n")
	}
	return b.String()
}
