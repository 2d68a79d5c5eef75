package visual

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	echartstypes "github.com/go-echarts/go-echarts/v2/types"

	"osprey/internal/types"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorProfit        = "#34d399"
	colorLoss          = "#f87171"
	colorCurve         = "#3b82f6"

	chartWidthPx  = 1200
	chartHeightPx = 480
)

func baseInit() opts.Initialization {
	return opts.Initialization{
		Theme:           echartstypes.ThemeWesteros,
		Width:           fmt.Sprintf("%dpx", chartWidthPx),
		Height:          fmt.Sprintf("%dpx", chartHeightPx),
		BackgroundColor: colorBackground,
	}
}

// PayoffChart 生成单个策略的到期盈亏曲线。
func PayoffChart(opp types.StrategyOpportunity) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(baseInit()),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s 到期盈亏", strings.ToUpper(opp.Symbol), opp.Kind),
			Subtitle:      fmt.Sprintf("现价 %.2f | DTE %d | 得分 %.1f", opp.StockPrice, opp.DaysToExpiry, opp.Score),
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "到期价格",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "每股盈亏",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	curve := PayoffCurve(opp)
	xAxis := make([]string, len(curve))
	data := make([]opts.LineData, len(curve))
	for i, p := range curve {
		xAxis[i] = fmt.Sprintf("%.2f", p.Price)
		data[i] = opts.LineData{Value: p.PnL}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("PnL", data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorCurve, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	return line
}

// ScoreChart 生成筛选结果的得分排名柱状图。
func ScoreChart(opps []types.StrategyOpportunity) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(baseInit()),
		charts.WithTitleOpts(opts.Title{
			Title:      "机会得分排名",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Rotate: 30},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)

	xAxis := make([]string, len(opps))
	data := make([]opts.BarData, len(opps))
	for i, opp := range opps {
		xAxis[i] = fmt.Sprintf("%s %s", strings.ToUpper(opp.Symbol), shortKind(opp.Kind))
		color := colorProfit
		if opp.Score < 50 {
			color = colorLoss
		}
		data[i] = opts.BarData{
			Value:     round(opp.Score, 1),
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.8)},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Score", data)
	return bar
}

// YieldChart 生成年化收益率对比图。
func YieldChart(opps []types.StrategyOpportunity) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(baseInit()),
		charts.WithTitleOpts(opts.Title{
			Title:      "年化收益率对比",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Rotate: 30},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "%",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)

	xAxis := make([]string, len(opps))
	data := make([]opts.BarData, len(opps))
	for i, opp := range opps {
		xAxis[i] = fmt.Sprintf("%s %s", strings.ToUpper(opp.Symbol), shortKind(opp.Kind))
		data[i] = opts.BarData{Value: round(opp.Returns.AnnualizedYield, 2)}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Annualized", data)
	return bar
}

// RenderReport 把排名图、收益图与前几名的盈亏曲线渲染为单页 HTML。
func RenderReport(w io.Writer, opps []types.StrategyOpportunity, maxPayoffs int) error {
	if maxPayoffs <= 0 {
		maxPayoffs = 3
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	if len(opps) > 0 {
		page.AddCharts(ScoreChart(opps), YieldChart(opps))
	}
	for i, opp := range opps {
		if i >= maxPayoffs {
			break
		}
		page.AddCharts(PayoffChart(opp))
	}
	return page.Render(w)
}

func shortKind(k types.StrategyKind) string {
	switch k {
	case types.CoveredCall:
		return "CC"
	case types.CashSecuredPut:
		return "CSP"
	case types.ShortStrangle:
		return "STRG"
	case types.IronCondor:
		return "IC"
	case types.BullPutSpread:
		return "BPS"
	case types.BearCallSpread:
		return "BCS"
	}
	return string(k)
}
