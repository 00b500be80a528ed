package notifier

import (
	"fmt"
	"strings"
	"time"

	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"
	"PowerWallet/internal/strategy"

	"github.com/shopspring/decimal"
)

var branchLabels = map[model.Branch]string{
	model.BranchBand:          "阈值再平衡",
	model.BranchDCA:           "定投+加码",
	model.BranchCadence:       "未到定投周期",
	model.BranchStarved:       "稳定币缓冲不足",
	model.BranchAssetMismatch: "资产不匹配",
}

// USD renders a USD 1e8 value with cents.
func USD(v decimal.Decimal) string {
	return "$" + v.Shift(-fixedpoint.USDDecimals).StringFixed(2)
}

// Percent renders basis points as a percentage.
func Percent(bps int64) string {
	return decimal.NewFromInt(bps).Shift(-2).StringFixed(2) + "%"
}

// Amount renders base units of asset with its symbol.
func Amount(v decimal.Decimal, asset model.Asset) string {
	return fixedpoint.FormatUnits(v, asset.Decimals) + " " + asset.Symbol
}

// FormatDecision formats one evaluation result into a Telegram message.
func FormatDecision(walletID string, cfg strategy.Config, in model.EvaluationInput, d *model.Decision, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>PowerWallet</b> | %s | %s\n\n", walletID, now.Format("2006-01-02 15:04")))
	if len(in.Risk) > 0 {
		b.WriteString(fmt.Sprintf("%s 价格: %s\n", cfg.RiskAsset.Symbol, USD(in.Risk[0].Price)))
	}
	b.WriteString(fmt.Sprintf("净值: %s\n", USD(d.NavUSD)))
	b.WriteString(fmt.Sprintf("风险仓位: %s (区间 %s - %s)\n", Percent(d.WeightBps), Percent(d.LowerBps), Percent(d.UpperBps)))
	b.WriteString(fmt.Sprintf("波动率: %s | 回撤: %s\n\n",
		Percent(in.Reading.Volatility.Shift(-4).IntPart()), Percent(in.Reading.Drawdown.Shift(-4).IntPart())))

	label := branchLabels[d.Branch]
	if label == "" {
		label = string(d.Branch)
	}
	b.WriteString(fmt.Sprintf("💰 <b>结论:</b> %s\n", label))

	tr, ok := d.Trade()
	if !ok {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("   %s: 卖出 %s → %s\n", tr.Kind, Amount(tr.SellAmount, tr.SellAsset), tr.BuyAsset.Symbol))
	if d.Branch == model.BranchDCA {
		b.WriteString(fmt.Sprintf("   基础: %s | 加码: %s\n", Amount(d.BaseAmount, cfg.StableAsset), Amount(d.KickerAmount, cfg.StableAsset)))
	}
	if !d.NeedsRebalance {
		b.WriteString("   金额低于最小交易额，跳过\n")
	}
	return b.String()
}

// FormatExecution formats a settled trade.
func FormatExecution(walletID string, tr model.Trade, bought decimal.Decimal) string {
	return fmt.Sprintf("✅ <b>已成交</b> | %s\n卖出 %s\n买入 %s\n",
		walletID, Amount(tr.SellAmount, tr.SellAsset), Amount(bought, tr.BuyAsset))
}

// FormatWalletStatus formats the current wallet state for display.
func FormatWalletStatus(state model.WalletState, cfg strategy.Config, nextDue time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>钱包状态</b> | %s\n\n", state.ID))
	b.WriteString(fmt.Sprintf("%s: %s\n", cfg.StableAsset.Symbol, fixedpoint.FormatUnits(state.StableBalance, cfg.StableAsset.Decimals)))
	b.WriteString(fmt.Sprintf("%s: %s\n", cfg.RiskAsset.Symbol, fixedpoint.FormatUnits(state.RiskBalance, cfg.RiskAsset.Decimals)))
	b.WriteString(fmt.Sprintf("累计存入: %s\n", Amount(state.TotalDeposited, cfg.StableAsset)))
	b.WriteString(fmt.Sprintf("成交笔数: %d\n", state.TradeCount))
	if state.LastActionAt.IsZero() {
		b.WriteString("上次执行: 无\n")
	} else {
		b.WriteString(fmt.Sprintf("上次执行: %s\n", state.LastActionAt.Format("2006-01-02 15:04")))
	}
	if nextDue.IsZero() {
		b.WriteString("下次定投: 立即\n")
	} else {
		b.WriteString(fmt.Sprintf("下次定投: %s\n", nextDue.Format("2006-01-02 15:04")))
	}
	b.WriteString(fmt.Sprintf("更新时间: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatConfig formats a strategy configuration.
func FormatConfig(v strategy.Variant, cfg strategy.Config) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚙️ <b>%s</b> (%s)\n\n", v.Name, v.ID))
	b.WriteString(fmt.Sprintf("交易对: %s / %s\n", cfg.StableAsset.Symbol, cfg.RiskAsset.Symbol))
	b.WriteString(fmt.Sprintf("基础定投: %s / %s\n", Amount(cfg.BaseDcaAmount, cfg.StableAsset), cfg.Frequency))
	lower, upper := cfg.Bands()
	b.WriteString(fmt.Sprintf("目标仓位: %s (%s - %s)\n", Percent(cfg.TargetWeightBps), Percent(lower), Percent(upper)))
	b.WriteString(fmt.Sprintf("再平衡上限: %s\n", Percent(cfg.RebalanceCapBps)))
	b.WriteString(fmt.Sprintf("缓冲倍数: %dx\n", cfg.BufferMultiple))
	b.WriteString(fmt.Sprintf("加码系数: %s (上限 %dx)\n",
		fixedpoint.FormatUnits(cfg.KickerCoefficient, fixedpoint.CoefficientDecimals), cfg.KickerCapMultiple))
	b.WriteString(fmt.Sprintf("阈值再平衡: %v\n", cfg.ThresholdRebalancing))
	b.WriteString(fmt.Sprintf("最小交易额: %s\n", USD(cfg.MinTradeUSD)))
	return b.String()
}

// FormatDeposit formats a periodic top up.
func FormatDeposit(walletID string, amount, balance decimal.Decimal, stable model.Asset) string {
	return fmt.Sprintf("🏦 <b>定期存入</b> | %s\n存入 %s\n余额 %s\n", walletID, Amount(amount, stable), Amount(balance, stable))
}
