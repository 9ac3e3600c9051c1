package strategy

import (
	"fmt"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// scoreTrend checks EMA alignment: fast>mid>slow is bullish, fast<mid<slow bearish.
func (e *Engine) scoreTrend(in Input) model.FactorScore {
	c := in.Curr
	f := model.FactorScore{Name: "trend", Weight: e.Weights.Trend}
	if !model.Valid(c.EMAFast) || !model.Valid(c.EMAMid) || !model.Valid(c.EMASlow) {
		return f
	}
	switch {
	case c.EMAFast > c.EMAMid && c.EMAMid > c.EMASlow:
		f.Side, f.Commentary = model.LabelBuy, "bullish EMA alignment"
	case c.EMAFast < c.EMAMid && c.EMAMid < c.EMASlow:
		f.Side, f.Commentary = model.LabelSell, "bearish EMA alignment"
	}
	return f
}

func (e *Engine) scoreEMACross(in Input) model.FactorScore {
	f := model.FactorScore{Name: "ema_cross", Weight: e.Weights.EMACross}
	switch calculator.DetectCross(in.Prev.EMAFast, in.Prev.EMAMid, in.Curr.EMAFast, in.Curr.EMAMid) {
	case calculator.CrossUp:
		f.Side, f.Commentary = model.LabelBuy, "fast EMA crossed above mid EMA"
	case calculator.CrossDown:
		f.Side, f.Commentary = model.LabelSell, "fast EMA crossed below mid EMA"
	}
	return f
}

func (e *Engine) scoreMACDCross(in Input) model.FactorScore {
	f := model.FactorScore{Name: "macd_cross", Weight: e.Weights.MACDCross}
	switch calculator.DetectCross(in.Prev.MACD, in.Prev.MACDSignal, in.Curr.MACD, in.Curr.MACDSignal) {
	case calculator.CrossUp:
		f.Side, f.Commentary = model.LabelBuy, "MACD crossed above signal"
	case calculator.CrossDown:
		f.Side, f.Commentary = model.LabelSell, "MACD crossed below signal"
	}
	return f
}

// scoreRSI scores oversold readings for buys and overbought readings for sells.
func (e *Engine) scoreRSI(in Input) model.FactorScore {
	rsi := in.Curr.RSI
	f := model.FactorScore{Name: "rsi"}
	if !model.Valid(rsi) {
		return f
	}
	f.Commentary = fmt.Sprintf("RSI=%.1f", rsi)
	switch {
	case rsi < e.RSI.BuyStrong:
		f.Side, f.Weight = model.LabelBuy, e.Weights.RSIStrong
	case rsi < e.RSI.BuyWeak:
		f.Side, f.Weight = model.LabelBuy, e.Weights.RSIWeak
	case rsi > e.RSI.SellStrong:
		f.Side, f.Weight = model.LabelSell, e.Weights.RSIStrong
	case rsi > e.RSI.SellWeak:
		f.Side, f.Weight = model.LabelSell, e.Weights.RSIWeak
	}
	return f
}

// scoreVolume confirms the move when volume is above its average.
func (e *Engine) scoreVolume(in Input) model.FactorScore {
	c := in.Curr
	f := model.FactorScore{Name: "volume", Weight: e.Weights.Volume}
	if !model.Valid(c.VolumeMA) || !model.Valid(c.EMAFast) || in.Volume <= c.VolumeMA {
		return f
	}
	switch {
	case in.Price > c.EMAFast:
		f.Side, f.Commentary = model.LabelBuy, fmt.Sprintf("volume %.0f above average %.0f", in.Volume, c.VolumeMA)
	case in.Price < c.EMAFast:
		f.Side, f.Commentary = model.LabelSell, fmt.Sprintf("volume %.0f above average %.0f", in.Volume, c.VolumeMA)
	}
	return f
}

// InputFromSet builds an engine input from the last two bars of an indicator set.
func InputFromSet(set *calculator.IndicatorSet) Input {
	last := set.Series.Last()
	return Input{
		Price:  last.Close,
		Volume: last.Volume,
		Curr:   set.Latest(),
		Prev:   set.Previous(),
	}
}
