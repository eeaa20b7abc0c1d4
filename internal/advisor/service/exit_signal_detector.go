package service

import (
	"encoding/json"
	"fmt"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/ta"
	"golang-stock-advisor/pkg/utils"

	"gorm.io/datatypes"
)

const (
	rsiPeriod        = 14
	maPeriod         = 20
	timeExitBandLow  = -5.0
	timeExitBandHigh = 10.0
)

// ExitSignalDetector evaluates exit rules against a live position. Each rule is
// independent; every triggered rule yields one unsaved signal.
type ExitSignalDetector struct {
	profitTargetPct       float64
	stopLossPct           float64
	nearStopPct           float64
	reversalMinConditions int
	sentimentDropMin      float64
	maxHoldDaysMomentum   int
	maxHoldDaysDip        int
}

func NewExitSignalDetector(cfg config.Monitoring) *ExitSignalDetector {
	return &ExitSignalDetector{
		profitTargetPct:       cfg.DefaultProfitTargetPct,
		stopLossPct:           cfg.DefaultStopLossPct,
		nearStopPct:           cfg.NearStopWarningPct,
		reversalMinConditions: cfg.ReversalMinConditions,
		sentimentDropMin:      cfg.SentimentDropThreshold,
		maxHoldDaysMomentum:   cfg.MaxHoldDaysMomentum,
		maxHoldDaysDip:        cfg.MaxHoldDaysDip,
	}
}

// EvaluateInput carries everything the detector needs for one position.
type EvaluateInput struct {
	Position         entity.LivePosition
	Quote            *dto.QuoteData
	EntrySentiment   *float64
	CurrentSentiment *float64
	StrategyType     string
	Now              time.Time
}

// Evaluate runs every exit rule and returns the triggered signals, unsaved.
func (d *ExitSignalDetector) Evaluate(in EvaluateInput) []entity.ExitSignal {
	var signals []entity.ExitSignal

	price := in.Quote.MarketPrice
	returnPct := in.Position.CurrentReturnPct(price)

	if s := d.checkProfitTarget(in.Position, price, returnPct); s != nil {
		signals = append(signals, *s)
	}

	stopSignal := d.checkStopLoss(in.Position, price, returnPct)
	if stopSignal != nil {
		signals = append(signals, *stopSignal)
	} else if s := d.checkNearStop(in.Position, price, returnPct); s != nil {
		signals = append(signals, *s)
	}

	if s := d.checkReversal(in.Position, in.Quote, returnPct); s != nil {
		signals = append(signals, *s)
	}

	if s := d.checkSentimentShift(in.Position, price, returnPct, in.EntrySentiment, in.CurrentSentiment); s != nil {
		signals = append(signals, *s)
	}

	if s := d.checkTimeExit(in.Position, price, returnPct, in.StrategyType, in.Now); s != nil {
		signals = append(signals, *s)
	}

	for i := range signals {
		signals[i].PositionID = in.Position.ID
		signals[i].SignalDate = in.Now
		signals[i].CurrentPrice = price
		signals[i].ReturnPct = returnPct
		signals[i].Status = entity.SignalStatusPending
	}

	return signals
}

func (d *ExitSignalDetector) profitTargetFor(p entity.LivePosition) float64 {
	if p.ProfitTargetPct != nil {
		return *p.ProfitTargetPct
	}
	return d.profitTargetPct
}

func (d *ExitSignalDetector) stopLossFor(p entity.LivePosition) float64 {
	if p.StopLossPct != nil {
		return *p.StopLossPct
	}
	return d.stopLossPct
}

func (d *ExitSignalDetector) checkProfitTarget(p entity.LivePosition, price, returnPct float64) *entity.ExitSignal {
	target := d.profitTargetFor(p)
	if returnPct < target {
		return nil
	}
	return &entity.ExitSignal{
		SignalType:  entity.SignalTypeProfitTarget,
		Urgency:     entity.UrgencyHigh,
		TargetPrice: p.ProfitTargetPrice,
		Reason:      fmt.Sprintf("return %.2f%% reached profit target %.2f%%", returnPct, target),
	}
}

func (d *ExitSignalDetector) checkStopLoss(p entity.LivePosition, price, returnPct float64) *entity.ExitSignal {
	stop := d.stopLossFor(p)
	if returnPct > stop {
		return nil
	}
	return &entity.ExitSignal{
		SignalType:  entity.SignalTypeStopLoss,
		Urgency:     entity.UrgencyHigh,
		TargetPrice: p.StopLossPrice,
		Reason:      fmt.Sprintf("return %.2f%% breached stop loss %.2f%%", returnPct, stop),
	}
}

func (d *ExitSignalDetector) checkNearStop(p entity.LivePosition, price, returnPct float64) *entity.ExitSignal {
	stop := d.stopLossFor(p)
	if returnPct <= stop || returnPct > stop+d.nearStopPct {
		return nil
	}
	return &entity.ExitSignal{
		SignalType:  entity.SignalTypeStopLossNear,
		Urgency:     entity.UrgencyMedium,
		TargetPrice: p.StopLossPrice,
		Reason:      fmt.Sprintf("return %.2f%% is within %.1f points of stop loss %.2f%%", returnPct, d.nearStopPct, stop),
	}
}

func (d *ExitSignalDetector) checkReversal(p entity.LivePosition, quote *dto.QuoteData, returnPct float64) *entity.ExitSignal {
	closes := quote.Closes()
	volumes := quote.Volumes()
	if len(closes) < maPeriod {
		return nil
	}

	conditions := map[string]bool{}

	rsi := ta.RSI(closes, rsiPeriod)
	conditions["rsi_overbought_in_profit"] = rsi > 70 && returnPct > 0

	ma := ta.SMA(closes, maPeriod)
	lastClose := closes[len(closes)-1]
	conditions["below_moving_average"] = ma > 0 && lastClose < ma

	downDayHighVolume := false
	if len(closes) >= 2 && len(volumes) == len(closes) {
		avgVolume := meanVolume(volumes)
		last := len(closes) - 1
		downDayHighVolume = closes[last] < closes[last-1] && float64(volumes[last]) > avgVolume
	}
	conditions["high_volume_down_day"] = downDayHighVolume

	conditions["lower_highs"] = ta.HasLowerHighs(closes)

	met := 0
	for _, ok := range conditions {
		if ok {
			met++
		}
	}
	if met < d.reversalMinConditions {
		return nil
	}

	technical, _ := json.Marshal(map[string]interface{}{
		"conditions":     conditions,
		"conditions_met": met,
		"rsi":            rsi,
		"ma20":           ma,
	})

	return &entity.ExitSignal{
		SignalType:    entity.SignalTypeReversal,
		Urgency:       entity.UrgencyMedium,
		Reason:        fmt.Sprintf("%d of %d reversal conditions met", met, len(conditions)),
		TechnicalData: datatypes.JSON(technical),
	}
}

func (d *ExitSignalDetector) checkSentimentShift(p entity.LivePosition, price, returnPct float64, entrySentiment, currentSentiment *float64) *entity.ExitSignal {
	if entrySentiment == nil || currentSentiment == nil {
		return nil
	}
	drop := *entrySentiment - *currentSentiment
	if drop < d.sentimentDropMin {
		return nil
	}

	sentiment, _ := json.Marshal(map[string]interface{}{
		"entry_sentiment":   *entrySentiment,
		"current_sentiment": *currentSentiment,
		"drop":              drop,
	})

	return &entity.ExitSignal{
		SignalType:    entity.SignalTypeSentimentShift,
		Urgency:       entity.UrgencyMedium,
		Reason:        fmt.Sprintf("sentiment dropped %.2f since entry (%.2f -> %.2f)", drop, *entrySentiment, *currentSentiment),
		SentimentData: datatypes.JSON(sentiment),
	}
}

func (d *ExitSignalDetector) checkTimeExit(p entity.LivePosition, price, returnPct float64, strategyType string, now time.Time) *entity.ExitSignal {
	maxHoldDays := d.maxHoldDaysMomentum
	if strategyType == entity.StrategyDip {
		maxHoldDays = d.maxHoldDaysDip
	}

	daysHeld := utils.DaysBetween(utils.DateOnly(p.EntryDate), utils.DateOnly(now))
	if daysHeld <= maxHoldDays {
		return nil
	}
	if returnPct < timeExitBandLow || returnPct > timeExitBandHigh {
		return nil
	}

	return &entity.ExitSignal{
		SignalType: entity.SignalTypeTimeExit,
		Urgency:    entity.UrgencyLow,
		Reason:     fmt.Sprintf("held %d days (max %d) with return %.2f%% going nowhere", daysHeld, maxHoldDays, returnPct),
	}
}

func meanVolume(volumes []int64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range volumes {
		sum += float64(v)
	}
	return sum / float64(len(volumes))
}
