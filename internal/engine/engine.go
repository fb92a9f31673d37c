package engine

import (
	"errors"
	"time"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 리스크 분류 엔진 (pure classifier)
// ⭐ SSOT: data fetching, caching and persistence belong to the collector and
// audit layers; the engine only maps a snapshot to a report.
type Engine struct {
	th    Thresholds
	model BurdenModel
}

var (
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// New creates an engine with the default burden model
func New(th Thresholds) *Engine {
	return NewWithModel(th, DefaultBurdenModel())
}

// NewWithModel creates an engine with a custom burden model
func NewWithModel(th Thresholds, model BurdenModel) *Engine {
	return &Engine{th: th, model: model}
}

// Thresholds returns the thresholds in use
func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// =============================================================================
// Input / Output
// =============================================================================

// Universe ticker groups referenced by the snapshot's price map
type Universe struct {
	FocusName      string   `json:"focus_name"`
	Focus          []string `json:"focus"`     // group measured against the benchmark
	Benchmark      []string `json:"benchmark"` // benchmark group
	CreditProxy    string   `json:"credit_proxy"`
	HighYieldProxy string   `json:"high_yield_proxy"`
}

// Snapshot immutable input for one evaluation pass
type Snapshot struct {
	AsOf        time.Time              `json:"as_of"`
	SPX         Reading                `json:"spx"`
	FANG        Reading                `json:"fang"`
	SOFR        Reading                `json:"sofr"`
	IORB        Reading                `json:"iorb"`
	TNX         SeriesInput            `json:"tnx"`
	RealYield   SeriesInput            `json:"real_yield"`
	AuctionTail SeriesInput            `json:"auction_tail"`
	Entities    []EntityInput          `json:"entities"`
	Prices      map[string]SeriesInput `json:"prices"`
	Universe    Universe               `json:"universe"`
}

// IndicatorID 지표 식별자
type IndicatorID string

const (
	IndicatorSPXDefense        IndicatorID = "spx_defense"
	IndicatorFANGDefense       IndicatorID = "fang_defense"
	IndicatorReserveSpread     IndicatorID = "reserve_spread"
	IndicatorRateDeviation     IndicatorID = "rate_deviation"
	IndicatorRealYield         IndicatorID = "real_yield"
	IndicatorAuctionTail       IndicatorID = "auction_tail"
	IndicatorAggregateSolvency IndicatorID = "aggregate_solvency"
	IndicatorGroupRelative     IndicatorID = "group_relative"
	IndicatorCreditSpread      IndicatorID = "credit_spread"
)

// Indicator a classified signal with the raw value driving it
type Indicator struct {
	ID        IndicatorID `json:"id"`
	Value     float64     `json:"value"`
	Available bool        `json:"available"`
	Status    Status      `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	Level     Level       `json:"level"`
}

func newIndicator(id IndicatorID, r Reading, level Level) Indicator {
	ind := Indicator{
		ID:        id,
		Available: r.Available(),
		Status:    r.Status,
		Reason:    r.Reason,
		Level:     level,
	}
	if ind.Available {
		ind.Value = r.Value
	}
	return ind
}

// PriceLayer 가격 방어선 레이어
type PriceLayer struct {
	SPX   Indicator `json:"spx"`
	FANG  Indicator `json:"fang"`
	Level Level     `json:"level"` // worst of the two
}

// LiquidityLayer 유동성 마찰 레이어 (layer 2)
type LiquidityLayer struct {
	ReserveSpread Indicator `json:"reserve_spread"`
	RateDeviation Indicator `json:"rate_deviation"`
	RealYield     Indicator `json:"real_yield"`
	AuctionTail   Indicator `json:"auction_tail"`
	Composite     Composite `json:"composite"`
}

// Indicators returns the four sub-indicators in fixed order
func (l LiquidityLayer) Indicators() []Indicator {
	return []Indicator{l.ReserveSpread, l.RateDeviation, l.RealYield, l.AuctionTail}
}

// EntityMetric 종목별 산출 결과 (recomputed every pass, never mutated)
type EntityMetric struct {
	Ticker       string     `json:"ticker"`
	Price        Reading    `json:"price"`
	CashFlow     Reading    `json:"cash_flow"`
	Burden       Burden     `json:"burden"`
	PSR          Ratio      `json:"psr"`
	PSRAvailable bool       `json:"psr_available"`
	Durability   Durability `json:"durability"`
	Tier         Level      `json:"tier"`
	RelShort     Reading    `json:"rel_short"`
	RelLong      Reading    `json:"rel_long"`
	Market       MarketRank `json:"market"`
	Class        Class      `json:"class"`
}

// DurabilityLayer 자본 내구성 레이어 (layer 1)
type DurabilityLayer struct {
	Aggregate   Indicator      `json:"aggregate"`
	TotalCash   float64        `json:"total_cash"`
	TotalBurden float64        `json:"total_burden"`
	Covered     int            `json:"covered"` // entities with complete data
	Fallback    bool           `json:"fallback"`
	Entities    []EntityMetric `json:"entities"`
	Classes     map[Class]int  `json:"classes"`
}

// MarketLayer 시장 상대성과 레이어
type MarketLayer struct {
	GroupRelative Indicator `json:"group_relative"`
	CreditSpread  Indicator `json:"credit_spread"`
}

// Report 평가 결과
type Report struct {
	AsOf            time.Time       `json:"as_of"`
	Overall         Level           `json:"overall"`
	LiquidityStress Flag            `json:"liquidity_stress"`
	Price           PriceLayer      `json:"price"`
	Liquidity       LiquidityLayer  `json:"liquidity"`
	Durability      DurabilityLayer `json:"durability"`
	Market          MarketLayer     `json:"market"`
	Thresholds      Thresholds      `json:"thresholds"`
}

// Indicators returns every top-level indicator in fixed order
func (r Report) Indicators() []Indicator {
	return []Indicator{
		r.Price.SPX,
		r.Price.FANG,
		r.Liquidity.ReserveSpread,
		r.Liquidity.RateDeviation,
		r.Liquidity.RealYield,
		r.Liquidity.AuctionTail,
		r.Durability.Aggregate,
		r.Market.GroupRelative,
		r.Market.CreditSpread,
	}
}

// =============================================================================
// Evaluation
// =============================================================================

// Evaluate runs one full classification pass over an immutable snapshot.
// Total over its input: any combination of missing inputs yields a report.
func (e *Engine) Evaluate(s Snapshot) Report {
	th := e.th
	r := Report{AsOf: s.AsOf, Thresholds: th}

	// Price defense layer
	r.Price.SPX = newIndicator(IndicatorSPXDefense, s.SPX,
		ClassifyDefenseLine(s.SPX, th.SPXDefense, th.SPXFriction))
	r.Price.FANG = newIndicator(IndicatorFANGDefense, s.FANG,
		ClassifyDefenseLine(s.FANG, th.FANGFlip, th.FANGFriction))
	r.Price.Level = Worst(r.Price.SPX.Level, r.Price.FANG.Level)

	// Liquidity layer
	spread := ReserveSpread(s.SOFR, s.IORB)
	r.Liquidity = e.liquidityLayer(spread, s)
	r.LiquidityStress = LiquidityStress(spread, th)

	// Durability layer
	r.Durability = e.durabilityLayer(s)

	// Market layer
	r.Market = e.marketLayer(s)

	r.Overall = CombineLayers(r.Price.Level, r.LiquidityStress)
	return r
}

func (e *Engine) liquidityLayer(spread Reading, s Snapshot) LiquidityLayer {
	th := e.th
	dev := RateDeviation(s.TNX, th.RateMAWindow)
	realYield := s.RealYield.Latest()
	tail := s.AuctionTail.Latest()

	l := LiquidityLayer{
		ReserveSpread: newIndicator(IndicatorReserveSpread, spread, ClassifyReserveSpread(spread, th)),
		RateDeviation: newIndicator(IndicatorRateDeviation, dev, ClassifyRateDeviation(dev, th)),
		RealYield:     newIndicator(IndicatorRealYield, realYield, ClassifyRealYield(realYield, th)),
		AuctionTail:   newIndicator(IndicatorAuctionTail, tail, ClassifyAuctionTail(tail, th)),
	}
	l.Composite = Aggregate(
		l.ReserveSpread.Level,
		l.RateDeviation.Level,
		l.RealYield.Level,
		l.AuctionTail.Level,
	)
	return l
}

func (e *Engine) durabilityLayer(s Snapshot) DurabilityLayer {
	th := e.th
	layer := DurabilityLayer{
		Entities: make([]EntityMetric, 0, len(s.Entities)),
		Classes:  make(map[Class]int),
	}

	bench := GroupReturn(s.Prices, s.Universe.Benchmark, th.ShortWindow)
	benchLong := GroupReturn(s.Prices, s.Universe.Benchmark, th.LongWindow)

	for _, in := range s.Entities {
		m := e.evaluateEntity(in, s.Prices[in.Ticker], bench, benchLong)
		layer.Entities = append(layer.Entities, m)
		layer.Classes[m.Class]++

		if m.PSRAvailable {
			layer.TotalCash += in.CashFlow.Value
			layer.TotalBurden += m.Burden.Total
			layer.Covered++
		}
	}

	agg := Reading{Status: StatusEmpty, Reason: "no entity with complete cash flow and burden data"}
	if layer.Covered > 0 {
		ratio := SolvencyRatio(layer.TotalCash, layer.TotalBurden, th.SolvencyFallbackRatio)
		layer.Fallback = ratio.Fallback
		agg = ratio.Reading()
	}
	layer.Aggregate = newIndicator(IndicatorAggregateSolvency, agg, ClassifyAggregateSolvency(agg, th))
	return layer
}

func (e *Engine) evaluateEntity(in EntityInput, prices SeriesInput, bench, benchLong Reading) EntityMetric {
	th := e.th
	m := EntityMetric{
		Ticker:   in.Ticker,
		Price:    in.Price,
		CashFlow: in.CashFlow,
	}

	psr := Reading{Status: StatusEmpty, Reason: "incomplete cash flow or burden inputs"}
	if burden, ok := e.model.Compute(in, th.Burden); ok && in.CashFlow.Available() {
		m.Burden = burden
		m.PSR = SolvencyRatio(in.CashFlow.Value, burden.Total, th.SolvencyFallbackRatio)
		m.PSRAvailable = true
		psr = m.PSR.Reading()
	}

	m.Durability = ClassifyDurability(psr, th)
	m.Tier = m.Durability.Level()

	m.RelShort = RelativeReturn(TrailingReturn(prices, th.ShortWindow), bench)
	m.RelLong = RelativeReturn(TrailingReturn(prices, th.LongWindow), benchLong)
	m.Market = ClassifyMarket(m.RelShort, m.RelLong, th)

	m.Class = AssignClass(ClassInput{
		Durability: m.Durability,
		Market:     m.Market,
		PSR:        psr,
		RelShort:   m.RelShort,
		RelLong:    m.RelLong,
	}, th)
	return m
}

func (e *Engine) marketLayer(s Snapshot) MarketLayer {
	th := e.th
	u := s.Universe

	focus := GroupReturn(s.Prices, u.Focus, th.RelativeWindow)
	bench := GroupReturn(s.Prices, u.Benchmark, th.RelativeWindow)
	rel := RelativeReturn(focus, bench)

	hy := TrailingReturn(s.Prices[u.HighYieldProxy], th.RelativeWindow)
	ig := TrailingReturn(s.Prices[u.CreditProxy], th.RelativeWindow)
	credit := CreditSpread(hy, ig)

	return MarketLayer{
		GroupRelative: newIndicator(IndicatorGroupRelative, rel, ClassifyRelativePerformance(rel, th)),
		CreditSpread:  newIndicator(IndicatorCreditSpread, credit, ClassifyCreditSpread(credit, th)),
	}
}

// =============================================================================
// Stress Sweep
// =============================================================================

// StressPoint 단가(unit fee) 시나리오별 결과
type StressPoint struct {
	UnitFee   float64       `json:"unit_fee"`
	Aggregate Indicator     `json:"aggregate"`
	Classes   map[Class]int `json:"classes"`
	Broken    int           `json:"broken"`
}

// StressSweep re-evaluates the durability layer with the unit fee overridden
// uniformly across all entities, one point per fee.
func (e *Engine) StressSweep(s Snapshot, unitFees []float64) []StressPoint {
	points := make([]StressPoint, 0, len(unitFees))
	for _, fee := range unitFees {
		th := e.th
		th.Burden.UnitFee = fee
		scenario := NewWithModel(th, e.model)

		layer := scenario.durabilityLayer(s)
		p := StressPoint{
			UnitFee:   fee,
			Aggregate: layer.Aggregate,
			Classes:   layer.Classes,
		}
		for _, m := range layer.Entities {
			if m.Durability == DurabilityBroken {
				p.Broken++
			}
		}
		points = append(points, p)
	}
	return points
}
