package engine

import "math"

// =============================================================================
// Physical Solvency Ratio (PSR)
// =============================================================================

// BurdenParams 인프라 비용 파라미터
// UnitFee is the global sensitivity knob: a stress sweep overrides it uniformly
// for every entity.
type BurdenParams struct {
	UnitConversion    float64 `json:"unit_conversion"`      // energy unit → priced unit (MWh → kWh = 1000)
	PriceDeltaPerUnit float64 `json:"price_delta_per_unit"` // electricity price increase per priced unit ($/kWh)
	UnitFee           float64 `json:"unit_fee"`             // capacity reservation fee ($/MW-day)
	DaysInYear        float64 `json:"days_in_year"`
	HoursInYear       float64 `json:"hours_in_year"`
}

// DefaultBurdenParams 기본 비용 파라미터
func DefaultBurdenParams() BurdenParams {
	return BurdenParams{
		UnitConversion:    1000,
		PriceDeltaPerUnit: 0.02,
		UnitFee:           329.17,
		DaysInYear:        365,
		HoursInYear:       8760,
	}
}

// EntityInput 종목별 입력 (per-ticker record supplied by the fetch layer)
type EntityInput struct {
	Ticker       string  `json:"ticker"`
	Price        Reading `json:"price"`
	CashFlow     Reading `json:"cash_flow"`     // free cash flow, annual
	CapEx        Reading `json:"capex"`         // capital expenditure, sign ignored
	EnergyVolume Reading `json:"energy_volume"` // annual energy consumption (MWh)
}

// CostFunc computes one burden component; false when its inputs are unavailable
type CostFunc func(e EntityInput, p BurdenParams) (float64, bool)

// BurdenModel holds the three independently swappable cost components
type BurdenModel struct {
	CapEx            CostFunc
	DeltaElectricity CostFunc
	ReservationFee   CostFunc
}

// DefaultBurdenModel capex + energy price delta + capacity reservation fee
func DefaultBurdenModel() BurdenModel {
	return BurdenModel{
		CapEx:            CapExCost,
		DeltaElectricity: DeltaElectricityCost,
		ReservationFee:   ReservationFeeCost,
	}
}

// CapExCost absolute capital expenditure
func CapExCost(e EntityInput, _ BurdenParams) (float64, bool) {
	if !e.CapEx.Available() {
		return 0, false
	}
	return math.Abs(e.CapEx.Value), true
}

// DeltaElectricityCost energy_volume × unit_conversion × price_delta_per_unit
func DeltaElectricityCost(e EntityInput, p BurdenParams) (float64, bool) {
	if !e.EnergyVolume.Available() {
		return 0, false
	}
	return e.EnergyVolume.Value * p.UnitConversion * p.PriceDeltaPerUnit, true
}

// ReservationFeeCost estimated_capacity × unit_fee × days_in_year.
// Capacity is energy volume spread evenly over every hour of the year, i.e. it
// assumes 100% utilization. This is a simplifying assumption, not a bound.
func ReservationFeeCost(e EntityInput, p BurdenParams) (float64, bool) {
	if !e.EnergyVolume.Available() || p.HoursInYear <= 0 {
		return 0, false
	}
	capacity := e.EnergyVolume.Value / p.HoursInYear
	return capacity * p.UnitFee * p.DaysInYear, true
}

// Burden 물리적 부담 내역
type Burden struct {
	CapEx            float64 `json:"capex"`
	DeltaElectricity float64 `json:"delta_electricity"`
	ReservationFee   float64 `json:"reservation_fee"`
	Total            float64 `json:"total"`
}

// Compute evaluates every component; false if any component lacks inputs
func (m BurdenModel) Compute(e EntityInput, p BurdenParams) (Burden, bool) {
	components := []CostFunc{m.CapEx, m.DeltaElectricity, m.ReservationFee}
	values := make([]float64, len(components))
	for i, fn := range components {
		if fn == nil {
			continue // component switched off
		}
		v, ok := fn(e, p)
		if !ok {
			return Burden{}, false
		}
		values[i] = v
	}

	return Burden{
		CapEx:            values[0],
		DeltaElectricity: values[1],
		ReservationFee:   values[2],
		Total:            values[0] + values[1] + values[2],
	}, true
}

// Ratio a guarded ratio; Fallback is set when the denominator was not positive
type Ratio struct {
	Value    float64 `json:"value"`
	Fallback bool    `json:"fallback"`
}

// SolvencyRatio cash / burden, or the fallback ratio when burden <= 0
func SolvencyRatio(cash, burden, fallback float64) Ratio {
	if burden <= 0 || math.IsNaN(burden) {
		return Ratio{Value: fallback, Fallback: true}
	}
	return Ratio{Value: cash / burden}
}

// Reading converts the ratio into a classifier input
func (r Ratio) Reading() Reading {
	return Present(r.Value)
}
