package narrative

import (
	"fmt"
	"strings"

	"github.com/wonny/crisis-audit/internal/engine"
)

// Section one explained block
type Section struct {
	Topic   Topic        `json:"topic"`
	Title   string       `json:"title"`
	Level   engine.Level `json:"level"`
	Label   string       `json:"label"`
	Text    string       `json:"text"`
	Figures []string     `json:"figures,omitempty"`
}

// Narrative localized explanation of one report
type Narrative struct {
	Language Language     `json:"language"`
	Overall  engine.Level `json:"overall"`
	Headline string       `json:"headline"`
	Sections []Section    `json:"sections"`
}

// Render explains a report in the given language
func (c *Catalog) Render(r engine.Report, lang Language) (Narrative, error) {
	if !supported(lang) {
		return Narrative{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	n := Narrative{
		Language: lang,
		Overall:  r.Overall,
		Headline: c.Message(TopicOverall, r.Overall, lang),
	}

	add := func(topic Topic, level engine.Level, figures ...string) {
		n.Sections = append(n.Sections, Section{
			Topic:   topic,
			Title:   c.Title(topic, lang),
			Level:   level,
			Label:   c.Label(level, lang),
			Text:    c.Message(topic, level, lang),
			Figures: figures,
		})
	}

	th := r.Thresholds
	add(TopicPriceDefense, r.Price.Level,
		defenseFigure("S&P 500", r.Price.SPX, th.SPXDefense, th.SPXFriction),
		defenseFigure("NYSE FANG+", r.Price.FANG, th.FANGFlip, th.FANGFriction),
	)

	liq := r.Liquidity
	add(TopicReserveSpread, liq.ReserveSpread.Level, figure("SOFR-IORB", liq.ReserveSpread, "%+.1f bp", 100))
	add(TopicRateDeviation, liq.RateDeviation.Level,
		figure(fmt.Sprintf("10Y vs %d-day average", th.RateMAWindow), liq.RateDeviation, "%+.3f pt", 1))
	add(TopicRealYield, liq.RealYield.Level, figure("10Y real yield", liq.RealYield, "%.2f%%", 1))
	add(TopicAuctionTail, liq.AuctionTail.Level, figure("Auction tail", liq.AuctionTail, "%.1f bp", 1))
	add(TopicLiquidity, liq.Composite.Level, fmt.Sprintf("critical %d, warning %d, unknown %d",
		liq.Composite.RedCount, liq.Composite.YellowCount, liq.Composite.UnknownCount))

	add(TopicDurability, r.Durability.Aggregate.Level, durabilityFigures(r.Durability)...)

	add(TopicGroupRelative, r.Market.GroupRelative.Level,
		figure(fmt.Sprintf("%d-day relative return", th.RelativeWindow), r.Market.GroupRelative, "%+.1f%%", 100))
	add(TopicCreditSpread, r.Market.CreditSpread.Level,
		figure("HY minus IG return", r.Market.CreditSpread, "%+.1f%%", 100))

	return n, nil
}

// String renders the narrative as plain text
func (n Narrative) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", n.Overall, n.Headline)
	for _, s := range n.Sections {
		fmt.Fprintf(&b, "\n== %s [%s]\n%s\n", s.Title, s.Label, s.Text)
		for _, f := range s.Figures {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	return b.String()
}

func supported(lang Language) bool {
	for _, l := range Languages() {
		if l == lang {
			return true
		}
	}
	return false
}

func figure(name string, ind engine.Indicator, format string, scale float64) string {
	if !ind.Available {
		return fmt.Sprintf("%s: n/a (%s)", name, unavailable(ind))
	}
	return fmt.Sprintf("%s: "+format, name, ind.Value*scale)
}

func defenseFigure(name string, ind engine.Indicator, defense, friction float64) string {
	if !ind.Available {
		return fmt.Sprintf("%s: n/a (%s)", name, unavailable(ind))
	}
	return fmt.Sprintf("%s: %.2f (defense %.0f, friction %.0f)", name, ind.Value, defense, friction)
}

func unavailable(ind engine.Indicator) string {
	if ind.Reason != "" {
		return ind.Status.String() + ": " + ind.Reason
	}
	return ind.Status.String()
}

func durabilityFigures(d engine.DurabilityLayer) []string {
	figures := make([]string, 0, len(d.Entities)+1)

	agg := figure("Aggregate cash / burden", d.Aggregate, "%.2f", 1)
	if d.Fallback {
		agg += " (zero burden fallback)"
	}
	figures = append(figures, agg)

	for _, m := range d.Entities {
		if !m.PSRAvailable {
			figures = append(figures, fmt.Sprintf("%s: PSR n/a, %s", m.Ticker, m.Class))
			continue
		}
		figures = append(figures, fmt.Sprintf("%s: PSR %.2f %s, market %s, %s",
			m.Ticker, m.PSR.Value, m.Durability, m.Market, m.Class))
	}
	return figures
}
