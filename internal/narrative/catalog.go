package narrative

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/crisis-audit/internal/engine"
)

// Language 출력 언어 (always passed explicitly, never held globally)
type Language string

const (
	English  Language = "en"
	Japanese Language = "ja"
)

// Languages lists every supported language
func Languages() []Language {
	return []Language{English, Japanese}
}

// ParseLanguage accepts "en"/"ja" and a few common aliases
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "eng", "english":
		return English, nil
	case "ja", "jp", "jpn", "japanese", "日本語":
		return Japanese, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

// Topic 설명 대상
type Topic string

const (
	TopicOverall       Topic = "overall"
	TopicPriceDefense  Topic = "price_defense"
	TopicReserveSpread Topic = "reserve_spread"
	TopicRateDeviation Topic = "rate_deviation"
	TopicRealYield     Topic = "real_yield"
	TopicAuctionTail   Topic = "auction_tail"
	TopicLiquidity     Topic = "liquidity"
	TopicDurability    Topic = "durability"
	TopicGroupRelative Topic = "group_relative"
	TopicCreditSpread  Topic = "credit_spread"
)

// Topics lists every topic in render order
func Topics() []Topic {
	return []Topic{
		TopicOverall,
		TopicPriceDefense,
		TopicReserveSpread,
		TopicRateDeviation,
		TopicRealYield,
		TopicAuctionTail,
		TopicLiquidity,
		TopicDurability,
		TopicGroupRelative,
		TopicCreditSpread,
	}
}

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrIncompleteCatalog   = errors.New("incomplete narrative catalog")
)

// Key identifies one message
type Key struct {
	Topic    Topic
	Level    engine.Level
	Language Language
}

// Entries raw catalog content
type Entries struct {
	Messages map[Key]string
	Titles   map[Topic]map[Language]string
	Labels   map[engine.Level]map[Language]string
}

// Catalog 다국어 메시지 카탈로그 (immutable after construction)
type Catalog struct {
	messages map[Key]string
	titles   map[Topic]map[Language]string
	labels   map[engine.Level]map[Language]string
}

// NewCatalog validates that every (topic, level, language) message, topic
// title and level label is present. A gap is a construction error, not a
// render-time fallback.
func NewCatalog(e Entries) (*Catalog, error) {
	var missing []string

	for _, lang := range Languages() {
		for _, topic := range Topics() {
			if e.Titles[topic][lang] == "" {
				missing = append(missing, fmt.Sprintf("title %s/%s", topic, lang))
			}
			for _, level := range engine.Levels() {
				if e.Messages[Key{topic, level, lang}] == "" {
					missing = append(missing, fmt.Sprintf("message %s/%s/%s", topic, level, lang))
				}
			}
		}
		for _, level := range engine.Levels() {
			if e.Labels[level][lang] == "" {
				missing = append(missing, fmt.Sprintf("label %s/%s", level, lang))
			}
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteCatalog, strings.Join(missing, ", "))
	}

	return &Catalog{
		messages: e.Messages,
		titles:   e.Titles,
		labels:   e.Labels,
	}, nil
}

// Default returns the built-in English/Japanese catalog
func Default() *Catalog {
	c, err := NewCatalog(defaultEntries())
	if err != nil {
		panic(err) // built-in catalog is covered by tests
	}
	return c
}

// Message returns the text for a key
func (c *Catalog) Message(topic Topic, level engine.Level, lang Language) string {
	return c.messages[Key{topic, level, lang}]
}

// Title returns the localized topic title
func (c *Catalog) Title(topic Topic, lang Language) string {
	return c.titles[topic][lang]
}

// Label returns the localized level label
func (c *Catalog) Label(level engine.Level, lang Language) string {
	return c.labels[level][lang]
}
