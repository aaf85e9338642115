// Package normalize maps loosely shaped model output onto models.MarketRecord.
//
// Model output has drifted across prompt revisions, so every field is
// resolved through an ordered list of accepted shapes. The first shape
// present wins; when none is present the field gets its documented default.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/pkg/util"
)

// Raw is a decoded JSON object.
type Raw = map[string]any

// excludedSupplyKeys are absolute supply figures, not distribution shares.
var excludedSupplyKeys = map[string]bool{
	"maxSupply":          true,
	"circulatingSupply":  true,
	"totalSupply":        true,
	"supplyDistribution": true,
}

var fearGreedPhrase = regexp.MustCompile(`(?i)(\d+)\s*on\s*the\s*Fear\s*&\s*Greed\s*Index`)

// PlaceholderTokenomics is substituted when no distribution could be resolved.
func PlaceholderTokenomics() []models.TokenShare {
	return []models.TokenShare{
		{Name: "Miners/Early Adopters", Value: 60},
		{Name: "Retail Investors", Value: 30},
		{Name: "Institutional", Value: 10},
	}
}

// Normalize is total: any input, including nil, yields a valid record.
func Normalize(raw Raw) models.MarketRecord {
	if raw == nil {
		raw = Raw{}
	}

	rec := models.MarketRecord{
		CoinName:       str(raw["coinName"]),
		Symbol:         strings.ToUpper(str(raw["symbol"])),
		Summary:        str(raw["summary"]),
		PriceHistory:   priceHistory(raw),
		SentimentScore: sentiment(raw),
		LongShortRatio: longShort(raw),
		ProjectScores:  projectScores(raw["projectScores"]),
	}
	if v, ok := number(raw["currentPrice"]); ok {
		rec.CurrentPrice = v
	}

	rec.Tokenomics = tokenomics(raw["tokenomics"])
	if len(rec.Tokenomics) == 0 {
		rec.Tokenomics = PlaceholderTokenomics()
		rec.TokenomicsPlaceholder = true
	} else if b, ok := raw["tokenomicsPlaceholder"].(bool); ok && b {
		rec.TokenomicsPlaceholder = true
	}

	rec.EnsureSlices()
	return rec
}

// DecodeRecord parses JSON text and normalizes it.
func DecodeRecord(b []byte) (models.MarketRecord, error) {
	var raw Raw
	if err := json.Unmarshal(b, &raw); err != nil {
		return models.MarketRecord{}, err
	}
	return Normalize(raw), nil
}

func priceHistory(raw Raw) []models.PricePoint {
	for _, key := range []string{"priceHistory7D", "priceHistory"} {
		items, ok := raw[key].([]any)
		if !ok {
			continue
		}
		out := make([]models.PricePoint, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			price, _ := number(m["price"])
			out = append(out, models.PricePoint{
				Time:  firstStr(m, "date", "time"),
				Price: price,
			})
		}
		return out
	}
	return []models.PricePoint{}
}

func sentiment(raw Raw) int {
	var candidates []any
	switch ms := raw["marketSentiment"].(type) {
	case map[string]any:
		candidates = append(candidates, ms["score"], ms["value"])
	case nil:
	default:
		candidates = append(candidates, ms)
	}
	candidates = append(candidates, raw["sentimentScore"], raw["sentiment"])

	for _, c := range candidates {
		if v, ok := number(c); ok {
			// Clamp before converting so huge values cannot overflow int.
			return int(math.Round(math.Min(100, math.Max(0, v))))
		}
	}

	if m := fearGreedPhrase.FindStringSubmatch(str(raw["summary"])); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return models.ClampSentiment(v)
		}
	}
	return models.DefaultSentiment
}

func longShort(raw Raw) []models.LongShortPoint {
	for _, key := range []string{"longShortRatioBinance", "longShortRatio"} {
		items, ok := raw[key].([]any)
		if !ok {
			continue
		}
		out := make([]models.LongShortPoint, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			long, _ := number(m["long"])
			short, _ := number(m["short"])
			out = append(out, models.LongShortPoint{
				Time:  firstStr(m, "time", "date"),
				Long:  long,
				Short: short,
			})
		}
		return out
	}
	return []models.LongShortPoint{}
}

func tokenomics(v any) []models.TokenShare {
	switch t := v.(type) {
	case map[string]any:
		if dist, ok := t["supplyDistribution"].([]any); ok {
			return shares(dist)
		}
		keys := sortedKeys(t)
		out := make([]models.TokenShare, 0, len(keys))
		for _, k := range keys {
			if excludedSupplyKeys[k] {
				continue
			}
			// Non-numeric entries keep their slot with a zero share.
			val, _ := numberStrict(t[k])
			out = append(out, models.TokenShare{Name: k, Value: val})
		}
		return out
	case []any:
		return shares(t)
	}
	return nil
}

func shares(items []any) []models.TokenShare {
	out := make([]models.TokenShare, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		val, ok := number(m["percentage"])
		if !ok {
			val, _ = number(m["value"])
		}
		out = append(out, models.TokenShare{
			Name:  firstStr(m, "category", "name"),
			Value: val,
		})
	}
	return out
}

func projectScores(v any) []models.ProjectScore {
	switch t := v.(type) {
	case map[string]any:
		keys := sortedKeys(t)
		out := make([]models.ProjectScore, 0, len(keys))
		for _, k := range keys {
			a, _ := number(t[k])
			out = append(out, models.ProjectScore{Subject: util.Capitalize(k), A: a, FullMark: 100})
		}
		return out
	case []any:
		out := make([]models.ProjectScore, 0, len(t))
		for _, it := range t {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			a, _ := number(m["A"])
			full, ok := number(m["fullMark"])
			if !ok {
				full = 100
			}
			out = append(out, models.ProjectScore{Subject: str(m["subject"]), A: a, FullMark: full})
		}
		return out
	}
	return []models.ProjectScore{}
}

// number coerces JSON-ish numerics, including numeric strings.
func number(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return numberStrict(v)
}

// numberStrict accepts only values that are already numbers.
func numberStrict(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// firstStr returns the first non-empty string among keys.
func firstStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
