package models

// PricePoint is a single labelled price sample. Time is a display label ("M/D").
type PricePoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// TokenShare is one slice of a supply distribution, in percent.
type TokenShare struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// LongShortPoint is a daily long/short account split, in percent.
type LongShortPoint struct {
	Time  string  `json:"time"`
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// ProjectScore is one axis of the project radar.
type ProjectScore struct {
	Subject  string  `json:"subject"`
	A        float64 `json:"A"`
	FullMark float64 `json:"fullMark"`
}

// MarketRecord is the canonical per-asset result.
// Slice fields are always non-nil so they encode as [] rather than null.
type MarketRecord struct {
	CoinName       string           `json:"coinName"`
	Symbol         string           `json:"symbol,omitempty"`
	CurrentPrice   float64          `json:"currentPrice"`
	Summary        string           `json:"summary"`
	PriceHistory   []PricePoint     `json:"priceHistory"`
	Tokenomics     []TokenShare     `json:"tokenomics"`
	SentimentScore int              `json:"sentimentScore"`
	LongShortRatio []LongShortPoint `json:"longShortRatio"`
	ProjectScores  []ProjectScore   `json:"projectScores"`

	// TokenomicsPlaceholder is set when Tokenomics holds the illustrative
	// default distribution instead of generated or sourced data.
	TokenomicsPlaceholder bool `json:"tokenomicsPlaceholder"`
}

// DefaultSentiment is the neutral Fear & Greed value used whenever no score is known.
const DefaultSentiment = 50

// ClampSentiment bounds a score to [0,100].
func ClampSentiment(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// EnsureSlices replaces nil slices with empty ones.
func (r *MarketRecord) EnsureSlices() {
	if r.PriceHistory == nil {
		r.PriceHistory = []PricePoint{}
	}
	if r.Tokenomics == nil {
		r.Tokenomics = []TokenShare{}
	}
	if r.LongShortRatio == nil {
		r.LongShortRatio = []LongShortPoint{}
	}
	if r.ProjectScores == nil {
		r.ProjectScores = []ProjectScore{}
	}
}
