// Package tokens estimates token counts and request cost for the metadata
// stamped onto summary results and for the orchestrator's budget check.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the BPE used for estimation across providers. Counts for
// non-OpenAI models are approximations, which is all the budget check needs.
const encodingName = "cl100k_base"

// Pricing is the assumed blended USD cost per 1K tokens by provider,
// used when the provider does not report cost itself.
var pricing = map[string]float64{
	"anthropic": 0.0008,
	"openai":    0.0006,
	"google":    0.0003,
	"xai":       0.0020,
}

// defaultPricePer1K applies to unknown providers.
const defaultPricePer1K = 0.001

// Estimator counts tokens in text. It is safe for concurrent use.
type Estimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewEstimator creates a token estimator. The encoding is loaded lazily on
// first use so construction never fails.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Count returns the token count for text. If the tiktoken encoding cannot
// be loaded (for example offline, with no cached BPE files), it falls back
// to a bytes/4 heuristic.
func (e *Estimator) Count(text string) int {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			e.enc = enc
		}
	})

	if e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	return approxTokens(text)
}

// approxTokens is the offline fallback: roughly four bytes per token.
func approxTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// EstimateCostUSD converts a token count into an estimated USD cost for the
// given provider.
func EstimateCostUSD(provider string, tokenCount int) float64 {
	price, ok := pricing[provider]
	if !ok {
		price = defaultPricePer1K
	}
	return float64(tokenCount) / 1000 * price
}
