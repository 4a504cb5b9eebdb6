package tokens

import (
	"testing"
)

func TestCount(t *testing.T) {
	estimator := NewEstimator()

	if got := estimator.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}

	short := estimator.Count("ship it")
	long := estimator.Count("the team agreed to ship the release on Friday after reviewing the open issues")
	if short <= 0 {
		t.Errorf("Count(short) = %d, want > 0", short)
	}
	if long <= short {
		t.Errorf("Count(long) = %d, want > Count(short) = %d", long, short)
	}
}

func TestApproxTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "", want: 0},
		{text: "ab", want: 1},
		{text: "twelve chars", want: 3},
	}

	for _, test := range tests {
		if got := approxTokens(test.text); got != test.want {
			t.Errorf("approxTokens(%q) = %d, want %d", test.text, got, test.want)
		}
	}
}

func TestEstimateCostUSD(t *testing.T) {
	if got := EstimateCostUSD("openai", 0); got != 0 {
		t.Errorf("EstimateCostUSD(openai, 0) = %g, want 0", got)
	}

	openai := EstimateCostUSD("openai", 1000)
	if openai != pricing["openai"] {
		t.Errorf("EstimateCostUSD(openai, 1000) = %g, want %g", openai, pricing["openai"])
	}

	unknown := EstimateCostUSD("somethingelse", 1000)
	if unknown != defaultPricePer1K {
		t.Errorf("EstimateCostUSD(unknown, 1000) = %g, want %g", unknown, defaultPricePer1K)
	}
}
