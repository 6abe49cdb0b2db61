package integrity

import "testing"

func TestRecommend(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	cases := []struct {
		name     string
		score    *float64
		high     int64
		moderate int64
		want     Recommendation
	}{
		{"clean high score", score(8.0), 0, 0, RecommendationPass},
		{"two high flags fail regardless of score", score(8.0), 2, 0, RecommendationFail},
		{"low score review", score(5.0), 0, 0, RecommendationReview},
		{"too many moderate flags", score(7.5), 0, 3, RecommendationReview},
		{"boundary score passes", score(7.0), 0, 2, RecommendationPass},
		{"single high flag blocks pass", score(9.0), 1, 0, RecommendationReview},
		{"missing score never passes", nil, 0, 0, RecommendationReview},
		{"fail precedes score check", score(2.0), 3, 5, RecommendationFail},
	}
	for _, c := range cases {
		if got := Recommend(c.score, c.high, c.moderate); got != c.want {
			t.Errorf("%s: Recommend = %s, want %s", c.name, got, c.want)
		}
	}
}
