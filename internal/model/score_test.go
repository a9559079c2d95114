package model

import "testing"

func TestScoreStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "good"},
		{75, "good"},
		{74, "needs work"},
		{50, "needs work"},
		{49, "poor"},
		{0, "poor"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := ScoreStatus(tt.score); got != tt.want {
				t.Errorf("ScoreStatus(%d) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestScoresComputeOverall(t *testing.T) {
	t.Parallel()

	t.Run("unavailable categories are excluded", func(t *testing.T) {
		t.Parallel()

		s := NewScores()
		s.SEO = 80
		s.Security = 60
		s.Content = 70
		s.Crawl = 90
		s.ComputeOverall()

		if s.Overall != 75 {
			t.Errorf("Overall = %d, want 75", s.Overall)
		}
	})

	t.Run("pagespeed categories included when collected", func(t *testing.T) {
		t.Parallel()

		s := NewScores()
		s.SEO = 80
		s.Security = 80
		s.Content = 80
		s.Crawl = 80
		s.Performance = 20
		s.Accessibility = 20
		s.ComputeOverall()

		if s.Overall != 60 {
			t.Errorf("Overall = %d, want 60", s.Overall)
		}
	})

	t.Run("all unavailable yields zero", func(t *testing.T) {
		t.Parallel()

		s := &Scores{SEO: -1, Security: -1, Content: -1, Crawl: -1, Performance: -1, Accessibility: -1}
		s.ComputeOverall()

		if s.Overall != 0 {
			t.Errorf("Overall = %d, want 0", s.Overall)
		}
	})
}
