package domain

import "math"

type OptionResult struct {
	OptionID   int64  `json:"option_id"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

type Snapshot struct {
	PollID     int64          `json:"poll_id"`
	Version    int64          `json:"version"`
	Status     Status         `json:"status"`
	TotalVotes int64          `json:"total_votes"`
	Results    []OptionResult `json:"results"`
	Poll       *Poll          `json:"poll"`
}

// Aggregate computes per-option percentages for display. Each option is rounded
// independently, so the percentages are not guaranteed to add up to 100.
func Aggregate(p *Poll) Snapshot {
	total := p.TotalVotes()
	results := make([]OptionResult, 0, len(p.Options))
	for _, opt := range p.Options {
		results = append(results, OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: percentage(opt.Votes, total),
		})
	}
	return Snapshot{
		PollID:     p.ID,
		Version:    p.Version,
		Status:     p.Status,
		TotalVotes: total,
		Results:    results,
		Poll:       p,
	}
}

func percentage(votes, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}
