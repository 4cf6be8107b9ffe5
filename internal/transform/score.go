package transform

import "time"

// CalculateScorePodcast derives the ranking signal for a podcast episode from
// show rating, rating volume, catalog size and recency. Each banding is an
// exclusive cascade: a record in the top band gets only that band's bonus,
// never the lower bands' on top.
//
// publishedDate must be a non-empty "YYYY-MM-DD" string; the recency penalty
// is undefined without it, so callers guard before calling.
func CalculateScorePodcast(rating float64, ratingCount, totalEpisodes int, publishedDate string) int {
	return calculateScorePodcastAt(rating, ratingCount, totalEpisodes, publishedDate, time.Now().UTC())
}

func calculateScorePodcastAt(rating float64, ratingCount, totalEpisodes int, publishedDate string, now time.Time) int {
	score := 0

	switch {
	case rating > 4.5 && ratingCount >= 2000:
		score += 3
	case rating > 4.0 && ratingCount >= 1000:
		score += 2
	case rating > 3.5 && ratingCount >= 500:
		score += 1
	}

	switch {
	case totalEpisodes > 500:
		score += 3
	case totalEpisodes > 300:
		score += 2
	case totalEpisodes > 100:
		score += 1
	}

	if pub, err := time.Parse("2006-01-02", publishedDate); err == nil {
		days := int(now.Sub(pub).Hours() / 24)
		switch {
		case days > 730:
			score -= 3
		case days > 365:
			score -= 2
		case days > 180:
			score -= 1
		}
	}

	return score
}
