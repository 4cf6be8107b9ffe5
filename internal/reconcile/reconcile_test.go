package reconcile

import (
	"testing"

	"kimeta/internal/models"
	"kimeta/internal/transform"
)

func episode(title, date string) *models.CanonicalRecord {
	rec := &models.CanonicalRecord{Title: title}
	if date != "" {
		rec.PublishedDate = &date
	}
	return rec
}

func opts(fuzzy bool) Options {
	return Options{Fuzzy: fuzzy, Merge: transform.AddSpotifyData}
}

func TestReconcileTitleMatch(t *testing.T) {
	eps := []*models.CanonicalRecord{episode("Gravity Explained", "2024-01-01")}
	cands := []*models.StreamingEpisode{
		{ID: "a", Name: "Cooking Special", ReleaseDate: "2024-01-01"},
		{ID: "b", Name: "Gravity Explained", ReleaseDate: "2024-01-01", URL: "https://sp/b"},
	}

	res := Reconcile(eps, cands, "Space Pod", opts(false))

	if res.Matched != 1 || len(res.Failed) != 0 || len(res.Fuzzy) != 0 {
		t.Fatalf("matched=%d failed=%d fuzzy=%d", res.Matched, len(res.Failed), len(res.Fuzzy))
	}
	if got := eps[0].Metadata.AdditionalLinks.SpotifyURL; got == nil || *got != "https://sp/b" {
		t.Errorf("spotify_url = %v", got)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].ID != "a" {
		t.Errorf("unmatched = %v", res.Unmatched)
	}
}

func TestReconcileDateFallbackDisabled(t *testing.T) {
	eps := []*models.CanonicalRecord{episode("Ep 1", "2024-01-01")}
	cands := []*models.StreamingEpisode{{ID: "b", Name: "Completely Different", ReleaseDate: "2024-01-02"}}

	res := Reconcile(eps, cands, "Show", opts(false))

	if len(res.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(res.Failed))
	}
	if len(res.Unmatched) != 1 {
		t.Errorf("candidate should remain unconsumed")
	}
}

func TestReconcileDateFallbackEnabled(t *testing.T) {
	eps := []*models.CanonicalRecord{episode("Ep 1", "2024-01-02")}
	cands := []*models.StreamingEpisode{{ID: "b", Name: "Completely Different", ReleaseDate: "2024-01-02"}}

	res := Reconcile(eps, cands, "Show", opts(true))

	if len(res.Fuzzy) != 1 || len(res.Failed) != 0 {
		t.Fatalf("fuzzy=%d failed=%d", len(res.Fuzzy), len(res.Failed))
	}
	if len(res.Unmatched) != 0 {
		t.Errorf("candidate should be consumed by the date match")
	}
}

// Date strings must match byte for byte; differently formatted but equal
// dates do not pair.
func TestReconcileDateFallbackExactString(t *testing.T) {
	eps := []*models.CanonicalRecord{episode("Ep 1", "2024-01-02")}
	cands := []*models.StreamingEpisode{{ID: "b", Name: "Different", ReleaseDate: "2024-01-02T00:00:00Z"}}

	res := Reconcile(eps, cands, "Show", opts(true))
	if len(res.Failed) != 1 {
		t.Errorf("formats differ, should not match")
	}
}

// One candidate must never be consumed by two episodes.
func TestReconcileOneToOneConsumption(t *testing.T) {
	eps := []*models.CanonicalRecord{
		episode("The Interview", "2024-01-01"),
		episode("The Interview", "2024-01-01"),
	}
	cands := []*models.StreamingEpisode{
		{ID: "b", Name: "The Interview", ReleaseDate: "2024-01-01", URL: "https://sp/b"},
	}

	res := Reconcile(eps, cands, "Show", opts(true))

	if res.Matched != 1 {
		t.Fatalf("matched = %d, want 1", res.Matched)
	}
	seen := 0
	for _, rec := range eps {
		for _, orig := range rec.Original {
			if ep, ok := orig.(*models.StreamingEpisode); ok && ep.ID == "b" {
				seen++
			}
		}
	}
	if seen != 1 {
		t.Errorf("candidate appears in %d provenance trails, want 1", seen)
	}
}

func TestReconcileSkipsAlreadyLinked(t *testing.T) {
	url := "https://sp/existing"
	rec := episode("Ep 1", "2024-01-01")
	rec.Links().SpotifyURL = &url
	cands := []*models.StreamingEpisode{{ID: "b", Name: "Ep 1", ReleaseDate: "2024-01-01"}}

	res := Reconcile([]*models.CanonicalRecord{rec}, cands, "Show", opts(false))

	if res.Untouched != 1 || res.Matched != 0 {
		t.Errorf("untouched=%d matched=%d", res.Untouched, res.Matched)
	}
	if len(res.Unmatched) != 1 {
		t.Errorf("candidate must not be consumed by a skipped episode")
	}
}
