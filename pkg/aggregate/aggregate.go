// Package aggregate computes summary statistics over normalized records.
// A Report is a read-only snapshot recomputed from scratch on demand; it has
// no lifecycle of its own.
package aggregate

import (
	"sort"

	"github.com/gitscout/gitscout/pkg/normalize"
)

// UnknownLanguage is the distribution bucket for repos without a language.
const UnknownLanguage = "Unknown"

// Report is the aggregate view of one harvest.
type Report struct {
	TotalUsers      int            `json:"total_users"`
	TotalRepos      int            `json:"total_repos"`
	HireableUsers   int            `json:"hireable_users"`
	Languages       map[string]int `json:"languages"`
	AvgStarsPerRepo float64        `json:"avg_stars_per_repo"`
	MostActiveUser  string         `json:"most_active_user"`
	MostStarredRepo string         `json:"most_starred_repo"`
}

// LanguageCount is one language bucket, for sorted presentation.
type LanguageCount struct {
	Language string
	Count    int
}

// Compute builds a Report in one pass over the record sets. Empty inputs
// produce a zero-valued report, never a fault.
func Compute(users []normalize.UserRecord, repos []normalize.RepoRecord) Report {
	report := Report{
		TotalUsers: len(users),
		TotalRepos: len(repos),
		Languages:  make(map[string]int),
	}

	for _, user := range users {
		if user.Hireable {
			report.HireableUsers++
		}
	}

	starSum := 0
	mostStars := 0
	repoCounts := make(map[string]int)
	var loginOrder []string

	for _, repo := range repos {
		lang := repo.Language
		if lang == "" {
			lang = UnknownLanguage
		}
		report.Languages[lang]++

		starSum += repo.StargazersCount
		// Strict greater-than: the first repo at the maximum wins ties.
		if repo.StargazersCount > mostStars || report.MostStarredRepo == "" {
			mostStars = repo.StargazersCount
			report.MostStarredRepo = repo.FullName
		}

		if _, seen := repoCounts[repo.Login]; !seen {
			loginOrder = append(loginOrder, repo.Login)
		}
		repoCounts[repo.Login]++
	}

	if len(repos) > 0 {
		report.AvgStarsPerRepo = float64(starSum) / float64(len(repos))
	}

	// First-seen login wins ties for the activity extremal.
	mostRepos := 0
	for _, login := range loginOrder {
		if repoCounts[login] > mostRepos {
			mostRepos = repoCounts[login]
			report.MostActiveUser = login
		}
	}

	return report
}

// TopLanguages returns the n most common languages, count descending with
// name as the deterministic tie-break.
func (r Report) TopLanguages(n int) []LanguageCount {
	counts := make([]LanguageCount, 0, len(r.Languages))
	for lang, count := range r.Languages {
		counts = append(counts, LanguageCount{Language: lang, Count: count})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Language < counts[j].Language
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
