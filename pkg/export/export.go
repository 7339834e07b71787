// Package export serializes harvest results to flat artifacts: CSV tables
// for both record kinds, a JSON dump of the aggregate report, and a markdown
// summary document.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gitscout/gitscout/pkg/harvest"
	"github.com/gitscout/gitscout/pkg/normalize"
)

// Artifact file names within the output directory.
const (
	UsersFile    = "users.csv"
	ReposFile    = "repositories.csv"
	AnalysisFile = "analysis.json"
	SummaryFile  = "README.md"
)

// Writer renders harvest results into an output directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a Writer targeting dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{
		dir:    dir,
		logger: log.With().Str("component", "export").Logger(),
	}, nil
}

// WriteAll writes every artifact for one harvest result.
func (w *Writer) WriteAll(result *harvest.Result, opts harvest.Options) error {
	if err := w.WriteUsers(result.Users); err != nil {
		return err
	}
	if err := w.WriteRepos(result.Repos); err != nil {
		return err
	}
	if err := w.WriteAnalysis(result); err != nil {
		return err
	}
	if err := w.WriteSummary(result, opts); err != nil {
		return err
	}
	w.logger.Info().Str("dir", w.dir).Msg("Artifacts written")
	return nil
}

// WriteUsers writes the normalized user records as CSV.
func (w *Writer) WriteUsers(users []normalize.UserRecord) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{
		"login", "name", "company", "location", "email", "hireable",
		"bio", "public_repos", "followers", "following", "created_at",
	})
	for _, u := range users {
		t.AppendRow(table.Row{
			u.Login, u.Name, u.Company, u.Location, u.Email, strconv.FormatBool(u.Hireable),
			u.Bio, u.PublicRepos, u.Followers, u.Following, u.CreatedAt,
		})
	}
	return w.writeFile(UsersFile, t.RenderCSV()+"\n")
}

// WriteRepos writes the normalized repository records as CSV.
func (w *Writer) WriteRepos(repos []normalize.RepoRecord) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{
		"login", "full_name", "created_at", "stargazers_count", "watchers_count",
		"language", "has_projects", "has_wiki", "license_name",
	})
	for _, r := range repos {
		t.AppendRow(table.Row{
			r.Login, r.FullName, r.CreatedAt, r.StargazersCount, r.WatchersCount,
			r.Language, strconv.FormatBool(r.HasProjects), strconv.FormatBool(r.HasWiki), r.LicenseName,
		})
	}
	return w.writeFile(ReposFile, t.RenderCSV()+"\n")
}

// WriteAnalysis writes the aggregate report as indented JSON.
func (w *Writer) WriteAnalysis(result *harvest.Result) error {
	data, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return w.writeFile(AnalysisFile, string(data)+"\n")
}

// WriteSummary writes the markdown summary document.
func (w *Writer) WriteSummary(result *harvest.Result, opts harvest.Options) error {
	report := result.Report

	langs := table.NewWriter()
	langs.AppendHeader(table.Row{"Language", "Repositories"})
	for _, lc := range report.TopLanguages(5) {
		langs.AppendRow(table.Row{lc.Language, lc.Count})
	}

	content := fmt.Sprintf(`# GitHub Users and Repositories for %s

Harvested %d users with %d+ followers and %d of their public repositories.

## Key Statistics

- Total Users: %d
- Total Repositories: %d
- Hireable Users: %d
- Average Stars per Repository: %.2f
- Most Active User: %s
- Most Starred Repository: %s

## Top Languages

%s

## Files

- %s: normalized user records
- %s: normalized repository records
- %s: aggregate statistics
`,
		opts.Location,
		report.TotalUsers, opts.MinFollowers, report.TotalRepos,
		report.TotalUsers,
		report.TotalRepos,
		report.HireableUsers,
		report.AvgStarsPerRepo,
		report.MostActiveUser,
		report.MostStarredRepo,
		langs.RenderMarkdown(),
		UsersFile, ReposFile, AnalysisFile,
	)

	if len(result.Failures) > 0 {
		content += "\n## Skipped Entities\n\n"
		for _, failure := range result.Failures {
			content += fmt.Sprintf("- %s (%s)\n", failure.Login, failure.Phase)
		}
	}

	return w.writeFile(SummaryFile, content)
}

func (w *Writer) writeFile(name, content string) error {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.logger.Debug().Str("file", path).Int("bytes", len(content)).Msg("Artifact written")
	return nil
}
