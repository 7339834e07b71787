// Package harvest orchestrates a full collection run: user search, per-user
// detail and repository enumeration, normalization, and aggregation. One
// entity's failure never aborts the batch; failures are collected alongside
// the successful subset.
package harvest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gitscout/gitscout/pkg/aggregate"
	"github.com/gitscout/gitscout/pkg/normalize"
	"github.com/gitscout/gitscout/pkg/paginate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configure one harvest run.
type Options struct {
	// Location filters users by profile location.
	Location string

	// MinFollowers filters users by follower count (strictly greater).
	MinFollowers int

	// RepoPageCeiling caps repository pages fetched per user.
	RepoPageCeiling int
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions(location string, minFollowers int) Options {
	return Options{
		Location:        location,
		MinFollowers:    minFollowers,
		RepoPageCeiling: 5,
	}
}

// EntityError records one entity whose enumeration failed mid-batch.
type EntityError struct {
	Login string
	Phase string // "details" or "repos"
	Err   error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("user %s: %s failed: %v", e.Login, e.Phase, e.Err)
}

func (e EntityError) Unwrap() error {
	return e.Err
}

// Result is the product of one run: normalized records for the successful
// subset, the failures that were skipped over, and the aggregate report.
type Result struct {
	Users    []normalize.UserRecord
	Repos    []normalize.RepoRecord
	Failures []EntityError
	Report   aggregate.Report
}

// Harvester drives one logical stream of sequential enumerations.
type Harvester struct {
	fetcher   paginate.Fetcher
	paginator *paginate.Paginator
	logger    zerolog.Logger
}

// New creates a Harvester on top of the given requester.
func New(fetcher paginate.Fetcher) *Harvester {
	return &Harvester{
		fetcher:   fetcher,
		paginator: paginate.New(fetcher),
		logger:    log.With().Str("component", "harvester").Logger(),
	}
}

// Run executes the full harvest. Only a search-phase failure aborts the run;
// per-user failures are recorded in Result.Failures and the batch continues.
func (h *Harvester) Run(ctx context.Context, opts Options) (*Result, error) {
	query := fmt.Sprintf("location:%s followers:>%d", opts.Location, opts.MinFollowers)
	h.logger.Info().Str("query", query).Msg("Searching users")

	found, err := paginate.Collect(h.paginator.Search(ctx, "/search/users", url.Values{"q": {query}}))
	if err != nil {
		return nil, fmt.Errorf("user search: %w", err)
	}
	h.logger.Info().Int("users", len(found)).Msg("Search complete")

	result := &Result{}
	for _, raw := range found {
		login, _ := raw["login"].(string)
		if login == "" {
			continue
		}

		user, err := h.fetchUser(ctx, login)
		if err != nil {
			h.logger.Error().Err(err).Str("login", login).Msg("User details failed, skipping user")
			result.Failures = append(result.Failures, EntityError{Login: login, Phase: "details", Err: err})
			continue
		}
		result.Users = append(result.Users, user)
	}

	for _, user := range result.Users {
		repos, err := h.fetchRepos(ctx, user.Login, opts.RepoPageCeiling)
		// Pages fetched before a failure stay in the result set.
		result.Repos = append(result.Repos, repos...)
		if err != nil {
			h.logger.Error().Err(err).Str("login", user.Login).Msg("Repository enumeration failed, keeping partial results")
			result.Failures = append(result.Failures, EntityError{Login: user.Login, Phase: "repos", Err: err})
		}
	}

	result.Report = aggregate.Compute(result.Users, result.Repos)
	h.logger.Info().
		Int("users", len(result.Users)).
		Int("repos", len(result.Repos)).
		Int("failures", len(result.Failures)).
		Msg("Harvest complete")
	return result, nil
}

func (h *Harvester) fetchUser(ctx context.Context, login string) (normalize.UserRecord, error) {
	h.logger.Debug().Str("login", login).Msg("Fetching user details")

	page, err := h.fetcher.Get(ctx, "/users/"+url.PathEscape(login), nil)
	if err != nil {
		return normalize.UserRecord{}, err
	}
	if len(page.Items) == 0 {
		return normalize.UserRecord{}, fmt.Errorf("empty detail response for %s", login)
	}
	return normalize.User(page.Items[0]), nil
}

func (h *Harvester) fetchRepos(ctx context.Context, login string, pageCeiling int) ([]normalize.RepoRecord, error) {
	h.logger.Debug().Str("login", login).Msg("Fetching repositories")

	params := url.Values{
		"sort":      {"pushed"},
		"direction": {"desc"},
	}
	raws, err := paginate.Collect(h.paginator.List(ctx, "/users/"+url.PathEscape(login)+"/repos", params, pageCeiling))

	repos := make([]normalize.RepoRecord, 0, len(raws))
	for _, raw := range raws {
		repos = append(repos, normalize.Repo(login, raw))
	}
	return repos, err
}
