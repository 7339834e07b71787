// Package normalize maps raw API records into stable typed schemas. Missing
// or mistyped source fields become type-appropriate zero values, never nulls,
// so downstream consumers can index and aggregate without presence checks.
package normalize

import (
	"strings"

	"github.com/gitscout/gitscout/pkg/client"
)

// UserRecord is the normalized shape of one user profile.
type UserRecord struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Hireable    bool   `json:"hireable"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	CreatedAt   string `json:"created_at"`
}

// RepoRecord is the normalized shape of one repository, tagged with the
// owning user's login.
type RepoRecord struct {
	Login           string `json:"login"`
	FullName        string `json:"full_name"`
	CreatedAt       string `json:"created_at"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
	Language        string `json:"language"`
	HasProjects     bool   `json:"has_projects"`
	HasWiki         bool   `json:"has_wiki"`
	LicenseName     string `json:"license_name"`
}

// User normalizes a raw user detail record.
func User(raw client.RawRecord) UserRecord {
	return UserRecord{
		Login:       stringField(raw, "login"),
		Name:        stringField(raw, "name"),
		Company:     CanonicalCompany(stringField(raw, "company")),
		Location:    stringField(raw, "location"),
		Email:       stringField(raw, "email"),
		Hireable:    boolField(raw, "hireable"),
		Bio:         stringField(raw, "bio"),
		PublicRepos: intField(raw, "public_repos"),
		Followers:   intField(raw, "followers"),
		Following:   intField(raw, "following"),
		CreatedAt:   stringField(raw, "created_at"),
	}
}

// Repo normalizes a raw repository record for the given owner login.
// The license name comes from the nested license object's key.
func Repo(login string, raw client.RawRecord) RepoRecord {
	record := RepoRecord{
		Login:           login,
		FullName:        stringField(raw, "full_name"),
		CreatedAt:       stringField(raw, "created_at"),
		StargazersCount: intField(raw, "stargazers_count"),
		WatchersCount:   intField(raw, "watchers_count"),
		Language:        stringField(raw, "language"),
		HasProjects:     boolField(raw, "has_projects"),
		HasWiki:         boolField(raw, "has_wiki"),
	}
	if license, ok := raw["license"].(map[string]any); ok {
		record.LicenseName = stringField(license, "key")
	}
	return record
}

// Company labels in the wild carry handles, URLs and domain suffixes.
var (
	companyPrefixes = []string{"@", "HTTP://", "HTTPS://", "WWW."}
	companySuffixes = []string{".COM", ".ORG", ".NET", ".CO", ".IO"}
)

// CanonicalCompany canonicalizes an organization label: trim, uppercase,
// strip leading handle/scheme prefixes and trailing domain suffixes, re-trim.
// Total (empty in, empty out) and idempotent.
func CanonicalCompany(company string) string {
	company = strings.ToUpper(strings.TrimSpace(company))
	for _, prefix := range companyPrefixes {
		company = strings.TrimPrefix(company, prefix)
	}
	for _, suffix := range companySuffixes {
		company = strings.TrimSuffix(company, suffix)
	}
	return strings.TrimSpace(company)
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func intField(raw map[string]any, key string) int {
	// JSON numbers decode as float64.
	if f, ok := raw[key].(float64); ok {
		return int(f)
	}
	return 0
}

func boolField(raw map[string]any, key string) bool {
	b, _ := raw[key].(bool)
	return b
}
