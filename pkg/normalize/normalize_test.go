package normalize

import (
	"testing"

	"github.com/gitscout/gitscout/pkg/client"
)

func TestCanonicalCompany(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"handle prefix", "@Acme.com", "ACME"},
		{"url with www", "https://WWW.Foo.io", "FOO"},
		{"plain name", "Initech", "INITECH"},
		{"surrounding whitespace", "  globex corp  ", "GLOBEX CORP"},
		{"http prefix", "http://umbrella.org", "UMBRELLA"},
		{"bare www", "www.hooli.net", "HOOLI"},
		{"suffix only once each", "acme.co", "ACME"},
		{"no false suffix match", "MICROSCOPE", "MICROSCOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalCompany(tt.input); got != tt.want {
				t.Errorf("CanonicalCompany(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalCompanyIdempotent(t *testing.T) {
	inputs := []string{
		"", "@Acme.com", "https://WWW.Foo.io", "Initech", "  spaced  ",
		"www.hooli.net", "@HTTPS://double.io", "weird@middle.com",
	}

	for _, input := range inputs {
		once := CanonicalCompany(input)
		twice := CanonicalCompany(once)
		if once != twice {
			t.Errorf("CanonicalCompany not idempotent for %q: %q -> %q", input, once, twice)
		}
	}
}

func TestUserDefaultsOnAbsentFields(t *testing.T) {
	user := User(client.RawRecord{"login": "alice"})

	if user.Login != "alice" {
		t.Errorf("Login = %q, want alice", user.Login)
	}
	if user.Name != "" || user.Company != "" || user.Email != "" || user.Bio != "" {
		t.Errorf("string fields must default to empty, got %+v", user)
	}
	if user.Followers != 0 || user.PublicRepos != 0 || user.Following != 0 {
		t.Errorf("int fields must default to 0, got %+v", user)
	}
	if user.Hireable {
		t.Error("Hireable must default to false")
	}
}

func TestUserNullFieldsBecomeDefaults(t *testing.T) {
	// JSON null decodes to nil, which must normalize like absence.
	user := User(client.RawRecord{
		"login":    "bob",
		"name":     nil,
		"company":  nil,
		"hireable": nil,
	})

	if user.Name != "" || user.Company != "" {
		t.Errorf("null fields must normalize to empty strings, got %+v", user)
	}
	if user.Hireable {
		t.Error("null hireable must normalize to false")
	}
}

func TestUserFullRecord(t *testing.T) {
	user := User(client.RawRecord{
		"login":        "carol",
		"name":         "Carol D",
		"company":      "@Acme.com",
		"location":     "Sydney",
		"email":        "carol@example.com",
		"hireable":     true,
		"bio":          "systems",
		"public_repos": float64(42),
		"followers":    float64(250),
		"following":    float64(10),
		"created_at":   "2014-03-01T09:00:00Z",
	})

	want := UserRecord{
		Login:       "carol",
		Name:        "Carol D",
		Company:     "ACME",
		Location:    "Sydney",
		Email:       "carol@example.com",
		Hireable:    true,
		Bio:         "systems",
		PublicRepos: 42,
		Followers:   250,
		Following:   10,
		CreatedAt:   "2014-03-01T09:00:00Z",
	}
	if user != want {
		t.Errorf("User = %+v, want %+v", user, want)
	}
}

func TestRepoLicenseKeyExtraction(t *testing.T) {
	repo := Repo("carol", client.RawRecord{
		"full_name":        "carol/tool",
		"stargazers_count": float64(7),
		"license":          map[string]any{"key": "mit", "name": "MIT License"},
	})

	if repo.Login != "carol" {
		t.Errorf("Login = %q, want carol", repo.Login)
	}
	if repo.LicenseName != "mit" {
		t.Errorf("LicenseName = %q, want mit", repo.LicenseName)
	}
	if repo.StargazersCount != 7 {
		t.Errorf("StargazersCount = %d, want 7", repo.StargazersCount)
	}
}

func TestRepoNullLicense(t *testing.T) {
	repo := Repo("carol", client.RawRecord{
		"full_name": "carol/unlicensed",
		"license":   nil,
	})

	if repo.LicenseName != "" {
		t.Errorf("LicenseName = %q, want empty for null license", repo.LicenseName)
	}
}
