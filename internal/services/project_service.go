package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/models"
	"golang.org/x/oauth2"
)

const (
	defaultProjectCacheTTL     = 15 * time.Minute
	defaultProjectFetchTimeout = 5 * time.Second
)

// ProjectService lists the site owner's public GitHub repositories for the
// projects page. Results are cached; a failed fetch serves the last good list
// and is not retried until the TTL passes again.
type ProjectService struct {
	client       *github.Client
	username     string
	ttl          time.Duration
	fetchTimeout time.Duration
	log          *logrus.Logger

	mu        sync.Mutex
	projects  []models.Project
	checkedAt time.Time
}

// NewProjectService builds a GitHub client for username. token may be empty,
// in which case requests are unauthenticated.
func NewProjectService(username, token string, log *logrus.Logger) *ProjectService {
	return &ProjectService{
		client:       newGitHubClient(token),
		username:     username,
		ttl:          defaultProjectCacheTTL,
		fetchTimeout: defaultProjectFetchTimeout,
		log:          log,
	}
}

func newGitHubClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return github.NewClient(tc)
}

// Projects returns the cached repository list, refreshing it once the TTL has
// passed. It never fails: errors are logged and yield whatever is cached.
func (s *ProjectService) Projects(ctx context.Context) []models.Project {
	if s == nil || s.username == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkedAt.IsZero() || time.Since(s.checkedAt) >= s.ttl {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		projects, err := s.fetch(fetchCtx)
		cancel()

		// A failure also counts as a check, so an outage costs one request per TTL.
		s.checkedAt = time.Now()
		if err != nil {
			s.log.WithError(err).WithField("username", s.username).Warn("Failed to fetch GitHub repositories")
			return s.projects
		}
		s.projects = projects
	}

	return s.projects
}

func (s *ProjectService) fetch(ctx context.Context) ([]models.Project, error) {
	opt := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var projects []models.Project
	for {
		repos, resp, err := s.client.Repositories.ListByUser(ctx, s.username, opt)
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			if repo.GetFork() || repo.GetArchived() || repo.GetPrivate() {
				continue
			}
			projects = append(projects, models.Project{
				Name:        repo.GetName(),
				Description: repo.GetDescription(),
				URL:         repo.GetHTMLURL(),
				Language:    repo.GetLanguage(),
				Stars:       repo.GetStargazersCount(),
				UpdatedAt:   repo.GetUpdatedAt().Time,
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return projects, nil
}
