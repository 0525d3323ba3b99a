package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"job-search-mas/internal/config"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/infra/metrics"
)

var _ adapter.JobSearchProvider = (*HHClient)(nil)

const (
	defaultBaseURL   = "https://api.hh.ru"
	defaultUserAgent = "JobSearchMAS/1.0"
	detailWorkers    = 4
	maxDescription   = 2000
	maxRequirement   = 500
	areasTimeout     = 5 * time.Second
)

// knownAreas covers the cities most résumés name; everything else goes through /areas.
var knownAreas = map[string]string{
	"москва":          "1",
	"санкт-петербург": "2",
	"спб":             "2",
	"питер":           "2",
}

var errAreaRejected = errors.New("hh: area rejected")

// HHClient searches vacancies on HH.ru. Any failure ends in placeholder
// postings so the job matching pipeline always has something to rank.
type HHClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	apiKey       string
	userAgent    string
	perPage      int
	http         *http.Client
	log          *zerolog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewHHClient(cfg config.JobSearchConfig, logger *zerolog.Logger) *HHClient {
	l := logger.With().Str("component", "hh_client").Logger()
	c := &HHClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiKey:       cfg.APIKey,
		userAgent:    cfg.UserAgent,
		perPage:      cfg.PerPage,
		http:         &http.Client{Timeout: cfg.Timeout},
		log:          &l,
		now:          time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 30 * time.Second
	}
	if c.perPage <= 0 {
		c.perPage = model.MaxJobMatches
	}
	return c
}

func (c *HHClient) Search(ctx context.Context, q adapter.JobQuery) (*adapter.JobSearchResult, error) {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = c.perPage
	}
	token := c.accessToken(ctx)

	params := url.Values{}
	params.Set("text", q.Text)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "0")
	if q.Area != "" {
		if code := c.normalizeArea(ctx, q.Area); code != "" {
			params.Set("area", code)
		}
	}
	if q.Salary != nil && *q.Salary > 0 {
		params.Set("salary", strconv.Itoa(*q.Salary))
	}
	if q.Experience != "" {
		params.Set("experience", q.Experience)
	}

	outcome := "ok"
	ids, err := c.searchIDs(ctx, params, token)
	if errors.Is(err, errAreaRejected) {
		c.log.Info().Str("area", params.Get("area")).Msg("retrying search without area filter")
		params.Del("area")
		outcome = "area_retry"
		ids, err = c.searchIDs(ctx, params, token)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("query", q.Text).Msg("hh search failed, using placeholder jobs")
		jobs := PlaceholderJobs(q.Text)
		metrics.IncJobSearch("placeholder", len(jobs))
		return &adapter.JobSearchResult{Jobs: jobs, Placeholder: true}, nil
	}
	if len(ids) > perPage {
		ids = ids[:perPage]
	}

	jobs := c.details(ctx, ids, token)
	metrics.IncJobSearch(outcome, len(jobs))
	c.log.Info().Int("jobs", len(jobs)).Str("outcome", outcome).Msg("hh search done")
	return &adapter.JobSearchResult{Jobs: jobs}, nil
}

func (c *HHClient) searchIDs(ctx context.Context, params url.Values, token string) ([]string, error) {
	body, status, err := c.get(ctx, "/vacancies?"+params.Encode(), token, 0)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "area") {
			return nil, errAreaRejected
		}
		return nil, fmt.Errorf("hh vacancies: status %d: %s", status, truncate(string(body), 200))
	}
	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode vacancies: %w", err)
	}
	ids := make([]string, 0, len(page.Items))
	for _, it := range page.Items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	return ids, nil
}

// details fetches full vacancies concurrently and keeps search order. Vacancies
// that fail to load are dropped.
func (c *HHClient) details(ctx context.Context, ids []string, token string) []model.JobPosting {
	slots := make([]*model.JobPosting, len(ids))
	sem := make(chan struct{}, detailWorkers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			job, err := c.vacancy(ctx, id, token)
			if err != nil {
				c.log.Debug().Err(err).Str("vacancy_id", id).Msg("vacancy details failed")
				return
			}
			slots[i] = job
		}(i, id)
	}
	wg.Wait()

	jobs := make([]model.JobPosting, 0, len(ids))
	for _, j := range slots {
		if j != nil {
			jobs = append(jobs, *j)
		}
	}
	return jobs
}

type hhVacancy struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Description string `json:"description"`
	Snippet     struct {
		Requirement string `json:"requirement"`
	} `json:"snippet"`
	KeySkills []struct {
		Name string `json:"name"`
	} `json:"key_skills"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Salary *struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	} `json:"salary"`
	Experience struct {
		ID string `json:"id"`
	} `json:"experience"`
	AlternateURL string `json:"alternate_url"`
	PublishedAt  string `json:"published_at"`
}

func (c *HHClient) vacancy(ctx context.Context, id, token string) (*model.JobPosting, error) {
	body, status, err := c.get(ctx, "/vacancies/"+url.PathEscape(id), token, 0)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("hh vacancy %s: status %d", id, status)
	}
	var v hhVacancy
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode vacancy %s: %w", id, err)
	}
	return toJobPosting(id, &v), nil
}

func toJobPosting(id string, v *hhVacancy) *model.JobPosting {
	description := v.Description
	if description == "" {
		description = v.Snippet.Requirement
	}
	job := &model.JobPosting{
		JobID:          id,
		Title:          v.Name,
		Company:        v.Employer.Name,
		Description:    truncate(description, maxDescription),
		Requirements:   []string{},
		SkillsRequired: make([]string, 0, len(v.KeySkills)),
		Location:       v.Area.Name,
		SeniorityLevel: seniorityFor(v.Experience.ID),
		URL:            v.AlternateURL,
		Source:         model.DefaultJobSource,
	}
	if description != "" {
		job.Requirements = []string{truncate(description, maxRequirement)}
	}
	for _, s := range v.KeySkills {
		job.SkillsRequired = append(job.SkillsRequired, s.Name)
	}
	if v.Salary != nil {
		job.SalaryMin, job.SalaryMax = v.Salary.From, v.Salary.To
	}
	if t, ok := parsePublished(v.PublishedAt); ok {
		job.PostedAt = &t
	}
	return job
}

func seniorityFor(experience string) model.Seniority {
	switch experience {
	case "noExperience":
		return model.SeniorityJunior
	case "between1And3":
		return model.SeniorityMiddle
	case "between3And6":
		return model.SenioritySenior
	case "moreThan6":
		return model.SeniorityLead
	}
	return ""
}

// parsePublished accepts RFC 3339 and the "+0300" offset form HH.ru uses.
func parsePublished(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeArea turns a city name into an HH.ru area id, or "" for no filter.
func (c *HHClient) normalizeArea(ctx context.Context, area string) string {
	area = strings.TrimSpace(area)
	if area == "" {
		return ""
	}
	if isDigits(area) {
		return area
	}
	name := strings.ToLower(area)
	name = strings.ReplaceAll(name, "г. ", "")
	name = strings.ReplaceAll(name, "город ", "")
	name = strings.TrimSpace(name)

	if code, ok := knownAreas[name]; ok {
		return code
	}
	if code := c.lookupArea(ctx, name); code != "" {
		c.log.Info().Str("city", area).Str("area", code).Msg("mapped city to area")
		return code
	}
	for city, code := range knownAreas {
		if strings.Contains(name, city) || strings.Contains(city, name) {
			return code
		}
	}
	c.log.Info().Str("city", area).Msg("unknown city, searching without area filter")
	return ""
}

type hhArea struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Areas []hhArea `json:"areas"`
}

func (c *HHClient) lookupArea(ctx context.Context, name string) string {
	body, status, err := c.get(ctx, "/areas", "", areasTimeout)
	if err != nil || status != http.StatusOK {
		return ""
	}
	var tree []hhArea
	if err := json.Unmarshal(body, &tree); err != nil {
		return ""
	}
	return findArea(tree, name)
}

func findArea(areas []hhArea, name string) string {
	for _, a := range areas {
		n := strings.ToLower(a.Name)
		if n != "" && (n == name || strings.Contains(n, name) || strings.Contains(name, n)) {
			return a.ID
		}
		if code := findArea(a.Areas, name); code != "" {
			return code
		}
	}
	return ""
}

// accessToken returns the static API key, a cached OAuth token, or a fresh one.
// An empty result means the public API is used anonymously.
func (c *HHClient) accessToken(ctx context.Context) string {
	if c.apiKey != "" {
		return c.apiKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token
	}
	if c.clientID == "" || c.clientSecret == "" {
		return ""
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("hh token request failed, continuing anonymously")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("hh token rejected, continuing anonymously")
		return ""
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		return ""
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 3600
	}
	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.token
}

func (c *HHClient) get(ctx context.Context, path, token string, timeout time.Duration) ([]byte, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
