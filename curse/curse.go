// Package curse talks to the CurseForge v1 API.
package curse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/minepack/minepack/models"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.curseforge.com/v1"

	// gameMinecraft is the CurseForge game ID for Minecraft.
	gameMinecraft = 432

	// searchPageSize and searchPageBudget bound search pagination.
	searchPageSize   = 50
	searchPageBudget = 4

	maxAttempts = 4
)

// Config carries the ambient client state. It is constructed once in main
// and threaded into constructors, never read from globals.
type Config struct {
	APIKey  string
	BaseURL string
}

type Client struct {
	hc      *http.Client
	base    string
	key     string
	limiter *rate.Limiter
}

// NewClient returns a registry client throttled to a polite request rate.
// hc may be nil for http.DefaultClient.
func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		hc:      hc,
		base:    strings.TrimSuffix(base, "/"),
		key:     cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// errStatus is a non-2xx response. Retryable tells the retry loop whether
// another attempt may help (5xx, 429).
type errStatus struct {
	Code      int
	Retryable bool
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		u := c.base + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.key != "" {
			req.Header.Set("x-api-key", c.key)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &errStatus{Code: resp.StatusCode, Retryable: true}
		default:
			return backoff.Permanent(&errStatus{Code: resp.StatusCode})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxAttempts-1), ctx)
	err := backoff.Retry(op, bo)
	if err == nil {
		return nil
	}
	var se *errStatus
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound {
			return models.ErrNotFound
		}
		if se.Retryable {
			return fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
}

func newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return bo
}

// Search queries the registry search capability with bounded pagination.
// Results are mapped to candidates with their files ranked against the
// constraints; the match set itself is not filtered here.
func (c *Client) Search(ctx context.Context, query string, cons models.Constraints) ([]models.Candidate, error) {
	var mods []apiMod
	for page := 0; page < searchPageBudget; page++ {
		q := url.Values{}
		q.Set("gameId", strconv.Itoa(gameMinecraft))
		q.Set("searchFilter", query)
		if cons.MinecraftVersion != "" {
			q.Set("gameVersion", cons.MinecraftVersion)
		}
		q.Set("pageSize", strconv.Itoa(searchPageSize))
		q.Set("index", strconv.Itoa(page*searchPageSize))

		var resp searchModsResponse
		if err := c.get(ctx, "/mods/search", q, &resp); err != nil {
			return nil, err
		}
		mods = append(mods, resp.Data...)
		if resp.Pagination.Index+resp.Pagination.ResultCount >= resp.Pagination.TotalCount {
			break
		}
	}
	cands := make([]models.Candidate, len(mods))
	for i, m := range mods {
		cands[i] = candidate(m)
	}
	return cands, nil
}

// Project fetches project metadata by ID.
func (c *Client) Project(ctx context.Context, id int) (models.Candidate, error) {
	var resp getModResponse
	path := fmt.Sprintf("/mods/%d", id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return models.Candidate{}, err
	}
	return candidate(resp.Data), nil
}

// ProjectFiles lists the files of a project, ranked newest first.
func (c *Client) ProjectFiles(ctx context.Context, id int, cons models.Constraints) ([]models.FileMetadata, error) {
	q := url.Values{}
	if cons.MinecraftVersion != "" {
		q.Set("gameVersion", cons.MinecraftVersion)
	}
	if n := loaderType(cons.Loader); n != 0 {
		q.Set("modLoaderType", strconv.Itoa(n))
	}
	var resp getModFilesResponse
	path := fmt.Sprintf("/mods/%d/files", id)
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	files := make([]models.FileMetadata, 0, len(resp.Data))
	for _, f := range resp.Data {
		if !f.IsAvailable {
			continue
		}
		files = append(files, fileMetadata(f))
	}
	sortFiles(files)
	return files, nil
}

// DownloadURL re-derives a fresh download URL for a pinned file. Registry
// URLs are short-lived, so builds call this instead of trusting stored
// ones. Falls back to the CDN layout when the registry withholds the URL.
func (c *Client) DownloadURL(ctx context.Context, projectID, fileID int) (string, error) {
	var resp getDownloadURLResponse
	path := fmt.Sprintf("/mods/%d/files/%d/download-url", projectID, fileID)
	err := c.get(ctx, path, nil, &resp)
	if err != nil {
		return "", err
	}
	if resp.Data != "" {
		return resp.Data, nil
	}
	// Some projects disable API distribution; the edge CDN still serves
	// them under a well-known path derived from the file ID.
	var files getModFilesResponse
	fpath := fmt.Sprintf("/mods/%d/files", projectID)
	if err := c.get(ctx, fpath, nil, &files); err != nil {
		return "", err
	}
	for _, f := range files.Data {
		if f.ID == fileID {
			return edgeURL(fileID, f.FileName), nil
		}
	}
	return "", models.ErrNotFound
}

func edgeURL(fileID int, fileName string) string {
	return fmt.Sprintf("https://edge.forgecdn.net/files/%d/%d/%s",
		fileID/1000, fileID%1000, fileName)
}

func candidate(m apiMod) models.Candidate {
	files := make([]models.FileMetadata, 0, len(m.LatestFiles))
	for _, f := range m.LatestFiles {
		if !f.IsAvailable {
			continue
		}
		files = append(files, fileMetadata(f))
	}
	sortFiles(files)
	return models.Candidate{
		ProjectID:     m.ID,
		Slug:          m.Slug,
		Name:          m.Name,
		Summary:       m.Summary,
		DownloadCount: m.DownloadCount,
		Files:         files,
	}
}

func sortFiles(files []models.FileMetadata) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].PublishedAt.After(files[j].PublishedAt)
	})
}

func fileMetadata(f apiFile) models.FileMetadata {
	m := models.FileMetadata{
		FileID:      f.ID,
		DisplayName: f.DisplayName,
		FileName:    f.FileName,
		DownloadURL: f.DownloadURL,
		FileSize:    f.FileLength,
	}
	if t, err := time.Parse(time.RFC3339, f.FileDate); err == nil {
		m.PublishedAt = t
	}
	for _, h := range f.Hashes {
		if h.Algo == hashAlgoSha1 {
			m.ContentHash = h.Value
		}
	}
	if m.DownloadURL == "" {
		m.DownloadURL = edgeURL(f.ID, f.FileName)
	}
	// CurseForge mixes game versions and loader names in one list.
	for _, v := range f.GameVersions {
		switch strings.ToLower(v) {
		case "forge":
			m.Loaders = append(m.Loaders, models.LoaderForge)
		case "fabric":
			m.Loaders = append(m.Loaders, models.LoaderFabric)
		case "quilt":
			m.Loaders = append(m.Loaders, models.LoaderQuilt)
		case "neoforge":
			m.Loaders = append(m.Loaders, models.LoaderNeoForge)
		case "client", "server":
			// Environment tags, not versions.
		default:
			m.GameVersions = append(m.GameVersions, v)
		}
	}
	for _, d := range f.Dependencies {
		var rel models.Relation
		switch d.RelationType {
		case relationRequiredDependency:
			rel = models.RelationRequired
		case relationOptionalDependency, relationTool:
			rel = models.RelationOptional
		case relationEmbeddedLibrary, relationInclude:
			rel = models.RelationEmbedded
		default:
			continue
		}
		m.Dependencies = append(m.Dependencies, models.Dependency{
			ProjectID: d.ModID,
			Relation:  rel,
		})
	}
	return m
}

func loaderType(l models.Loader) int {
	switch l {
	case models.LoaderForge:
		return loaderTypeForge
	case models.LoaderFabric:
		return loaderTypeFabric
	case models.LoaderQuilt:
		return loaderTypeQuilt
	case models.LoaderNeoForge:
		return loaderTypeNeoForge
	}
	return 0
}
