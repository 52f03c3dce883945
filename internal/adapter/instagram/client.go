// Package instagram implements the media source port against Instagram's
// public web API.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

const (
	baseURL   = "https://www.instagram.com"
	webAppID  = "936619743392459"
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	pageSize  = 33
)

// Client talks to the Instagram web endpoints.
type Client struct {
	http *http.Client
	base string
	log  *slog.Logger
}

// New creates a client with a request timeout suited to media transfers.
func New(log *slog.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 60 * time.Second},
		base: baseURL,
		log:  log,
	}
}

type profileResponse struct {
	Data struct {
		User *struct {
			ID        string `json:"id"`
			FullName  string `json:"full_name"`
			IsPrivate bool   `json:"is_private"`
			EdgeMedia struct {
				Count int `json:"count"`
			} `json:"edge_owner_to_timeline_media"`
			EdgeFollowedBy struct {
				Count int `json:"count"`
			} `json:"edge_followed_by"`
		} `json:"user"`
	} `json:"data"`
}

// ResolveTarget looks up the account metadata for username.
func (c *Client) ResolveTarget(ctx context.Context, username string) (*domain.TargetProfile, error) {
	url := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.base, username)
	raw, err := c.get(ctx, url)
	if err != nil {
		if err == errNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrTargetNotFound, username)
		}
		if err == errForbidden {
			return nil, fmt.Errorf("%w: %s", domain.ErrTargetPrivate, username)
		}
		return nil, err
	}

	var resp profileResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	if resp.Data.User == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTargetNotFound, username)
	}
	u := resp.Data.User
	if u.IsPrivate {
		return nil, fmt.Errorf("%w: %s", domain.ErrTargetPrivate, username)
	}

	return &domain.TargetProfile{
		Username:   username,
		UserID:     u.ID,
		FullName:   u.FullName,
		MediaCount: u.EdgeMedia.Count,
		Followers:  u.EdgeFollowedBy.Count,
		Private:    u.IsPrivate,
	}, nil
}

// Items returns a paged iterator over the target's timeline media, newest
// first.
func (c *Client) Items(ctx context.Context, target *domain.TargetProfile) domain.ItemIterator {
	return &feedIterator{client: c, userID: target.UserID}
}

// Stories returns an iterator over the target's current stories. Stories are
// served in a single page.
func (c *Client) Stories(ctx context.Context, target *domain.TargetProfile) domain.ItemIterator {
	url := fmt.Sprintf("%s/api/v1/feed/reels_media/?reel_ids=%s", c.base, target.UserID)
	raw, err := c.get(ctx, url)
	if err != nil {
		return &errIterator{err: fmt.Errorf("fetch stories: %w", err)}
	}

	var resp struct {
		ReelsMedia []struct {
			Items []feedItem `json:"items"`
		} `json:"reels_media"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &errIterator{err: fmt.Errorf("decode stories response: %w", err)}
	}

	var items []domain.Item
	for _, reel := range resp.ReelsMedia {
		for _, fi := range reel.Items {
			items = append(items, fi.toDomain())
		}
	}
	return &listIterator{items: items}
}

// FetchItem resolves a single post by shortcode.
func (c *Client) FetchItem(ctx context.Context, shortcode string) (*domain.Item, error) {
	url := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", c.base, shortcode)
	raw, err := c.get(ctx, url)
	if err != nil {
		if err == errNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, shortcode)
		}
		if err == errForbidden {
			return nil, fmt.Errorf("%w: %s", domain.ErrTargetPrivate, shortcode)
		}
		return nil, err
	}

	var resp struct {
		Items []feedItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode item response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, shortcode)
	}
	item := resp.Items[0].toDomain()
	return &item, nil
}

// Download fetches every media file of item into destDir. Filesystem errors
// pass through unwrapped so the caller can classify them.
func (c *Client) Download(ctx context.Context, item *domain.Item, destDir string) error {
	refs := mediaRefs(item)
	if len(refs) == 0 {
		return fmt.Errorf("%w: no media urls for %s", domain.ErrItemNotFound, item.Key)
	}

	for i, ref := range refs {
		name := fileName(item, i, len(refs), ref.IsVideo)
		c.log.Debug("downloading media file", "key", item.Key, "file", name)
		if err := c.downloadFile(ctx, ref.URL, filepath.Join(destDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// mediaRefs flattens an item into its downloadable files. Sidecar posts list
// every slide; plain posts contribute one file.
func mediaRefs(item *domain.Item) []domain.MediaRef {
	if len(item.Sidecar) > 0 {
		return item.Sidecar
	}
	if item.IsVideo && item.VideoURL != "" {
		return []domain.MediaRef{{URL: item.VideoURL, IsVideo: true}}
	}
	if item.DisplayURL != "" {
		return []domain.MediaRef{{URL: item.DisplayURL}}
	}
	return nil
}

// fileName renders <timestamp>_<key>[_n].<ext> with the post time in UTC.
func fileName(item *domain.Item, idx, total int, video bool) string {
	ext := ".jpg"
	if video {
		ext = ".mp4"
	}
	base := item.Date.UTC().Format("2006-01-02_15-04-05_UTC") + "_" + item.Key
	if total > 1 {
		return fmt.Sprintf("%s_%d%s", base, idx+1, ext)
	}
	return base + ext
}

func (c *Client) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, url)
	}

	f, err := os.OpenFile(dest+".tmp", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest + ".tmp")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A short read is a transfer problem, not a disk problem, unless
		// the copy failed on the write side.
		if isDiskErr(err) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest + ".tmp")
		return err
	}
	return os.Rename(dest+".tmp", dest)
}

func isDiskErr(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe)
}

var (
	errNotFound  = errors.New("resource not found")
	errForbidden = errors.New("access denied")
)

// get issues an API request with the web app headers and maps HTTP-level
// failures onto the domain error tiers.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-IG-App-ID", webAppID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errForbidden
	default:
		return nil, statusError(resp.StatusCode, url)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return raw, nil
}

// statusError maps the remaining status codes: rate limits and server errors
// are retryable connection failures.
func statusError(code int, url string) error {
	if code == http.StatusTooManyRequests || code >= 500 {
		return fmt.Errorf("%w: status %d from %s", domain.ErrConnection, code, url)
	}
	return fmt.Errorf("unexpected status %d from %s", code, url)
}
