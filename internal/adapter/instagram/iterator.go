package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

// feedItem is the wire shape shared by the timeline, stories and single-item
// endpoints.
type feedItem struct {
	Code          string      `json:"code"`
	Pk            json.Number `json:"pk"`
	TakenAt       int64       `json:"taken_at"`
	MediaType     int         `json:"media_type"` // 1 image, 2 video, 8 carousel
	ProductType   string      `json:"product_type"`
	User          struct {
		Username string `json:"username"`
	} `json:"user"`
	ImageVersions struct {
		Candidates []mediaCandidate `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []mediaCandidate `json:"video_versions"`
	CarouselMedia []feedItem       `json:"carousel_media"`
}

type mediaCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (fi feedItem) toDomain() domain.Item {
	key := fi.Code
	if key == "" {
		key = fi.Pk.String()
	}
	item := domain.Item{
		Key:          key,
		Owner:        fi.User.Username,
		Date:         time.Unix(fi.TakenAt, 0).UTC(),
		IsVideo:      fi.MediaType == 2,
		SidecarCount: len(fi.CarouselMedia),
	}
	if fi.ProductType != "" {
		shortForm := fi.ProductType == "clips"
		item.ShortForm = &shortForm
	}

	if len(fi.ImageVersions.Candidates) > 0 {
		item.DisplayURL = fi.ImageVersions.Candidates[0].URL
	}
	if len(fi.VideoVersions) > 0 {
		item.VideoURL = fi.VideoVersions[0].URL
	}
	for _, slide := range fi.CarouselMedia {
		ref := domain.MediaRef{IsVideo: slide.MediaType == 2}
		if ref.IsVideo && len(slide.VideoVersions) > 0 {
			ref.URL = slide.VideoVersions[0].URL
		} else if len(slide.ImageVersions.Candidates) > 0 {
			ref.URL = slide.ImageVersions.Candidates[0].URL
		}
		if ref.URL != "" {
			item.Sidecar = append(item.Sidecar, ref)
		}
	}
	return item
}

type feedPage struct {
	Items         []feedItem `json:"items"`
	MoreAvailable bool       `json:"more_available"`
	NextMaxID     string     `json:"next_max_id"`
}

// feedIterator pages through a user's timeline feed lazily, one request per
// page.
type feedIterator struct {
	client *Client
	userID string

	page    []domain.Item
	idx     int
	nextMax string
	done    bool
	started bool
	err     error
}

func (it *feedIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.idx < len(it.page) {
		it.idx++
		return true
	}
	if it.started && it.done {
		return false
	}

	if !it.fetchPage(ctx) {
		return false
	}
	if len(it.page) == 0 {
		return false
	}
	it.idx = 1
	return true
}

func (it *feedIterator) fetchPage(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/v1/feed/user/%s/?count=%d", it.client.base, it.userID, pageSize)
	if it.nextMax != "" {
		url += "&max_id=" + it.nextMax
	}

	raw, err := it.client.get(ctx, url)
	if err != nil {
		it.err = fmt.Errorf("fetch feed page: %w", err)
		return false
	}

	var page feedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		it.err = fmt.Errorf("decode feed page: %w", err)
		return false
	}

	it.started = true
	it.page = it.page[:0]
	for _, fi := range page.Items {
		it.page = append(it.page, fi.toDomain())
	}
	it.idx = 0
	it.nextMax = page.NextMaxID
	it.done = !page.MoreAvailable || page.NextMaxID == ""
	return true
}

func (it *feedIterator) Item() *domain.Item { return &it.page[it.idx-1] }
func (it *feedIterator) Err() error         { return it.err }

// listIterator serves a pre-fetched item list.
type listIterator struct {
	items []domain.Item
	idx   int
}

func (it *listIterator) Next(ctx context.Context) bool {
	if it.idx >= len(it.items) {
		return false
	}
	it.idx++
	return true
}

func (it *listIterator) Item() *domain.Item { return &it.items[it.idx-1] }
func (it *listIterator) Err() error         { return nil }

// errIterator reports a fetch failure through the iterator contract.
type errIterator struct{ err error }

func (it *errIterator) Next(ctx context.Context) bool { return false }
func (it *errIterator) Item() *domain.Item            { return nil }
func (it *errIterator) Err() error                    { return it.err }
