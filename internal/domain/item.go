package domain

import "time"

// MediaRef locates one media child of a multi-media item.
type MediaRef struct {
	URL     string
	IsVideo bool
}

// Item is the metadata for one fetchable unit (a post), as resolved by the
// media source at ingestion time.
type Item struct {
	// Key is the opaque unique identifier (shortcode) within the owner's
	// namespace.
	Key   string
	Owner string
	Date  time.Time

	IsVideo bool
	// SidecarCount is the number of media children for multi-media items,
	// zero for single-media items.
	SidecarCount int

	// ShortForm reports the source's short-form (reel) classification.
	// Nil when the source does not expose it.
	ShortForm *bool

	// Media locators consumed by the source's Download implementation.
	DisplayURL string
	VideoURL   string
	Sidecar    []MediaRef
}

// IsReel returns true if the source classified the item as short-form video.
func (i *Item) IsReel() bool {
	return i.ShortForm != nil && *i.ShortForm
}

// FileCount returns how many media files a successful download of the item
// produces.
func (i *Item) FileCount() int {
	if i.SidecarCount > 1 {
		return i.SidecarCount
	}
	return 1
}

// TargetProfile is the resolved handle for a remote account.
type TargetProfile struct {
	Username   string
	UserID     string
	FullName   string
	MediaCount int
	Followers  int
	Private    bool
}
