package domain

import "context"

// ItemIterator yields items lazily, bufio.Scanner style. The sequence is
// finite and not restartable; re-enumeration re-issues the underlying calls.
type ItemIterator interface {
	Next(ctx context.Context) bool
	Item() *Item
	Err() error
}

// MediaSource is the driven port for the remote media provider. The core
// never touches the wire protocol; it only invokes these operations and
// classifies the errors they return.
type MediaSource interface {
	// ResolveTarget looks up an account by name. Fails with
	// ErrTargetNotFound, ErrTargetPrivate or ErrConnection.
	ResolveTarget(ctx context.Context, name string) (*TargetProfile, error)

	// Items enumerates the target's posts, newest first.
	Items(ctx context.Context, target *TargetProfile) ItemIterator

	// FetchItem resolves a single item by key. Fails with ErrItemNotFound
	// or ErrConnection.
	FetchItem(ctx context.Context, key string) (*Item, error)

	// Download saves the item's media into destDir. Connection failures are
	// wrapped with ErrConnection; filesystem errors are returned untouched
	// so the classifier sees the original errno.
	Download(ctx context.Context, item *Item, destDir string) error

	// Stories enumerates the target's currently available ephemeral items.
	Stories(ctx context.Context, target *TargetProfile) ItemIterator
}
