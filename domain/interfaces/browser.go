package interfaces

import (
	"context"
	"time"

	"ui_probe/domain/entities"
)

// Launcher starts browser sessions
type Launcher interface {
	// Name identifies the driver in logs and reports
	Name() string

	// Launch starts a browser and opens one page; the caller owns the session
	Launch(ctx context.Context, opts entities.LaunchOptions) (Session, error)
}

// Session is a browser, its context and one page. Close releases all of them.
type Session interface {
	Page
	Close() error
}

// Page defines the page-level operations a probe needs
type Page interface {
	// Navigate loads url and waits for the given load state; failures are *entities.NavigationError
	Navigate(ctx context.Context, url string, until entities.LoadState, timeout time.Duration) error

	// WaitForLoad blocks until the load state is reached; failures are *entities.TimeoutError
	WaitForLoad(ctx context.Context, state entities.LoadState, timeout time.Duration) error

	// Query returns a lazy handle over all elements matching the locator
	Query(loc entities.Locator) Elements

	// ClickAt dispatches a pointer click at a viewport point
	ClickAt(ctx context.Context, p entities.Point) error

	// Drag presses at from, moves to to and releases
	Drag(ctx context.Context, from, to entities.Point) error

	// Screenshot renders the page as PNG
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Content returns the current page markup
	Content(ctx context.Context) (string, error)
}

// Elements is the set of current matches of a locator
type Elements interface {
	Count(ctx context.Context) (int, error)
	Nth(i int) Element
}

// Element is one matched element
type Element interface {
	IsVisible(ctx context.Context) (bool, error)

	// WaitVisible fails with *entities.TimeoutError when the element stays hidden
	WaitVisible(ctx context.Context, timeout time.Duration) error

	ScrollIntoView(ctx context.Context) error

	// BoundingBox returns nil when the element is not rendered
	BoundingBox(ctx context.Context) (*entities.BoundingBox, error)
}
