// Package browsertest provides an in-memory browser for exercising probes without a real engine.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"
)

// PNG is the image returned by Screenshot unless a page sets its own
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// Node is one element on a fake page
type Node struct {
	Visible bool
	Box     *entities.BoundingBox

	// ShowOnWait makes a hidden node visible once something waits for it
	ShowOnWait bool

	Scrolled int
}

// Page is a scripted page. Locators match by their String form with the index dropped.
type Page struct {
	Nodes       map[string][]*Node
	Markup      string
	Image       []byte
	NavigateErr error
	CloseErr    error

	Navigations []string
	Loads       []entities.LoadState
	Clicks      []entities.Point
	Drags       [][2]entities.Point
	Closed      int
}

// NewPage - creates an empty page
func NewPage() *Page {
	return &Page{
		Nodes:  make(map[string][]*Node),
		Markup: "<html><body></body></html>",
		Image:  PNG,
	}
}

// Key - map key a locator resolves through
func Key(loc entities.Locator) string {
	loc.Index = nil
	return loc.String()
}

// Add - registers the elements a locator matches, in document order
func (p *Page) Add(loc entities.Locator, nodes ...*Node) *Page {
	p.Nodes[Key(loc)] = append(p.Nodes[Key(loc)], nodes...)
	return p
}

// Navigate - records the url
func (p *Page) Navigate(_ context.Context, url string, _ entities.LoadState, _ time.Duration) error {
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		return &entities.NavigationError{URL: url, Err: p.NavigateErr}
	}
	return nil
}

// WaitForLoad - records the state
func (p *Page) WaitForLoad(_ context.Context, state entities.LoadState, _ time.Duration) error {
	p.Loads = append(p.Loads, state)
	return nil
}

// Query - returns the registered matches of loc
func (p *Page) Query(loc entities.Locator) interfaces.Elements {
	return &elements{loc: loc, nodes: p.Nodes[Key(loc)]}
}

// ClickAt - records the point
func (p *Page) ClickAt(_ context.Context, pt entities.Point) error {
	p.Clicks = append(p.Clicks, pt)
	return nil
}

// Drag - records both points
func (p *Page) Drag(_ context.Context, from, to entities.Point) error {
	p.Drags = append(p.Drags, [2]entities.Point{from, to})
	return nil
}

// Screenshot - returns Image
func (p *Page) Screenshot(context.Context, bool) ([]byte, error) {
	return p.Image, nil
}

// Content - returns Markup
func (p *Page) Content(context.Context) (string, error) {
	return p.Markup, nil
}

// Close - counts closes and returns CloseErr
func (p *Page) Close() error {
	p.Closed++
	return p.CloseErr
}

type elements struct {
	loc   entities.Locator
	nodes []*Node
}

func (e *elements) Count(context.Context) (int, error) {
	return len(e.nodes), nil
}

func (e *elements) Nth(i int) interfaces.Element {
	if i < 0 {
		i += len(e.nodes)
	}
	if i < 0 || i >= len(e.nodes) {
		return &element{loc: e.loc}
	}
	return &element{loc: e.loc, node: e.nodes[i]}
}

type element struct {
	loc  entities.Locator
	node *Node
}

func (e *element) IsVisible(context.Context) (bool, error) {
	return e.node != nil && e.node.Visible, nil
}

func (e *element) WaitVisible(_ context.Context, timeout time.Duration) error {
	if e.node != nil && e.node.ShowOnWait {
		e.node.Visible = true
	}
	if e.node == nil || !e.node.Visible {
		return &entities.TimeoutError{What: fmt.Sprintf("%s to be visible", e.loc), Timeout: timeout}
	}
	return nil
}

// ScrollIntoView fails like a real engine does for elements without layout
func (e *element) ScrollIntoView(_ context.Context) error {
	if e.node == nil || e.node.Box == nil {
		return &entities.TimeoutError{What: fmt.Sprintf("%s to scroll into view", e.loc)}
	}
	e.node.Scrolled++
	return nil
}

func (e *element) BoundingBox(context.Context) (*entities.BoundingBox, error) {
	if e.node == nil || e.node.Box == nil {
		return nil, nil
	}
	box := *e.node.Box
	return &box, nil
}

// Launcher hands out sessions over one shared page
type Launcher struct {
	Page      *Page
	LaunchErr error
	Launched  []entities.LaunchOptions
}

// NewLauncher - creates a launcher over page
func NewLauncher(page *Page) *Launcher {
	return &Launcher{Page: page}
}

// Name - driver name used in reports
func (l *Launcher) Name() string {
	return "browsertest"
}

// Launch - records the options and returns the page
func (l *Launcher) Launch(_ context.Context, opts entities.LaunchOptions) (interfaces.Session, error) {
	l.Launched = append(l.Launched, opts)
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	return l.Page, nil
}
