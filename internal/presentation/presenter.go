package presentation

import (
	"strings"
	"sync"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
	"github.com/sean-rowe/weather-now/internal/core/services"
)

// StateSource is the part of the acquisition controller the presenter needs.
type StateSource interface {
	Subscribe(fn func(domain.AcquisitionState)) (unsubscribe func())
	Search(city string) bool
}

// Screen is everything a surface needs to draw the current frame.
type Screen struct {
	Phase   string     `json:"phase"`
	Status  string     `json:"status,omitempty"`
	Weather *ViewModel `json:"weather,omitempty"`
	Unit    string     `json:"unit"`
	Query   string     `json:"query"`
}

// Presenter owns the unit preference and the search query, and recomputes
// the Screen on every acquisition state or unit change. It also implements
// ports.Notifier, localizing notices for its listeners.
type Presenter struct {
	messages *Messages

	mu          sync.Mutex
	source      StateSource
	state       domain.AcquisitionState
	unit        domain.UnitPreference
	query       string
	unsubscribe func()

	screen *services.Observable[Screen]

	noticeMu  sync.Mutex
	listeners []func(string)
}

// NewPresenter creates a presenter showing the Idle state in Celsius.
func NewPresenter(messages *Messages) *Presenter {
	p := &Presenter{
		messages: messages,
		state:    domain.Idle(),
		unit:     domain.Celsius,
	}

	p.screen = services.NewObservable(p.buildLocked())

	return p
}

// Attach subscribes to source. It must be called once before Submit.
func (p *Presenter) Attach(source StateSource) {
	p.mu.Lock()
	p.source = source
	p.mu.Unlock()

	unsubscribe := source.Subscribe(p.onState)

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
}

// Detach stops following the state source.
func (p *Presenter) Detach() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (p *Presenter) onState(state domain.AcquisitionState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = state
	p.screen.Set(p.buildLocked())
}

// Screen returns the current frame.
func (p *Presenter) Screen() Screen {
	return p.screen.Get()
}

// Subscribe registers fn for every new frame and calls it with the current one.
func (p *Presenter) Subscribe(fn func(Screen)) (unsubscribe func()) {
	return p.screen.Subscribe(fn)
}

// Unit returns the current unit preference.
func (p *Presenter) Unit() domain.UnitPreference {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.unit
}

// ToggleUnit switches between Celsius and Fahrenheit.
func (p *Presenter) ToggleUnit() domain.UnitPreference {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unit = p.unit.Toggle()
	p.screen.Set(p.buildLocked())

	return p.unit
}

// SetQuery replaces the search query text.
func (p *Presenter) SetQuery(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.query = query
	p.screen.Set(p.buildLocked())
}

// Query returns the retained search query.
func (p *Presenter) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.query
}

// ClearQuery empties the search query.
func (p *Presenter) ClearQuery() {
	p.SetQuery("")
}

// Submit searches for the current query. The query is kept afterwards so the
// user can retry.
//
// Returns:
//   - bool: true if a search was issued
func (p *Presenter) Submit() bool {
	p.mu.Lock()
	source := p.source
	query := strings.TrimSpace(p.query)
	p.mu.Unlock()

	if source == nil || query == "" {
		return false
	}

	return source.Search(query)
}

// OnNotice registers fn to receive localized notice text.
func (p *Presenter) OnNotice(fn func(text string)) {
	p.noticeMu.Lock()
	defer p.noticeMu.Unlock()

	p.listeners = append(p.listeners, fn)
}

// Notify implements ports.Notifier.
func (p *Presenter) Notify(notice ports.Notice) {
	text := p.messages.NoticeText()

	p.noticeMu.Lock()
	listeners := append([]func(string){}, p.listeners...)
	p.noticeMu.Unlock()

	for _, fn := range listeners {
		fn(text)
	}
}

// Messages returns the presenter's localized messages.
func (p *Presenter) Messages() *Messages {
	return p.messages
}

// buildLocked derives the Screen from the current fields. Caller holds mu.
func (p *Presenter) buildLocked() Screen {
	screen := Screen{
		Phase: p.state.Phase().String(),
		Unit:  p.unit.String(),
		Query: p.query,
	}

	if record, ok := p.state.Record(); ok {
		vm := Map(record, p.unit)
		screen.Weather = &vm

		return screen
	}

	screen.Status = p.messages.Status(p.state.Phase())

	return screen
}
