// Package dashboard assembles the island widgets for a selected city and keeps
// each widget's failure from reaching its siblings.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/pipeline"
)

// WidgetKind names one island widget.
type WidgetKind string

const (
	KindTraffic WidgetKind = "traffic"
	KindMarine  WidgetKind = "marine"
	KindSki     WidgetKind = "ski"
	KindSummary WidgetKind = "summary"
)

// Kinds lists the widgets in page order.
func Kinds() []WidgetKind {
	return []WidgetKind{KindSummary, KindTraffic, KindMarine, KindSki}
}

// ParseKind validates a widget name.
func ParseKind(s string) (WidgetKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWidget, s)
}

// Status is the render state of a widget.
type Status string

const (
	StatusOK       Status = "ok"
	StatusInactive Status = "inactive"
	StatusFailed   Status = "failed"
)

// RetryPrompt is shown in place of a failed widget.
const RetryPrompt = "Bu bölüm şu anda yüklenemedi. Lütfen tekrar deneyin."

var (
	ErrUnknownCity    = errors.New("unknown city")
	ErrUnknownSession = errors.New("unknown session")
	ErrUnknownWidget  = errors.New("unknown widget")
	// ErrSuperseded is returned for a refresh whose session moved on to a
	// newer selection before it finished.
	ErrSuperseded  = errors.New("refresh superseded by a newer selection")
	ErrNoSelection = errors.New("session has no city selected")
	errNoWeather   = errors.New("weather inputs unavailable")
)

// WidgetState is one rendered widget.
type WidgetState struct {
	Kind   WidgetKind     `json:"kind"`
	Status Status         `json:"status"`
	Source pipeline.Stage `json:"source,omitempty"`
	Hub    string         `json:"hub,omitempty"`
	Data   island.Record  `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Islands is the merged page state for one city.
type Islands struct {
	City      island.CityProfile `json:"city"`
	Cycle     uint64             `json:"cycle"`
	Widgets   []WidgetState      `json:"widgets"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Widget returns the state of kind.
func (i *Islands) Widget(kind WidgetKind) (WidgetState, bool) {
	for _, w := range i.Widgets {
		if w.Kind == kind {
			return w, true
		}
	}
	return WidgetState{}, false
}

func (i *Islands) replace(w WidgetState) {
	for n := range i.Widgets {
		if i.Widgets[n].Kind == w.Kind {
			i.Widgets[n] = w
			return
		}
	}
	i.Widgets = append(i.Widgets, w)
}

// computed is what a widget computation hands to the boundary. A nil record
// means the widget does not apply to the city.
type computed struct {
	hub    string
	stage  pipeline.Stage
	record island.Record
}

// boundary runs fn and converts every failure mode, panics included, into a
// failed widget.
func boundary(logger *slog.Logger, kind WidgetKind, fn func() (computed, error)) (st WidgetState) {
	st = WidgetState{Kind: kind}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("widget panicked", "widget", kind, "panic", r)
			st = failedWidget(kind)
		}
	}()

	c, err := fn()
	if err != nil {
		logger.Warn("widget failed", "widget", kind, "error", err)
		return failedWidget(kind)
	}
	st.Hub = c.hub
	st.Source = c.stage
	if c.record == nil {
		st.Status = StatusInactive
		st.Source = pipeline.StageNone
		return st
	}
	if err := island.Validate(c.record); err != nil {
		logger.Warn("widget produced an invalid record", "widget", kind, "error", err)
		return failedWidget(kind)
	}
	st.Status = StatusOK
	st.Data = c.record
	return st
}

func failedWidget(kind WidgetKind) WidgetState {
	return WidgetState{Kind: kind, Status: StatusFailed, Error: RetryPrompt}
}
