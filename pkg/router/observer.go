package router

import "time"

// NavigationEvent describes a GoURL call that changed the active URL.
type NavigationEvent struct {
	URL      string
	Previous string
	Seq      uint64
	Time     time.Time

	// Pushed reports whether the history collaborator was asked to change
	// the address.
	Pushed bool
}

// MaterializeEvent describes the creation of a Controller by Current.
type MaterializeEvent struct {
	URL      string
	Seq      uint64
	Route    string
	Status   Status
	HookRan  bool
	Start    time.Time
	Duration time.Duration
}

// Observer receives router events. Implementations must be safe for
// concurrent use and must not call back into the router.
type Observer interface {
	ObserveNavigation(NavigationEvent)
	ObserveMaterialize(MaterializeEvent)
}

// ObserverFuncs adapts plain functions to Observer. nil fields are skipped.
type ObserverFuncs struct {
	Navigation  func(NavigationEvent)
	Materialize func(MaterializeEvent)
}

// ObserveNavigation implements Observer.
func (o ObserverFuncs) ObserveNavigation(e NavigationEvent) {
	if o.Navigation != nil {
		o.Navigation(e)
	}
}

// ObserveMaterialize implements Observer.
func (o ObserverFuncs) ObserveMaterialize(e MaterializeEvent) {
	if o.Materialize != nil {
		o.Materialize(e)
	}
}
