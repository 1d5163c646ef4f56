package movie

// Event names. Layer change events carry a Change.
const (
	EventPlay         = "movie.play"
	EventPause        = "movie.pause"
	EventTimeUpdate   = "movie.timeupdate"
	EventEnded        = "movie.ended"
	EventSeek         = "movie.seek"
	EventLoadedData   = "movie.loadeddata"
	EventRecordEnded  = "movie.recordended"
	EventFrame        = "movie.frame"
	EventError        = "movie.error"
	EventChange       = "movie.change"
	EventChangeLayer  = "movie.change.layer"
	EventChangeEffect = "movie.change.effect"
	EventLayerStart   = "layer.start"
	EventLayerStop    = "layer.stop"
)

// Event is delivered to subscribers after the operation that raised it has
// released the movie, so handlers may call back into it.
type Event struct {
	Name string
	Time float64
	Data any
}

// Change describes one property write on the movie or one of its elements,
// or an element being added or removed (Path empty).
type Change struct {
	Target any
	Path   string
	Value  any
}

type Handler func(Event)

// On subscribes h to the named event and returns a function removing it.
func (m *Movie) On(name string, h Handler) (unsubscribe func()) {
	m.evMu.Lock()
	defer m.evMu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string][]*Handler)
	}
	hp := &h
	m.handlers[name] = append(m.handlers[name], hp)

	return func() {
		m.evMu.Lock()
		defer m.evMu.Unlock()
		list := m.handlers[name]
		for i, p := range list {
			if p == hp {
				m.handlers[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (m *Movie) emit(name string, t float64, data any) {
	m.evMu.Lock()
	m.queue = append(m.queue, Event{Name: name, Time: t, Data: data})
	m.evMu.Unlock()
}

// dispatch delivers queued events. It must be called without m.mu held.
func (m *Movie) dispatch() {
	for {
		m.evMu.Lock()
		if len(m.queue) == 0 {
			m.evMu.Unlock()
			return
		}
		ev := m.queue[0]
		m.queue = m.queue[1:]
		hs := append([]*Handler(nil), m.handlers[ev.Name]...)
		m.evMu.Unlock()

		for _, h := range hs {
			(*h)(ev)
		}
	}
}

// unlock releases the movie and delivers the events raised while it was
// held.
func (m *Movie) unlock() {
	m.mu.Unlock()
	m.dispatch()
}
