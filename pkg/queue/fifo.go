package queue

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

// FIFO is the default Queue realization: a plain slice-backed queue,
// oldest event popped first.
type FIFO[P prefix.Key] struct {
	items []Event[P]
}

// NewFIFO returns an empty FIFO queue.
func NewFIFO[P prefix.Key]() *FIFO[P] { return &FIFO[P]{} }

func (f *FIFO[P]) Push(e Event[P]) { f.items = append(f.items, e) }

func (f *FIFO[P]) PushMany(events []Event[P]) { f.items = append(f.items, events...) }

func (f *FIFO[P]) Pop() (Event[P], bool) {
	if len(f.items) == 0 {
		var zero Event[P]
		return zero, false
	}
	e := f.items[0]
	f.items = f.items[1:]
	return e, true
}

func (f *FIFO[P]) Len() int { return len(f.items) }

func (f *FIFO[P]) IsEmpty() bool { return len(f.items) == 0 }

// UpdateParams is a no-op: a plain FIFO has no priority model to reindex.
func (f *FIFO[P]) UpdateParams([]model.RouterId, *ospf.Topology) {}

var _ Queue[simple.Prefix] = (*FIFO[simple.Prefix])(nil)
