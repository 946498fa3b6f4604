package ledger

// Change describes one keyed change to a ledger collection. An addition
// has only New, a removal only Old, and a replacement both.
type Change[T any] struct {
	ID  int
	Old *T
	New *T
}

// Added reports whether the change put a value under ID.
func (c Change[T]) Added() bool { return c.New != nil }

// Removed reports whether the change took a value away from ID.
func (c Change[T]) Removed() bool { return c.Old != nil }

// Feed delivers changes to subscribers synchronously, in subscription order,
// after the mutation has been committed.
type Feed[T any] struct {
	next int
	subs []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(Change[T])
}

// Subscribe registers fn and returns a function that removes it again.
func (f *Feed[T]) Subscribe(fn func(Change[T])) (cancel func()) {
	id := f.next
	f.next++
	f.subs = append(f.subs, subscription[T]{id: id, fn: fn})
	return func() {
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *Feed[T]) added(id int, v T) {
	f.publish(Change[T]{ID: id, New: &v})
}

func (f *Feed[T]) removed(id int, v T) {
	f.publish(Change[T]{ID: id, Old: &v})
}

func (f *Feed[T]) replaced(id int, old, v T) {
	f.publish(Change[T]{ID: id, Old: &old, New: &v})
}

func (f *Feed[T]) publish(c Change[T]) {
	// Copy so a subscriber may cancel itself while being notified.
	subs := append([]subscription[T](nil), f.subs...)
	for _, s := range subs {
		s.fn(c)
	}
}
