package interaction

type listener[T any] struct {
	id uint32
	h  func(T)
}

type listeners[T any] struct {
	ids  uint32
	list []listener[T]
}

func (l *listeners[T]) add(h func(T)) (cancel func()) {
	l.ids++
	id := l.ids
	l.list = append(l.list, listener[T]{id: id, h: h})

	return func() {
		for i, v := range l.list {
			if v.id == id {
				l.list = append(l.list[:i:i], l.list[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[T]) notify(v T) {
	for _, v2 := range append([]listener[T](nil), l.list...) {
		v2.h(v)
	}
}
