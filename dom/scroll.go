package dom

// ScrollCallback is invoked after the scroll offset of a node changes.
// For the document the target is the document node itself.
type ScrollCallback func(target *Node)

// ScrollListener is a registration returned by AddScrollListener.
type ScrollListener struct {
	doc      *Document
	target   *Node
	callback ScrollCallback
}

// AddScrollListener registers callback for scroll changes of target, which
// must be the document node or an element owned by d.
func (d *Document) AddScrollListener(target *Node, callback ScrollCallback) *ScrollListener {
	if target == nil || callback == nil {
		return nil
	}
	l := &ScrollListener{doc: d, target: target, callback: callback}
	listeners := d.data().scrollListeners
	listeners[target] = append(listeners[target], l)
	return l
}

// Remove unregisters the listener. Removing twice is a no-op.
func (l *ScrollListener) Remove() {
	if l == nil || l.doc == nil {
		return
	}
	listeners := l.doc.data().scrollListeners
	registered := listeners[l.target]
	for i, existing := range registered {
		if existing == l {
			listeners[l.target] = append(registered[:i], registered[i+1:]...)
			break
		}
	}
	if len(listeners[l.target]) == 0 {
		delete(listeners, l.target)
	}
	l.doc = nil
}

// ScrollListenerCount returns the number of listeners registered on target.
func (d *Document) ScrollListenerCount(target *Node) int {
	return len(d.data().scrollListeners[target])
}

// notifyScroll runs the listeners registered on target. A snapshot is taken
// so callbacks may add or remove listeners.
func (d *Document) notifyScroll(target *Node) {
	registered := d.data().scrollListeners[target]
	if len(registered) == 0 {
		return
	}
	snapshot := make([]*ScrollListener, len(registered))
	copy(snapshot, registered)
	for _, l := range snapshot {
		if l.doc != nil {
			l.callback(target)
		}
	}
}
