package dom

import (
	"testing"
)

func TestDOMRect_Edges(t *testing.T) {
	rect := NewDOMRect(10, 20, 100, 50)
	if rect.Top() != 20 {
		t.Errorf("Expected Top=20, got %v", rect.Top())
	}
	if rect.Left() != 10 {
		t.Errorf("Expected Left=10, got %v", rect.Left())
	}
	if rect.Right() != 110 {
		t.Errorf("Expected Right=110, got %v", rect.Right())
	}
	if rect.Bottom() != 70 {
		t.Errorf("Expected Bottom=70, got %v", rect.Bottom())
	}
}

func TestDOMRect_NegativeSize(t *testing.T) {
	rect := NewDOMRect(100, 100, -50, -30)
	if rect.Left() != 50 || rect.Right() != 100 {
		t.Errorf("Expected horizontal edges 50..100, got %v..%v", rect.Left(), rect.Right())
	}
	if rect.Top() != 70 || rect.Bottom() != 100 {
		t.Errorf("Expected vertical edges 70..100, got %v..%v", rect.Top(), rect.Bottom())
	}
}

func TestElement_GeometryWithoutLayout(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")

	if el.Geometry() != nil {
		t.Error("Expected Geometry() to return nil before setting")
	}
	rect := el.GetBoundingClientRect()
	if rect.X != 0 || rect.Y != 0 || rect.Width != 0 || rect.Height != 0 {
		t.Errorf("Expected zero rect, got %v", rect)
	}
}

func TestElement_GetBoundingClientRectRunsLayout(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	doc.AsNode().AppendChild(el.AsNode())

	runs := 0
	doc.SetLayoutEngine(func(d *Document) {
		runs++
		el.SetGeometry(&ElementGeometry{X: 5, Y: 6, Width: 7, Height: 8})
	})

	rect := el.GetBoundingClientRect()
	if rect.X != 5 || rect.Y != 6 || rect.Width != 7 || rect.Height != 8 {
		t.Errorf("Expected rect (5, 6, 7, 8), got %v", rect)
	}
	el.GetBoundingClientRect()
	if runs != 1 {
		t.Errorf("Expected layout to run once while clean, ran %d times", runs)
	}

	el.SetStyleProperty("top", "10px")
	el.GetBoundingClientRect()
	if runs != 2 {
		t.Errorf("Expected attribute change to force relayout, ran %d times", runs)
	}
}

func TestDocument_ScrollListeners(t *testing.T) {
	doc := NewDocument()
	calls := 0
	l := doc.AddScrollListener(doc.AsNode(), func(target *Node) {
		if target != doc.AsNode() {
			t.Errorf("Expected document target, got %v", target.NodeName())
		}
		calls++
	})

	doc.ScrollTo(0, 100)
	doc.ScrollTo(0, 100) // unchanged offsets do not fire
	if calls != 1 {
		t.Errorf("Expected 1 scroll notification, got %d", calls)
	}
	if doc.ScrollY() != 100 {
		t.Errorf("Expected ScrollY=100, got %v", doc.ScrollY())
	}

	l.Remove()
	l.Remove()
	doc.ScrollTo(0, 200)
	if calls != 1 {
		t.Errorf("Expected no notifications after Remove, got %d", calls)
	}
	if n := doc.ScrollListenerCount(doc.AsNode()); n != 0 {
		t.Errorf("Expected 0 listeners, got %d", n)
	}
}

func TestElement_ScrollNotifiesOnlyItsListeners(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement("div")
	b := doc.CreateElement("div")
	doc.AsNode().AppendChild(a.AsNode())
	a.AsNode().AppendChild(b.AsNode())

	var aCalls, docCalls int
	doc.AddScrollListener(a.AsNode(), func(*Node) { aCalls++ })
	doc.AddScrollListener(doc.AsNode(), func(*Node) { docCalls++ })

	a.SetScrollTop(40)
	a.SetScrollTop(-5)
	if a.ScrollTop() != 0 {
		t.Errorf("Expected negative scrollTop to clamp to 0, got %v", a.ScrollTop())
	}
	b.SetScrollLeft(12)
	if aCalls != 2 {
		t.Errorf("Expected 2 notifications on a, got %d", aCalls)
	}
	if docCalls != 0 {
		t.Errorf("Expected no document notifications, got %d", docCalls)
	}
}

func TestElement_ScrollToNotifiesOnce(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement("div")
	doc.AsNode().AppendChild(a.AsNode())

	calls := 0
	doc.AddScrollListener(a.AsNode(), func(*Node) { calls++ })

	a.ScrollTo(10, 20)
	a.ScrollTo(10, 20)
	if a.ScrollLeft() != 10 || a.ScrollTop() != 20 {
		t.Errorf("Expected offsets 10,20, got %v,%v", a.ScrollLeft(), a.ScrollTop())
	}
	if calls != 1 {
		t.Errorf("Expected 1 notification, got %d", calls)
	}
}
