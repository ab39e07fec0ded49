package util

import (
	"math/rand"
	"slices"
	"strconv"
	"testing"
)

func newTestQueue() *ExpiryQueue {
	return NewExpiryQueue(NewStringHasher(GenerateSeed()))
}

// TestAddItem tests adding items to the queue
func TestAddItem(t *testing.T) {
	q := newTestQueue()
	q.AddItem("a", 100)
	q.AddItem("b", 200)
	q.AddItem("c", 50)

	if q.Len() != 3 {
		t.Errorf("Queue should have 3 items, but has %d", q.Len())
	}
	for _, k := range []string{"a", "b", "c"} {
		if !q.Contains(k) {
			t.Errorf("Queue should contain key %s", k)
		}
	}

	item, exists := q.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}
	if item.Key != "c" || item.Priority != 50 {
		t.Errorf("Expected min item to be (c,50), got (%s,%d)", item.Key, item.Priority)
	}
}

// TestUpdateItem tests rescheduling existing items
func TestUpdateItem(t *testing.T) {
	q := newTestQueue()
	q.AddItem("a", 100)
	q.AddItem("b", 200)
	q.AddItem("a", 300)

	if q.Len() != 2 {
		t.Errorf("Rescheduling should not add an item, got %d", q.Len())
	}
	item, _ := q.GetByKey("a")
	if item.Priority != 300 {
		t.Errorf("Expected priority 300, got %d", item.Priority)
	}
	if min, _ := q.Peek(); min.Key != "b" {
		t.Errorf("Expected b to be first after rescheduling a, got %s", min.Key)
	}
	if err := q.Verify(); err != nil {
		t.Error(err)
	}
}

// TestRemoveByKey tests unscheduling items
func TestRemoveByKey(t *testing.T) {
	q := newTestQueue()
	q.AddItem("a", 1)
	q.AddItem("b", 2)

	priority, ok := q.RemoveByKey("a")
	if !ok || priority != 1 {
		t.Errorf("RemoveByKey(a) = %d, %v", priority, ok)
	}
	if _, ok := q.RemoveByKey("a"); ok {
		t.Error("Second RemoveByKey(a) should fail")
	}
	if q.Contains("a") || q.Len() != 1 {
		t.Error("a should be gone")
	}
}

// TestPopOrder tests that items leave the queue in (priority, key) order
func TestPopOrder(t *testing.T) {
	q := newTestQueue()
	rng := rand.New(rand.NewSource(1))

	var want []ExpiryItem
	for i := 0; i < 500; i++ {
		item := ExpiryItem{Key: strconv.Itoa(i), Priority: uint64(rng.Intn(50))}
		q.AddItem(item.Key, item.Priority)
		want = append(want, item)
	}
	slices.SortFunc(want, compareExpiry)

	for i, w := range want {
		got, ok := q.Pop()
		if !ok || got != w {
			t.Fatalf("Pop %d: got %+v, expected %+v", i, got, w)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on an empty queue should fail")
	}
}

func TestPopDue(t *testing.T) {
	q := newTestQueue()
	for i := 1; i <= 10; i++ {
		q.AddItem(strconv.Itoa(i), uint64(i*10))
	}

	var due []string
	n := q.PopDue(45, func(item ExpiryItem) {
		due = append(due, item.Key)
	})
	if n != 4 || !slices.Equal(due, []string{"1", "2", "3", "4"}) {
		t.Errorf("PopDue(45) = %d %v", n, due)
	}
	if q.Len() != 6 || q.Contains("4") {
		t.Error("due items should have been removed")
	}
	if err := q.Verify(); err != nil {
		t.Error(err)
	}

	if q.PopDue(0, func(ExpiryItem) { t.Error("nothing should be due") }) != 0 {
		t.Error("PopDue(0) should remove nothing")
	}
}

func TestPeekEmptyQueue(t *testing.T) {
	q := newTestQueue()
	if _, ok := q.Peek(); ok {
		t.Error("Peek on an empty queue should fail")
	}
	q.AddItem("x", 1)
	q.Clear()
	if q.Len() != 0 || q.Contains("x") {
		t.Error("Clear should empty the queue")
	}
}
