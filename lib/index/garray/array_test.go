package garray

import "testing"

func TestNew(t *testing.T) {
	a := New[int](4)
	if a.Len() != 4 {
		t.Fatalf("expected length 4, got %d", a.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Get(i) != 0 {
			t.Errorf("element %d should be zero, got %d", i, a.Get(i))
		}
	}

	empty := New[string](0)
	if empty.Len() != 0 {
		t.Errorf("expected empty array, got length %d", empty.Len())
	}
}

func TestNewFilled(t *testing.T) {
	a := NewFilled(3, "x")
	for i := 0; i < 3; i++ {
		if a.Get(i) != "x" {
			t.Errorf("element %d should be x, got %q", i, a.Get(i))
		}
	}
}

func TestGrow(t *testing.T) {
	a := New[int](2)
	a.Set(0, 10)
	a.Set(1, 20)

	a.Grow(5)
	if a.Len() != 5 {
		t.Fatalf("expected length 5 after grow, got %d", a.Len())
	}
	if a.Get(0) != 10 || a.Get(1) != 20 {
		t.Errorf("grow lost elements: %d %d", a.Get(0), a.Get(1))
	}
	for i := 2; i < 5; i++ {
		if a.Get(i) != 0 {
			t.Errorf("new element %d should be zero, got %d", i, a.Get(i))
		}
	}

	// grow to a smaller length is a no-op
	a.Grow(1)
	if a.Len() != 5 {
		t.Errorf("grow to smaller length must not shrink, got %d", a.Len())
	}
}

func TestShrink(t *testing.T) {
	a := New[*int](4)
	for i := 0; i < 4; i++ {
		v := i
		a.Set(i, &v)
	}

	a.Shrink(2)
	if a.Len() != 2 {
		t.Fatalf("expected length 2 after shrink, got %d", a.Len())
	}
	if *a.Get(0) != 0 || *a.Get(1) != 1 {
		t.Errorf("shrink lost leading elements")
	}

	// shrink to a larger length is a no-op
	a.Shrink(10)
	if a.Len() != 2 {
		t.Errorf("shrink to larger length must not grow, got %d", a.Len())
	}

	a.Shrink(-1)
	if a.Len() != 0 {
		t.Errorf("negative shrink should empty the array, got %d", a.Len())
	}
}

func TestStableTargets(t *testing.T) {
	a := New[*string](1)
	s := "stable"
	a.Set(0, &s)

	a.Grow(1024)
	if a.Get(0) != &s {
		t.Errorf("grow must keep pointer values intact")
	}
}

func TestSwapAndReset(t *testing.T) {
	a := NewFilled(2, 1)
	b := NewFilled(5, 2)

	a.Swap(b)
	if a.Len() != 5 || b.Len() != 2 {
		t.Fatalf("swap did not exchange buffers: %d %d", a.Len(), b.Len())
	}
	if a.Get(0) != 2 || b.Get(0) != 1 {
		t.Errorf("swap did not exchange contents")
	}

	a.Reset()
	if a.Len() != 0 {
		t.Errorf("reset should empty the array, got %d", a.Len())
	}
}

func TestAll(t *testing.T) {
	a := New[int](5)
	for i, p := range a.All() {
		*p = i * i
	}

	seen := 0
	for i, p := range a.All() {
		if *p != i*i {
			t.Errorf("element %d: expected %d, got %d", i, i*i, *p)
		}
		seen++
		if i == 2 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("break should stop iteration after 3 elements, got %d", seen)
	}
}
