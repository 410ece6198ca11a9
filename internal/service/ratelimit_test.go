package service

import (
	"reflect"
	"testing"
)

func TestAllowCreation(t *testing.T) {
	const h = int64(3600)

	t.Run("limit two in trailing day", func(t *testing.T) {
		var times []int64
		var ok bool

		times, ok = allowCreation(times, 2, 0)
		if !ok {
			t.Fatal("first creation rejected")
		}
		times, ok = allowCreation(times, 2, 1*h)
		if !ok {
			t.Fatal("second creation rejected")
		}
		if _, ok = allowCreation(times, 2, 2*h); ok {
			t.Fatal("third creation within 24h accepted")
		}

		// 24h after the first creation it falls out of the window.
		times, ok = allowCreation(times, 2, 24*h)
		if !ok {
			t.Fatal("creation after window rolled past was rejected")
		}
		if want := []int64{24 * h, 1 * h}; !reflect.DeepEqual(times, want) {
			t.Errorf("times = %v, want %v", times, want)
		}
	})

	t.Run("list stays bounded at limit", func(t *testing.T) {
		times := []int64{0}
		for i := int64(1); i <= 10; i++ {
			var ok bool
			times, ok = allowCreation(times, 3, i*9*h)
			if !ok {
				t.Fatalf("attempt at %dh rejected; 9h spacing never exceeds 3/day", i*9)
			}
			if len(times) > 3 {
				t.Fatalf("list grew to %d entries, limit is 3", len(times))
			}
		}
	})

	t.Run("rejection leaves list unchanged", func(t *testing.T) {
		times := []int64{2 * h, 1 * h}
		got, ok := allowCreation(times, 2, 3*h)
		if ok {
			t.Fatal("expected rejection")
		}
		if !reflect.DeepEqual(got, times) {
			t.Errorf("times mutated on rejection: %v", got)
		}
	})

	t.Run("zero limit rejects everything", func(t *testing.T) {
		if _, ok := allowCreation(nil, 0, 100); ok {
			t.Error("limit 0 accepted a creation")
		}
	})

	t.Run("shrunk limit applies to existing list", func(t *testing.T) {
		// A chat lowering its limit from 3 to 1 must enforce 1 even though
		// the stored list still holds 3 entries.
		times := []int64{3 * h, 2 * h, 1 * h}
		if _, ok := allowCreation(times, 1, 4*h); ok {
			t.Error("creation accepted despite the newest entry being inside the window")
		}
		got, ok := allowCreation(times, 1, 3*h+24*h)
		if !ok {
			t.Fatal("creation after the window rejected")
		}
		if len(got) != 1 {
			t.Errorf("list not truncated to new limit: %v", got)
		}
	})
}
