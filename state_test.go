package smolagent_test

import (
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
)

func TestState(t *testing.T) {
	s := smolagent.NewState()
	s.Set("image", "img-bytes")
	s.Merge(map[string]any{"count": 2, "city": "Paris"})

	v, ok := s.Get("count")
	gt.True(t, ok)
	gt.Equal(t, v, any(2))

	_, ok = s.Get("missing")
	gt.False(t, ok)

	gt.Equal(t, s.Keys(), []string{"city", "count", "image"})

	snap := s.Snapshot()
	snap["city"] = "Lyon"
	v, _ = s.Get("city")
	gt.Equal(t, v, any("Paris"))
}

func TestStateSubstitute(t *testing.T) {
	s := smolagent.NewState()
	s.Set("image", []byte{1, 2, 3})

	args := map[string]any{"image": "image", "caption": "a cat", "n": 1}
	out := smolagent.SubstituteState(s, args)
	gt.Equal(t, out, any(map[string]any{"image": []byte{1, 2, 3}, "caption": "a cat", "n": 1}))
	gt.Equal(t, args["image"], any("image"))

	gt.Equal(t, smolagent.SubstituteState(s, "image"), any("image"))
}

func TestStateConcurrentWrites(t *testing.T) {
	s := smolagent.NewState()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set("key", i)
			s.Keys()
		}(i)
	}
	wg.Wait()

	_, ok := s.Get("key")
	gt.True(t, ok)
}
