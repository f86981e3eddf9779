package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_SubscribeReceivesCurrentThenUpdates(t *testing.T) {
	v := NewValue(1)

	var got []int
	stop := v.Subscribe(func(n int) { got = append(got, n) })

	v.Set(2)
	v.Update(func(n int) int { return n * 10 })

	assert.Equal(t, []int{1, 2, 20}, got)
	assert.Equal(t, 20, v.Get())

	stop()
	v.Set(3)
	assert.Equal(t, []int{1, 2, 20}, got, "no notifications after unsubscribe")

	// Calling unsubscribe twice is harmless.
	stop()
}

func TestValue_SubscribersInRegistrationOrder(t *testing.T) {
	v := NewValue("")

	var order []string
	v.Subscribe(func(string) { order = append(order, "first") })
	stopSecond := v.Subscribe(func(string) { order = append(order, "second") })
	v.Subscribe(func(string) { order = append(order, "third") })
	stopSecond()

	order = nil
	v.Set("x")
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestValue_ConcurrentSetsAreDeliveredInOrder(t *testing.T) {
	v := NewValue(0)

	var mu sync.Mutex
	var seen []int
	v.Subscribe(func(n int) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 51)
	for i := range seen {
		assert.Equal(t, i, seen[i], "updates must be observed in sequence")
	}
}

func TestMap(t *testing.T) {
	flags := NewValue[map[string]bool](nil)
	darkMode := Map[map[string]bool, bool](flags, func(m map[string]bool) bool { return m["dark_mode"] })

	assert.False(t, darkMode.Get())

	var got []bool
	stop := darkMode.Subscribe(func(on bool) { got = append(got, on) })
	defer stop()

	flags.Set(map[string]bool{"dark_mode": true})
	flags.Set(nil)

	assert.Equal(t, []bool{false, true, false}, got)
}
