package impulse

import "sync"

// forEachSlot calls fn once for every slot index in [0, slots).
// Each worker owns a contiguous range of slots, so fn may write slot i of a
// caller-owned slice without locking. It returns once every slot is done.
func forEachSlot(workers, slots int, fn func(slot int)) {
	if workers <= 1 || slots <= 1 {
		for i := range slots {
			fn(i)
		}
		return
	}

	span := (slots + workers - 1) / workers

	var wg sync.WaitGroup
	for first := 0; first < slots; first += span {
		last := min(first+span, slots)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := first; i < last; i++ {
				fn(i)
			}
		}()
	}
	wg.Wait()
}
