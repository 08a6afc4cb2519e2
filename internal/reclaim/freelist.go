package reclaim

// Free appends ptr to this thread's deferred-free list. Once the list
// reaches freeBatchSize, scanAndFree runs repeatedly until it has shrunk
// back under the threshold, matching ST_free.
func (ts *ThreadState[T]) Free(ptr *T) {
	ts.freeList = append(ts.freeList, pendingFree[T]{ptr: ptr})

	if len(ts.freeList) >= ts.freeBatchSize {
		for len(ts.freeList) >= ts.freeBatchSize {
			ts.scanAndFree()
			ts.localStackScans++
		}
	}
}

// scanAndFree implements spec.md §4.3.4: snapshot every registered
// thread's stack_counter, then for each thread and each still-pending
// pointer, decide whether that thread can still observe it — either
// through its hazard records (when it is currently on the slow path) or
// its registered pointer slots — restarting the scan of one pointer if
// the thread's split_counter changed mid-scan (it may have loaded a fresh
// reference), and treating a changed stack_counter as "this thread has
// quiesced since the snapshot, it cannot be holding anything from its
// current stacks". Matches ST_scan_and_free.
func (ts *ThreadState[T]) scanAndFree() {
	threads := ts.handle.Threads()
	n := len(threads)

	localStackCounters := make([]int64, n)
	for i, other := range threads {
		localStackCounters[i] = other.stackCounter.Load()
	}

	for i := range ts.freeList {
		ts.freeList[i].isFound = false
	}

	for ti, other := range threads {
		for i := 0; i < len(ts.freeList); i++ {
			if ts.freeList[i].isFound {
				continue
			}
			if localStackCounters[ti] != other.stackCounter.Load() {
				break
			}

			localSplitCounter := other.splitCounter.Load()

			if other.scanFor(ts.freeList[i].ptr) {
				ts.freeList[i].isFound = true
			}

			if localSplitCounter != other.splitCounter.Load() {
				i-- // the target crossed a segment boundary; retry this pointer
			}
		}
	}

	maxIndex := len(ts.freeList)
	curIndex := 0
	for curIndex < maxIndex {
		if ts.freeList[curIndex].isFound {
			curIndex++
			continue
		}
		ts.release(ts.freeList[curIndex].ptr)
		maxIndex--
		ts.freeList[curIndex] = ts.freeList[maxIndex]
	}
	ts.freeList = ts.freeList[:maxIndex]
}

// scanFor reports whether other might still observe ptr, scanning its
// hazard records when it is on the slow path and always scanning its
// registered pointer slots (the memory-safe stand-in for the original's
// conservative stack scan).
func (other *ThreadState[T]) scanFor(ptr *T) bool {
	if other.IsSlowPath() {
		n := other.nHPActive.Load()
		for i := int64(0); i < n; i++ {
			if other.hpRecords[i].ptr.Load() == ptr {
				return true
			}
		}
	}

	n := other.nStacks.Load()
	for i := int64(0); i < n; i++ {
		if other.stacks[i].slot.Load() == ptr {
			return true
		}
	}
	return false
}

