package ecs

// Each2 visits every entity present in both stores. The smaller store drives
// the walk. Visit order is unspecified.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sb.Len() < sa.Len() {
		for id, b := range sb.data {
			if a, ok := sa.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for id, a := range sa.data {
		if b, ok := sb.data[id]; ok {
			fn(id, a, b)
		}
	}
}
