package recordstore

import "time"

// deadlineItem is a single scheduled removal for one stored record, identified
// by its (qname, qtype, data) key. gen lets the reaper tell a live deadline
// apart from one superseded by a later InsertOrUpdate of the same record.
type deadlineItem struct {
	deadline time.Time
	key      string
	gen      uint64
	index    int
}

// deadlineHeap is a container/heap.Interface ordered by deadline, giving each
// shard's reaper a cheap way to find its next expiring record without
// scanning the whole shard.
type deadlineHeap []*deadlineItem

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }

func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	item := x.(*deadlineItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (h deadlineHeap) Peek() *deadlineItem {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
