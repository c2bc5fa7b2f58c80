// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "container/heap"

// pendingTask is a scheduled task waiting in a taskQueue.
type pendingTask struct {
	id      TaskID
	task    Task
	trigger int64 // nanoseconds of platform time
	index   int   // heap position, -1 once removed
}

// taskQueue is a min-heap on (trigger, id). Because ids increase with
// registration, equal triggers pop in FIFO order.
type taskQueue []*pendingTask

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].trigger == q[j].trigger {
		return q[i].id < q[j].id
	}
	return q[i].trigger < q[j].trigger
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	item := x.(*pendingTask)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

func (q *taskQueue) push(item *pendingTask) { heap.Push(q, item) }

func (q *taskQueue) pop() *pendingTask { return heap.Pop(q).(*pendingTask) }

func (q taskQueue) peek() *pendingTask { return q[0] }

// remove drops item if it is still queued.
func (q *taskQueue) remove(item *pendingTask) bool {
	if item.index < 0 {
		return false
	}
	heap.Remove(q, item.index)
	return true
}

// clear empties the queue and returns how many tasks were dropped.
func (q *taskQueue) clear() int {
	n := len(*q)
	for _, item := range *q {
		item.index = -1
	}
	*q = nil
	return n
}
