// Package priority implements a generic keyed priority queue: a collection
// of key-value pairs ordered by a user-provided comparison function, with
// O(1) key lookups on top of the usual heap operations.
//
// Key features:
//   - Generic implementation supporting any comparable key type and any value type
//   - O(log n) insertion, deletion, and reprioritization
//   - O(1) peek and key-based lookups
//
// Basic usage:
//
//	// Create a min-heap priority queue
//	pq := priority.NewQueue[string, int](func(a, b int) bool {
//	    return a < b
//	})
//
//	// Add items
//	pq.Set("task1", 5)
//	pq.Set("task2", 3)
//	pq.Set("task3", 7)
//
//	// Get highest priority item
//	key, value, exists := pq.Peek()
//	if exists {
//	    fmt.Printf("Highest priority: %s = %d\n", key, value)
//	}
//
//	// Remove and return highest priority item
//	key, value, exists = pq.Pop()
//	if exists {
//	    fmt.Printf("Popped: %s = %d\n", key, value)
//	}
//
//	// Update priority
//	pq.Set("task1", 1)  // Updates existing key with new priority
//
//	// Remove specific key
//	pq.Remove("task2")
//
// The less function should return true if a has higher priority than b.
package priority
