// Package export implements the batch export pipeline: queue management,
// hierarchy resolution, the per-object snapshot/restore pass with its
// temporary mutation stages, format dispatch and report aggregation.
package export

import (
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// QueueItem is one entry of the export queue. Object may dangle if the
// scene object was removed after queueing; dangling items stay listed but
// are excluded from processing.
type QueueItem struct {
	Object  scene.ObjectID
	Include bool
}

// Queue is the ordered export queue. Insertion order is queue order.
type Queue struct {
	Items []QueueItem
}

// Contains reports whether the object is already queued.
func (q *Queue) Contains(id scene.ObjectID) bool {
	for _, it := range q.Items {
		if it.Object == id {
			return true
		}
	}
	return false
}

// Admissible reports whether an object can be queued at all: mesh objects,
// or empties with at least one visible mesh descendant. Other types never
// queue, even when a mesh sits below them.
func Admissible(sc *scene.Scene, id scene.ObjectID) bool {
	o := sc.Object(id)
	if o == nil {
		return false
	}
	if o.Type == scene.ObjectMesh {
		return true
	}
	return o.Type == scene.ObjectEmpty && sc.HasMeshDescendant(id)
}

// AddSelected queues the admissible objects of a selection, skipping any
// object that is already queued or whose ancestor is queued or part of the
// same batch. It returns the number of items actually added; callers warn
// the user when that is zero.
func (q *Queue) AddSelected(sc *scene.Scene, selection []scene.ObjectID) int {
	// Candidates are collected first so ancestor de-duplication is
	// independent of selection order: a child loses to its ancestor no
	// matter which was seen first.
	var candidates []scene.ObjectID
	inBatch := map[scene.ObjectID]bool{}
	for _, id := range selection {
		if inBatch[id] || q.Contains(id) || !Admissible(sc, id) {
			continue
		}
		inBatch[id] = true
		candidates = append(candidates, id)
	}

	added := 0
	for _, id := range candidates {
		if q.hasAncestorOf(sc, id, inBatch) {
			continue
		}
		q.Items = append(q.Items, QueueItem{Object: id, Include: true})
		added++
	}
	return added
}

func (q *Queue) hasAncestorOf(sc *scene.Scene, id scene.ObjectID, batch map[scene.ObjectID]bool) bool {
	for _, it := range q.Items {
		if sc.IsAncestor(it.Object, id) {
			return true
		}
	}
	for bid := range batch {
		if bid != id && sc.IsAncestor(bid, id) {
			return true
		}
	}
	return false
}

// Remove drops the item at the given index.
func (q *Queue) Remove(index int) {
	if index < 0 || index >= len(q.Items) {
		return
	}
	q.Items = append(q.Items[:index], q.Items[index+1:]...)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.Items = nil
}

// ToggleAll flips the include flags: if any item is included, all are
// disabled; otherwise all are enabled.
func (q *Queue) ToggleAll() {
	anyOn := false
	for _, it := range q.Items {
		if it.Include {
			anyOn = true
			break
		}
	}
	for i := range q.Items {
		q.Items[i].Include = !anyOn
	}
}

// Included returns the included, still-live queue entries in order.
func (q *Queue) Included(sc *scene.Scene) []scene.ObjectID {
	var out []scene.ObjectID
	for _, it := range q.Items {
		if !it.Include {
			continue
		}
		if sc.Object(it.Object) == nil {
			continue
		}
		out = append(out, it.Object)
	}
	return out
}
