package app

import "feedback_portal/internal/domain/summaryjob"

// Batch is every pending job that shares one summary target.
type Batch struct {
	Key  summaryjob.Key
	Jobs []*summaryjob.Job
}

// IDs returns the job IDs in the batch.
func (b Batch) IDs() []int64 {
	ids := make([]int64, 0, len(b.Jobs))
	for _, j := range b.Jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

// GroupPending collapses jobs by (kind, target). Batches come out in the
// order their key first appears in jobs.
func GroupPending(jobs []*summaryjob.Job) []Batch {
	index := make(map[summaryjob.Key]int)
	batches := make([]Batch, 0)
	for _, job := range jobs {
		key := job.Key()
		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, Batch{Key: key})
		}
		batches[i].Jobs = append(batches[i].Jobs, job)
	}
	return batches
}
