package app

import (
	"math/rand"
	"sync"
	"time"
)

var mockPositives = []string{
	"Students find the class activities engaging and fun.",
	"The teacher's enthusiasm for the subject is appreciated.",
	"Clear explanations help students understand complex topics.",
	"Students feel supported and comfortable asking questions.",
}

var mockActionables = []string{
	"Consider reviewing the pacing of homework assignments.",
	"Some students would appreciate more in-class practice time.",
	"Ensure test content directly aligns with in-class material.",
	"Posting slides or resources in advance would be helpful.",
}

// Picker chooses an index in [0, n). Tests inject a fixed one.
type Picker interface {
	Intn(n int) int
}

// lockedRand is a Picker safe for use from the worker and request paths at once.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand() *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

func pick(p Picker, items []string) string {
	return items[p.Intn(len(items))]
}
