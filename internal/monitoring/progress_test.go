package monitoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	var p Progress
	p.SetTotal(10)

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Done(i%3 == 0)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ProgressSnapshot{Total: 10, Evaluated: 4, Failed: 3, Pending: 3}, p.Snapshot())
}

func TestProgress_Nil(t *testing.T) {
	var p *Progress
	p.SetTotal(3)
	p.Done(false)
	assert.Equal(t, ProgressSnapshot{}, p.Snapshot())
}

func TestProgress_PendingNeverNegative(t *testing.T) {
	var p Progress
	p.Done(false)
	assert.Equal(t, int64(0), p.Snapshot().Pending)
}
