package control

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	interval time.Duration
	workers  int
}

func (f *fakeAggregator) Start(context.Context) error        { return nil }
func (f *fakeAggregator) Stop() error                        { return nil }
func (f *fakeAggregator) SetInterval(d time.Duration)        { f.interval = d }
func (f *fakeAggregator) CurrentInterval() time.Duration     { return f.interval }
func (f *fakeAggregator) CurrentWorkers() int                { return f.workers }
func (f *fakeAggregator) Resize(workers int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	f.workers = workers
	return nil
}

func newTestControl(t *testing.T) (*fakeAggregator, *Client) {
	t.Helper()
	agg := &fakeAggregator{interval: 3 * time.Minute, workers: 3}
	srv := httptest.NewServer(NewServer(agg))
	t.Cleanup(srv.Close)
	return agg, NewClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestSetIntervalRoundtrip(t *testing.T) {
	agg, client := newTestControl(t)

	old, err := client.SetInterval(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, old)
	assert.Equal(t, 10*time.Minute, agg.interval)
}

func TestSetWorkersRoundtrip(t *testing.T) {
	agg, client := newTestControl(t)

	old, err := client.SetWorkers(5)
	require.NoError(t, err)
	assert.Equal(t, 3, old)
	assert.Equal(t, 5, agg.workers)

	_, err = client.SetWorkers(0)
	require.Error(t, err)
	assert.Equal(t, 5, agg.workers)
}

func TestStatusRoundtrip(t *testing.T) {
	_, client := newTestControl(t)

	interval, workers, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, interval)
	assert.Equal(t, 3, workers)
}

func TestTryListenGuard(t *testing.T) {
	ln, err := TryListen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = TryListen(ln.Addr().String())
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
