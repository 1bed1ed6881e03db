package feed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/skatteetaten/orderbook/pkg/feed"
	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBook struct {
	mock.Mock
}

func (m *mockBook) Add(o order.Order) error {
	return m.Called(o).Error(0)
}

func (m *mockBook) Remove(id int64) error {
	return m.Called(id).Error(0)
}

func (m *mockBook) Modify(id int64, newSize int64) error {
	return m.Called(id, newSize).Error(0)
}

func csvReader(t *testing.T, content string) feed.Reader {
	t.Helper()
	r, err := feed.NewReader(strings.NewReader(content), feed.FormatCSV)
	require.NoError(t, err)
	return r
}

func TestApplyDispatchesEvents(t *testing.T) {
	book := &mockBook{}
	book.On("Add", order.Order{ID: 1, Price: 10, Side: order.Bid, Size: 3}).Return(nil)
	book.On("Modify", int64(1), int64(4)).Return(nil)
	book.On("Remove", int64(1)).Return(nil)

	stats, err := feed.Apply(context.Background(), book, csvReader(t, "A,1,10,B,3\nM,1,4\nR,1\n"), feed.Strict)

	require.NoError(t, err)
	assert.Equal(t, feed.Stats{Added: 1, Modified: 1, Removed: 1}, stats)
	assert.Equal(t, 3, stats.Total())
	book.AssertExpectations(t)
}

func TestApplyStrictStopsAtFirstRejection(t *testing.T) {
	rejected := errors.New("no such order")
	book := &mockBook{}
	book.On("Add", mock.Anything).Return(nil)
	book.On("Remove", int64(9)).Return(rejected)

	stats, err := feed.Apply(context.Background(), book, csvReader(t, "A,1,10,B,3\nR,9\nA,2,10,B,3\n"), feed.Strict)

	require.Error(t, err)
	assert.Equal(t, rejected, errors.Cause(err))
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, feed.Stats{Added: 1}, stats)
	book.AssertNumberOfCalls(t, "Add", 1)
}

func TestApplyLenientSkipsBadEvents(t *testing.T) {
	book := &mockBook{}
	book.On("Add", mock.Anything).Return(nil)
	book.On("Remove", int64(9)).Return(errors.New("no such order"))

	stats, err := feed.Apply(context.Background(), book, csvReader(t, "A,1,10,B,3\nR,9\nZ,1\nA,2,10,O,3\n"), feed.Lenient)

	require.NoError(t, err)
	assert.Equal(t, feed.Stats{Added: 2, Skipped: 2}, stats)
}

func TestApplyStrictFailsOnMalformedLine(t *testing.T) {
	book := &mockBook{}
	book.On("Add", mock.Anything).Return(nil)

	_, err := feed.Apply(context.Background(), book, csvReader(t, "A,1,10,B,3\nA,2,ten,B,3\n"), feed.Strict)

	recordErr, ok := errors.Cause(err).(*feed.RecordError)
	require.True(t, ok)
	assert.Equal(t, 2, recordErr.Line)
}

func TestApplyStopsWhenContextIsDone(t *testing.T) {
	book := &mockBook{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := feed.Apply(ctx, book, csvReader(t, "A,1,10,B,3\n"), feed.Strict)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.Equal(t, 0, stats.Total())
	book.AssertNotCalled(t, "Add", mock.Anything)
}
