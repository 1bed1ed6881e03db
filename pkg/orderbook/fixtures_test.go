package orderbook_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ids atomic.Int64

func newBid(price float64, size int64) order.Order {
	return newOrder(price, order.Bid, size)
}

func newOffer(price float64, size int64) order.Order {
	return newOrder(price, order.Offer, size)
}

func newOrder(price float64, side order.Side, size int64) order.Order {
	return order.Order{ID: ids.Add(1), Price: price, Side: side, Size: size}
}

func newBook(t *testing.T, opts ...orderbook.Option) *orderbook.Book {
	t.Helper()
	b := orderbook.New(opts...)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func addAll(t *testing.T, b *orderbook.Book, orders ...order.Order) {
	t.Helper()
	for _, o := range orders {
		require.NoError(t, b.Add(o))
	}
}

func waitForSide(t *testing.T, b *orderbook.Book, side order.Side, expected ...order.Order) {
	t.Helper()
	require.EventuallyWithT(t, func(c *assert.CollectT) {
		all, err := b.AllOf(side)
		if !assert.NoError(c, err) {
			return
		}
		assert.Empty(c, cmp.Diff(expected, all, cmpopts.EquateEmpty()), "%s side", side)
	}, 5*time.Second, 5*time.Millisecond)
}
