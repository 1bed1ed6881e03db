package orderbook_test

import (
	"context"
	"testing"

	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthAggregatesByPrice(t *testing.T) {
	b := newBook(t)
	addAll(t, b,
		newBid(10, 1), newBid(12, 2), newBid(12, 3), newBid(11, 4), newBid(9, 5),
		newOffer(13, 7),
	)
	require.NoError(t, b.Settle(context.Background()))

	levels, err := b.Depth(order.Bid, 3)
	require.NoError(t, err)
	assert.Equal(t, []orderbook.Level{
		{Price: 12, TotalSize: 5, Orders: 2},
		{Price: 11, TotalSize: 4, Orders: 1},
		{Price: 10, TotalSize: 1, Orders: 1},
	}, levels)

	levels, err = b.Depth(order.Offer, 10)
	require.NoError(t, err)
	assert.Equal(t, []orderbook.Level{{Price: 13, TotalSize: 7, Orders: 1}}, levels)

	_, err = b.Depth(order.Bid, 0)
	assert.Error(t, err)
}
