// Package redis keeps an advisory map of reserved seats so obviously
// doomed booking attempts skip the database row lock. Keys expire on a
// TTL; the seat rows in the ledger store remain the only authority, so a
// stale or missing key costs one extra lock acquisition and nothing else.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type SeatCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSeatCache(client *redis.Client, ttl time.Duration) *SeatCache {
	return &SeatCache{Client: client, TTL: ttl}
}

func seatKey(tripID int64, seatNumber int) string {
	return fmt.Sprintf("seat_status:%d:%d", tripID, seatNumber)
}

// IsReserved reports whether the seat is marked reserved in the cache.
// A missing key means "assume available".
func (c *SeatCache) IsReserved(ctx context.Context, tripID int64, seatNumber int) (bool, error) {
	_, err := c.Client.Get(ctx, seatKey(tripID, seatNumber)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkReserved flags the seat as taken for the TTL window.
func (c *SeatCache) MarkReserved(ctx context.Context, tripID int64, seatNumber int) error {
	return c.Client.Set(ctx, seatKey(tripID, seatNumber), "reserved", c.TTL).Err()
}

// MarkAvailable drops the flag so the seat is bookable again immediately
// after a cancellation rather than after TTL expiry.
func (c *SeatCache) MarkAvailable(ctx context.Context, tripID int64, seatNumber int) error {
	return c.Client.Del(ctx, seatKey(tripID, seatNumber)).Err()
}
