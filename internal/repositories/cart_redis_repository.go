package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lapak/internal/models"

	"github.com/redis/go-redis/v9"
)

// How long an untouched cart survives before Redis drops it.
const cartTTL = 30 * 24 * time.Hour

// RedisCartRepository stores each user's cart as a JSON document in Redis.
type RedisCartRepository struct {
	client *redis.Client
}

// NewRedisCartRepository creates a new instance of RedisCartRepository.
func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
	}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get returns the user's cart, or an empty cart when nothing is stored.
func (r *RedisCartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Put replaces the stored cart.
func (r *RedisCartRepository) Put(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart for user %s: %w", cart.UserID, err)
	}
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to store cart for user %s: %w", cart.UserID, err)
	}
	return nil
}

// Clear drops the stored cart. Deleting a missing key is a no-op in Redis,
// which matches the contract.
func (r *RedisCartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
