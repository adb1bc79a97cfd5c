package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/models"
)

// CartTTL : un panier inactif expire au bout de 30 jours.
const CartTTL = 30 * 24 * time.Hour

// RedisCarts range le panier de chaque utilisateur sous cart:<user_id>
// (tableau JSON de lignes).
type RedisCarts struct {
	Client *redis.Client
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (c *RedisCarts) Get(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := c.Client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil || data == "" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *RedisCarts) Set(ctx context.Context, userID string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, cartKey(userID), data, CartTTL).Err()
}

func (c *RedisCarts) Clear(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, cartKey(userID)).Err()
}
