package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"shopora_back_end/internal/database"
)

const (
	BasketCacheTTL     = 5 * time.Minute
	OrderCacheTTL      = 5 * time.Minute
	OrderStatsCacheTTL = 10 * time.Minute
)

// GetJSON récupère une valeur mémoïsée et la désérialise dans dest.
// Retourne false si la clé est absente ou illisible.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, err := database.Redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		// Entrée corrompue : on la purge et on laisse le caller recalculer
		database.Redis.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON mémoïse une valeur sérialisée en JSON. Best-effort : un échec
// est loggé, jamais propagé.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("⚠️ Sérialisation cache impossible pour %s: %v", key, err)
		return
	}
	if err := database.Redis.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️ Écriture cache impossible pour %s: %v", key, err)
	}
}

// Invalidate supprime toutes les clés correspondant au pattern
// (ex: "orders:SHOP_ID:*" après une mutation de commande).
func Invalidate(ctx context.Context, pattern string) {
	iter := database.Redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		database.Redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Invalidation cache incomplète pour %s: %v", pattern, err)
	}
}

// Invalidator branche le cache sur le moteur de commandes.
type Invalidator struct{}

func (Invalidator) Invalidate(ctx context.Context, pattern string) {
	Invalidate(ctx, pattern)
}
