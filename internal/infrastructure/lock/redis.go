package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ Locker = (*RedisLocker)(nil)

// releaseScript borra la clave solo si el token coincide.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker lease distribuido con SET NX PX; funciona entre réplicas del servicio.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisLocker construye el locker sobre un cliente ya conectado.
func NewRedisLocker(rdb *redis.Client, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: "cobranca:lease:", log: log}
}

// Acquire toma el lease de key o espera hasta wait.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.New().String()
	err := acquireLoop(ctx, key, wait, func(ctx context.Context) (bool, error) {
		return r.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	})
	if err != nil {
		return nil, err
	}
	return func() {
		// ctx propio: el del caller puede estar cancelado al liberar.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, r.rdb, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			r.log.Warn().Err(err).Str("key", fullKey).Msg("no se pudo liberar el lease; expirará por TTL")
		}
	}, nil
}

// Connect abre el cliente Redis y verifica la conexión.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
