package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

type Config struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Provider wires the redis-backed stores behind the store interfaces.
type Provider struct {
	cache    *Cache
	sessions *SessionStore
	profiles *ProfileCacheStore
}

var _ store.Provider = (*Provider)(nil)

func NewProvider(cfg Config) (*Provider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.New("redisstore.NewProvider.Ping", i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}

	cache := &Cache{client: client}
	return &Provider{
		cache:    cache,
		sessions: NewSessionStore(cache),
		profiles: NewProfileCacheStore(cache),
	}, nil
}

func (p *Provider) Cache() types.Cache                         { return p.cache }
func (p *Provider) SessionStore() store.SessionStore           { return p.sessions }
func (p *Provider) ProfileCacheStore() store.ProfileCacheStore { return p.profiles }

// Cache adapts go-redis to the types.Cache interface. A missing key is
// ("", nil), never an error.
type Cache struct {
	client *redis.Client
}

var _ types.Cache = (*Cache)(nil)

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.New(fmt.Sprintf("redisstore.Cache.Get.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return val, nil
}

func (c *Cache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.New(fmt.Sprintf("redisstore.Cache.SetEx.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}

func (c *Cache) SetMulti(ctx context.Context, ttl time.Duration, kv map[string]string) error {
	pipe := c.client.TxPipeline()
	for k, v := range kv {
		pipe.Set(ctx, k, v, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.New("redisstore.Cache.SetMulti", i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.New("redisstore.Cache.Del", i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}

func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return errors.New(fmt.Sprintf("redisstore.Cache.Expire.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}

func (c *Cache) SAdd(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SAdd(ctx, key, args...).Err(); err != nil {
		return errors.New(fmt.Sprintf("redisstore.Cache.SAdd.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}

func (c *Cache) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errors.New(fmt.Sprintf("redisstore.Cache.SMembers.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return members, nil
}

func (c *Cache) SRem(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SRem(ctx, key, args...).Err(); err != nil {
		return errors.New(fmt.Sprintf("redisstore.Cache.SRem.%s", key), i18n.ERROR_INTERNAL, err).Kind(errors.KindExternalService)
	}
	return nil
}
