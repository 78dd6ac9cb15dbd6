// Package redis wires the session cache tier and the distributed lock
// primitive to a Redis server: connection setup with startup retries and a
// health check closure.
//
// # Usage
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	cache := session.NewRedisCacheStore(client)
//	locker := lock.NewRedisLocker(client)
//
// The same client can back both the cache tier and the locker; lock keys
// are namespaced and never collide with session records.
package redis
