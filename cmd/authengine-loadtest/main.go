// Command authengine-loadtest drives the engine's hot paths against Redis
// (or an embedded miniredis) and reports latency percentiles per phase:
// token validation, login, and cached record reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authengine "github.com/clinicore/authengine"
	"github.com/clinicore/authengine/record"
	"github.com/clinicore/authengine/store"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		records     = flag.Int("records", 10000, "number of patient records to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		logins      = flag.Int("logins", 2000, "operations in the login phase (argon2-bound)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "key prefix")
	)
	flag.Parse()

	if *accounts <= 0 || *records <= 0 || *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, records, concurrency, ops, and logins must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	users, err := store.NewRedisUserStore(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "user store: %v\n", err)
		os.Exit(1)
	}
	recordStore, err := store.NewRedisRecordStore(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "record store: %v\n", err)
		os.Exit(1)
	}

	// Cheap argon2 parameters: the point here is throughput of the engine
	// and store paths, not KDF hardness.
	cfg := authengine.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	cfg.Cache.MaxEntries = *records

	engine, err := authengine.New().
		WithConfig(cfg).
		WithSigningSecret([]byte("loadtest-signing-secret")).
		WithUserProvider(users).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	patients, err := engine.NewRecordService(recordStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "record service: %v\n", err)
		os.Exit(1)
	}

	// ---- seed ----
	fmt.Printf("seeding %d accounts and %d records...\n", *accounts, *records)
	startSeed := time.Now()

	tokens := make([]string, *accounts)
	emails := make([]string, *accounts)
	for i := 0; i < *accounts; i++ {
		emails[i] = fmt.Sprintf("user%d@loadtest.local", i)
		result, err := engine.Register(ctx, authengine.RegisterRequest{
			Email:    emails[i],
			Password: "loadtest-password",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed register failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = result.Token
	}

	ids := make([]uuid.UUID, *records)
	for i := 0; i < *records; i++ {
		rec, err := patients.Create(ctx, record.Input{
			Name:        fmt.Sprintf("Patient %d", i),
			Email:       fmt.Sprintf("patient%d@loadtest.local", i),
			DateOfBirth: time.Date(1950+i%70, time.Month(1+i%12), 1+i%28, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed record failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = rec.ID
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	// ---- phases ----
	validateStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		if !engine.ValidateToken(ctx, tokens[r.Intn(len(tokens))]) {
			return fmt.Errorf("token rejected")
		}
		return nil
	})

	loginStats := runPhase(*logins, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.Login(ctx, emails[r.Intn(len(emails))], "loadtest-password")
		return err
	})

	readStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := patients.GetByID(ctx, ids[r.Intn(len(ids))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("login", loginStats)
	printStats("record-read", readStats)

	snap := engine.MetricsSnapshot()
	hits := snap.Counters[authengine.MetricCacheHit]
	misses := snap.Counters[authengine.MetricCacheMiss]
	if hits+misses > 0 {
		fmt.Printf("cache: %d hits / %d misses (%.1f%% hit rate)\n",
			hits, misses, 100*float64(hits)/float64(hits+misses))
	}
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-12s %8d ops  %6d failed  %10.0f ops/s  p50=%s p95=%s p99=%s  total=%s\n",
		name, s.ops, s.failures, s.opsPerS,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond),
		s.total.Round(time.Millisecond))
}
