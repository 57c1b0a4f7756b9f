// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lireddit/lireddit/internal/api"
	"github.com/lireddit/lireddit/internal/auth"
	authpg "github.com/lireddit/lireddit/internal/auth/postgres"
	"github.com/lireddit/lireddit/internal/observability"
	"github.com/lireddit/lireddit/internal/session"
	sessionredis "github.com/lireddit/lireddit/internal/session/redis"
	"github.com/lireddit/lireddit/internal/store"
)

// testEnv holds the backends and the running API.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool
	redis     *miniredis.Miniredis
	metrics   *observability.Metrics
	server    *httptest.Server
}

func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	env := &testEnv{ctx: ctx, cancel: cancel}

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lireddit_test"),
		postgres.WithUsername("lireddit"),
		postgres.WithPassword("lireddit"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr, store.DefaultRetryConfig())
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.redis, err = miniredis.Run()
	if err != nil {
		env.cleanup()
		return nil, err
	}
	sessions := sessionredis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: env.redis.Addr()}), "")

	hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time: 1, MemoryKiB: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
	})
	if err != nil {
		env.cleanup()
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
	env.metrics = observability.NewMetrics(prometheus.NewRegistry())
	svc, err := auth.NewService(authpg.NewAccountRepository(env.pool), hasher,
		auth.WithLogger(logger), auth.WithRecorder(env.metrics))
	if err != nil {
		env.cleanup()
		return nil, err
	}

	manager, err := session.NewManager(sessions, session.Options{TTL: time.Hour})
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Accounts: svc,
		Sessions: manager,
	}))
	return env, nil
}

func (e *testEnv) cleanup() {
	if e.server != nil {
		e.server.Close()
	}
	if e.redis != nil {
		e.redis.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(context.Background())
	}
	e.cancel()
}

func (e *testEnv) truncate() {
	_, err := e.pool.Exec(e.ctx, "TRUNCATE accounts")
	Expect(err).NotTo(HaveOccurred())
	e.redis.FlushAll()
}

// client is a browser-like API client that keeps its cookies.
type client struct {
	base string
	http *http.Client
}

func (e *testEnv) newClient() *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &client{base: e.server.URL, http: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

type apiResponse struct {
	status int
	body   []byte
}

func (c *client) do(method, path string, body any) apiResponse {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return apiResponse{status: resp.StatusCode, body: raw}
}

func (c *client) register(username, password string) apiResponse {
	return c.do(http.MethodPost, "/api/v1/register", map[string]string{"username": username, "password": password})
}

func (c *client) login(username, password string) apiResponse {
	return c.do(http.MethodPost, "/api/v1/login", map[string]string{"username": username, "password": password})
}

func (c *client) meUsername() string {
	resp := c.do(http.MethodGet, "/api/v1/me", nil)
	Expect(resp.status).To(Equal(http.StatusOK))
	var body struct {
		User *struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	Expect(json.Unmarshal(resp.body, &body)).To(Succeed())
	if body.User == nil {
		return ""
	}
	return body.User.Username
}

func fieldErrors(resp apiResponse) []auth.FieldError {
	var body struct {
		Errors []auth.FieldError `json:"errors"`
	}
	Expect(json.Unmarshal(resp.body, &body)).To(Succeed())
	return body.Errors
}

var _ = Describe("Account API", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	BeforeEach(func() {
		env.truncate()
	})

	Describe("registration", func() {
		It("creates the account and logs the caller in", func() {
			c := env.newClient()

			resp := c.register("alice", "hunter2")
			Expect(resp.status).To(Equal(http.StatusCreated))
			Expect(string(resp.body)).NotTo(ContainSubstring("argon2id"))
			Expect(c.meUsername()).To(Equal("alice"))

			var hash string
			Expect(env.pool.QueryRow(env.ctx,
				"SELECT password_hash FROM accounts WHERE username = $1", "alice").Scan(&hash)).To(Succeed())
			Expect(hash).To(HavePrefix("$argon2id$"))
			Expect(hash).NotTo(ContainSubstring("hunter2"))

			Expect(env.redis.Keys()).To(HaveLen(1))
			Expect(env.redis.Keys()[0]).To(HavePrefix("lireddit:sess:"))
		})

		It("rejects short input without writing anything", func() {
			c := env.newClient()

			resp := c.register("al", "hunter2")
			Expect(resp.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(fieldErrors(resp)).To(Equal([]auth.FieldError{{Field: "username", Message: "length must be greater than 2"}}))

			resp = c.register("alice", "abc")
			Expect(resp.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(fieldErrors(resp)).To(Equal([]auth.FieldError{{Field: "password", Message: "length must be greater than 3"}}))

			var count int
			Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM accounts").Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
			Expect(env.redis.Keys()).To(BeEmpty())
		})

		It("reports a taken username as a field error", func() {
			Expect(env.newClient().register("alice", "hunter2").status).To(Equal(http.StatusCreated))

			second := env.newClient()
			resp := second.register("alice", "another")
			Expect(resp.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(fieldErrors(resp)).To(Equal([]auth.FieldError{{Field: "username", Message: "username already taken"}}))
			Expect(second.meUsername()).To(BeEmpty())
		})

		It("lets exactly one of many concurrent registrations win", func() {
			const racers = 8
			statuses := make([]int, racers)
			var wg sync.WaitGroup
			for i := range racers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					statuses[i] = env.newClient().register("racer", "hunter2").status
				}()
			}
			wg.Wait()

			created := 0
			for _, s := range statuses {
				Expect(s).To(BeElementOf(http.StatusCreated, http.StatusUnprocessableEntity))
				if s == http.StatusCreated {
					created++
				}
			}
			Expect(created).To(Equal(1))
		})
	})

	Describe("login, me and logout", func() {
		BeforeEach(func() {
			Expect(env.newClient().register("alice", "hunter2").status).To(Equal(http.StatusCreated))
		})

		It("reports an unknown username", func() {
			c := env.newClient()
			resp := c.login("bob", "hunter2")
			Expect(resp.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(fieldErrors(resp)).To(Equal([]auth.FieldError{{Field: "username", Message: "that username doesn't exist"}}))
			Expect(c.meUsername()).To(BeEmpty())
		})

		It("reports a wrong password", func() {
			c := env.newClient()
			resp := c.login("alice", "wrong")
			Expect(resp.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(fieldErrors(resp)).To(Equal([]auth.FieldError{{Field: "password", Message: "incorrect password"}}))
			Expect(c.meUsername()).To(BeEmpty())
		})

		It("binds the session on success and forgets it on logout", func() {
			c := env.newClient()
			Expect(c.meUsername()).To(BeEmpty())

			Expect(c.login("alice", "hunter2").status).To(Equal(http.StatusOK))
			Expect(c.meUsername()).To(Equal("alice"))

			Expect(c.do(http.MethodPost, "/api/v1/logout", nil).status).To(Equal(http.StatusNoContent))
			Expect(c.meUsername()).To(BeEmpty())
		})

		It("returns no user once the account is gone", func() {
			c := env.newClient()
			Expect(c.login("alice", "hunter2").status).To(Equal(http.StatusOK))

			_, err := env.pool.Exec(env.ctx, "DELETE FROM accounts WHERE username = $1", "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.meUsername()).To(BeEmpty())
		})

		It("expires sessions after their ttl", func() {
			c := env.newClient()
			Expect(c.login("alice", "hunter2").status).To(Equal(http.StatusOK))

			env.redis.FastForward(time.Hour + time.Second)
			Expect(c.meUsername()).To(BeEmpty())
		})
	})
})
