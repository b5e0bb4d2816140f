package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redispkg "esign.backend/pkg/redis"
)

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		redispkg.SetClient(nil)
	})
	return srv
}

func countingRouter(status int, calls *int) *gin.Engine {
	r := newTestRouter()
	r.Use(ApiKeyAuthMiddleware(newStubAuthenticator()))
	r.POST("/signatures", IdempotencyMiddleware(), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func TestIdempotencyMiddleware_NoHeaderPassthrough(t *testing.T) {
	startMiniRedis(t)
	calls := 0
	r := countingRouter(http.StatusCreated, &calls)

	perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer"})
	perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer"})
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_NoRedisPassthrough(t *testing.T) {
	redispkg.SetClient(nil)
	calls := 0
	r := countingRouter(http.StatusCreated, &calls)

	headers := map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "k1"}
	perform(r, http.MethodPost, "/signatures", headers)
	perform(r, http.MethodPost, "/signatures", headers)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ReplaysFirstSuccess(t *testing.T) {
	startMiniRedis(t)
	calls := 0
	r := countingRouter(http.StatusCreated, &calls)
	headers := map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "create-deal-7"}

	first := perform(r, http.MethodPost, "/signatures", headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := perform(r, http.MethodPost, "/signatures", headers)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	// another caller with the same key is not replayed
	other := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_viewer", IdempotencyHeader: "create-deal-7"})
	assert.Empty(t, other.Header().Get("X-Idempotency-Hit"))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_FailureAllowsRetry(t *testing.T) {
	srv := startMiniRedis(t)
	calls := 0
	r := countingRouter(http.StatusBadRequest, &calls)
	headers := map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "retry-me"}

	perform(r, http.MethodPost, "/signatures", headers)
	perform(r, http.MethodPost, "/signatures", headers)
	assert.Equal(t, 2, calls)
	assert.Empty(t, srv.Keys())
}

func TestIdempotencyMiddleware_InProgressConflict(t *testing.T) {
	startMiniRedis(t)
	prev := redisGet
	redisGet = func(context.Context, string) (string, error) { return idempotencyProcessing, nil }
	t.Cleanup(func() { redisGet = prev })

	calls := 0
	r := countingRouter(http.StatusCreated, &calls)
	w := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "busy"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotencyMiddleware_LockLost(t *testing.T) {
	startMiniRedis(t)
	prev := redisSetNX
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }
	t.Cleanup(func() { redisSetNX = prev })

	calls := 0
	r := countingRouter(http.StatusCreated, &calls)
	w := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "race"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotencyMiddleware_StoreErrorsPassThrough(t *testing.T) {
	startMiniRedis(t)
	prev := redisGet
	redisGet = func(context.Context, string) (string, error) { return "", errors.New("i/o timeout") }
	t.Cleanup(func() { redisGet = prev })

	calls := 0
	r := countingRouter(http.StatusCreated, &calls)
	headers := map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "flaky"}
	perform(r, http.MethodPost, "/signatures", headers)
	perform(r, http.MethodPost, "/signatures", headers)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_CorruptRecordIsDiscarded(t *testing.T) {
	startMiniRedis(t)
	calls := 0
	r := countingRouter(http.StatusCreated, &calls)

	prev := redisGet
	redisGet = func(context.Context, string) (string, error) { return "{not json", nil }
	t.Cleanup(func() { redisGet = prev })

	w := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: "corrupt"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_KeyTooLong(t *testing.T) {
	startMiniRedis(t)
	calls := 0
	r := countingRouter(http.StatusCreated, &calls)
	long := strings.Repeat("k", maxIdempotencyKeyLen+1)
	w := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer", IdempotencyHeader: long})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, calls)
}
