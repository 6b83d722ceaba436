package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduperSeen(t *testing.T) {
	d := newMemoryDeduper(time.Minute)
	ctx := context.Background()

	dup, err := d.Seen(ctx, 100)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = d.Seen(ctx, 100)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = d.Seen(ctx, 101)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestNewUpdateDeduperMemoryFallback(t *testing.T) {
	d, err := NewUpdateDeduper("", "", 0, time.Minute)
	require.NoError(t, err)
	_, ok := d.(*memoryDeduper)
	assert.True(t, ok)
}

func postUpdate(t *testing.T, mw echo.MiddlewareFunc, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	e := echo.New()
	var seenBody string
	handler := mw(func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		require.NoError(t, err)
		seenBody = string(raw)
		return c.String(http.StatusOK, "handled")
	})

	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec, seenBody
}

func TestTelegramUpdateDedupDropsDuplicates(t *testing.T) {
	mw := TelegramUpdateDedup(newMemoryDeduper(time.Minute))
	body := `{"update_id":42,"message":{"text":"hi"}}`

	rec, seenBody := postUpdate(t, mw, body)
	assert.Equal(t, "handled", rec.Body.String())
	assert.Equal(t, body, seenBody, "body must be restored for the handler")

	rec, _ = postUpdate(t, mw, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String(), "duplicate gets an empty 200")
}

func TestTelegramUpdateDedupPassesMalformedBodies(t *testing.T) {
	mw := TelegramUpdateDedup(newMemoryDeduper(time.Minute))

	rec, _ := postUpdate(t, mw, "not json")
	assert.Equal(t, "handled", rec.Body.String())

	rec, _ = postUpdate(t, mw, "")
	assert.Equal(t, "handled", rec.Body.String())
}

func TestTelegramUpdateDedupNilDeduper(t *testing.T) {
	mw := TelegramUpdateDedup(nil)

	rec, _ := postUpdate(t, mw, `{"update_id":1}`)
	assert.Equal(t, "handled", rec.Body.String())
}
