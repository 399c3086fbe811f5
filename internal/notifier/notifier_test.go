package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PyramidSentinel/internal/model"
	"PyramidSentinel/internal/pyramid"
)

func TestFormatPlan(t *testing.T) {
	plan, err := pyramid.Compute(model.StrategyInput{CurrentPrice: 100, StopLoss: 80, Capital: 100000, TargetPrice: 130})
	require.NoError(t, err)

	msg := FormatPlan("sh600000", plan)
	assert.Contains(t, msg, "sh600000")
	assert.Contains(t, msg, "止损价: 80.00")
	assert.Contains(t, msg, "最大投入金额: ¥99722.00")
	assert.Contains(t, msg, "风险收益比: 2.70")
	assert.Contains(t, msg, "(1 个区间资金不足一股)")
	assert.NotContains(t, msg, "⚠️")
}

func TestFormatPlan_WarningAndUnbounded(t *testing.T) {
	plan, err := pyramid.Compute(model.StrategyInput{CurrentPrice: 10, StopLoss: 8, Capital: 0, TargetPrice: 9})
	require.NoError(t, err)

	msg := FormatPlan("sz000001", plan)
	assert.Contains(t, msg, "风险收益比: ∞")
	assert.Contains(t, msg, "(20 个区间资金不足一股)")
	assert.Contains(t, msg, "⚠️")
}

func TestFormatQuote(t *testing.T) {
	q := &model.Quote{Symbol: "sh600000", Name: "A&B", Price: 9.2, ChangePct: 1.66, High: 9.25, Low: 9}
	msg := FormatQuote(q)
	assert.Contains(t, msg, "A&amp;B (sh600000)")
	assert.Contains(t, msg, "当前价格: 9.20")
	assert.Contains(t, msg, "涨跌幅: +1.66%")
}

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.APIURL = url
	n.BaseBackoff = time.Millisecond
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_SendWithRetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		if atomic.AddInt32(&polls, 1) == 1 {
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /plan "}}]}`))
			return
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(cmd string) string { return "reply to " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "reply to /plan", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
