// Package redistest 为各包测试启动 miniredis，并返回连到它的 go-redis 客户端。
package redistest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// New 启动一个随测试结束关闭的 miniredis。过期时间用 mr.FastForward 推进。
func New(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// Subscribe 在订阅确认后才返回，之后发布到 channel 的消息按顺序进入返回的通道。
func Subscribe(t testing.TB, client *redis.Client, channel string) <-chan *redis.Message {
	t.Helper()
	ctx := context.Background()
	sub := client.Subscribe(ctx, channel)
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub.Channel()
}

// NextMessage 等待一条消息，超时则判定失败。
func NextMessage(t testing.TB, ch <-chan *redis.Message) *redis.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
		return nil
	}
}

// NoMessage 断言短时间内没有消息到达。
func NoMessage(t testing.TB, ch <-chan *redis.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message on %s: %s", msg.Channel, msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
