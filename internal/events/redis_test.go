package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisSinkPublishesPerEventChannel(t *testing.T) {
	s := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: s.Addr()})
	sink := &RedisSink{Client: cli, Channel: "snapcopy"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sub := cli.PSubscribe(ctx, "snapcopy:*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("sub: %v", err)
	}

	evt := Event{Name: "snapshot.copy.requested", ID: "1"}
	if err := sink.Emit(ctx, evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Channel != "snapcopy:snapshot.copy.requested" {
		t.Fatalf("channel = %q", msg.Channel)
	}
	var got Event
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != evt.Name || got.ID != evt.ID {
		t.Fatalf("event mismatch: %#v", got)
	}
}

func TestRedisSinkKeepsBoundedHistory(t *testing.T) {
	s := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: s.Addr()})
	sink := &RedisSink{Client: cli, Channel: "snapcopy", HistoryKey: "snapcopy:history", HistorySize: 2}

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if err := sink.Emit(ctx, Event{Name: "snapshot.copy.requested", ID: id}); err != nil {
			t.Fatalf("emit %s: %v", id, err)
		}
	}
	items, err := cli.LRange(ctx, "snapcopy:history", 0, -1).Result()
	if err != nil {
		t.Fatalf("lrange: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history len = %d, want 2", len(items))
	}
	var newest Event
	if err := json.Unmarshal([]byte(items[0]), &newest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if newest.ID != "3" {
		t.Fatalf("newest id = %q, want 3", newest.ID)
	}
}

func TestNewRedisSinkDefaults(t *testing.T) {
	s := miniredis.RunT(t)
	sink, err := NewRedisSink(RedisConfig{Enabled: true, DSN: "redis://" + s.Addr()})
	if err != nil {
		t.Fatalf("NewRedisSink: %v", err)
	}
	defer sink.Close()
	if sink.Channel != "snapcopy-events" || sink.HistorySize != 100 {
		t.Fatalf("sink = %+v", sink)
	}
	if got := sink.ChannelFor("snapshot.copy.requested"); got != "snapcopy-events:snapshot.copy.requested" {
		t.Fatalf("ChannelFor = %q", got)
	}
}

func TestRedisSinkClose(t *testing.T) {
	s := miniredis.RunT(t)
	sink := &RedisSink{Client: redis.NewClient(&redis.Options{Addr: s.Addr()}), Channel: "snapcopy"}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sink.Emit(context.Background(), Event{Name: "x"}); err == nil {
		t.Fatalf("emit after close succeeded")
	}
}
