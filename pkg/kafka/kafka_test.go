package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestEncodeAllSetsTypeHeader(t *testing.T) {
	msgs, err := encodeAll([]Event{
		{Key: "k1", Type: "analysis", Value: map[string]int{"n": 1}},
		{Key: "k2", Value: "plain"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if string(msgs[0].Value) != `{"n":1}` || string(msgs[0].Key) != "k1" {
		t.Errorf("first message = %s/%s", msgs[0].Key, msgs[0].Value)
	}
	if got := toMessage(msgs[0]).Type; got != "analysis" {
		t.Errorf("type header = %q", got)
	}
	if len(msgs[1].Headers) != 0 {
		t.Errorf("untyped event got headers %v", msgs[1].Headers)
	}
}

func TestEncodeAllRejectsUnencodable(t *testing.T) {
	_, err := encodeAll([]Event{{Key: "ok", Value: 1}, {Key: "bad", Value: make(chan int)}})
	if err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"id":"doc-1"}`))
	if err != nil || got.ID != "doc-1" {
		t.Errorf("DecodeJSON() = %+v, %v", got, err)
	}
	if _, err := DecodeJSON[payload]([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestToMessageIgnoresOtherHeaders(t *testing.T) {
	m := toMessage(kafka.Message{
		Topic:   "t",
		Offset:  7,
		Headers: []kafka.Header{{Key: "trace", Value: []byte("x")}},
	})
	if m.Type != "" || m.Offset != 7 || m.Topic != "t" {
		t.Errorf("toMessage() = %+v", m)
	}
}
