package main

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/interpreters"
	"github.com/Comcast/estructura/sio"
	. "github.com/Comcast/estructura/util/testutil"

	"github.com/gorilla/websocket"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", "null"},
		{"a", `["a"]`},
		{"a, b,,c ", `["a","b","c"]`},
	}
	for _, test := range tests {
		if got := JS(split(test.s)); got != test.want {
			t.Fatalf("%q: %s", test.s, got)
		}
	}
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		s     string
		topic string
		qos   byte
	}{
		{"misc", "misc", 0},
		{"misc:1", "misc", 1},
		{"a/b:2", "a/b", 2},
		{"a/b:7", "a/b:7", 0},
		{"a:b", "a:b", 0},
		{" x ", "x", 0},
	}
	for _, test := range tests {
		topic, qos := parseTopic(test.s)
		if topic != test.topic || qos != test.qos {
			t.Fatalf("%q: %s %d", test.s, topic, qos)
		}
	}
}

func TestMQTTMessages(t *testing.T) {
	c := &MQTTCouplings{
		InjectTopic:          true,
		WrapWithTopic:        true,
		DefaultOutboundTopic: "out:1",
	}

	if got := JS(c.inbound("here", []byte(`{"likes":"tacos"}`))); got != `{"likes":"tacos","topic":"here"}` {
		t.Fatal(got)
	}
	if got := JS(c.inbound("here", []byte(`42`))); got != `{"payload":42,"topic":"here"}` {
		t.Fatal(got)
	}
	if got := JS(c.inbound("here", []byte(`not json`))); got != `{"payload":"not json","topic":"here"}` {
		t.Fatal(got)
	}

	topic, qos, js, err := c.addressed(Dwimjs(`{"topic":"there","qos":2,"likes":"chips"}`))
	if err != nil {
		t.Fatal(err)
	}
	if topic != "there" || qos != 2 || string(js) != `{"likes":"chips","qos":2,"topic":"there"}` {
		t.Fatal(topic, qos, string(js))
	}

	if topic, qos, _, _ = c.addressed("hello"); topic != "out" || qos != 1 {
		t.Fatal(topic, qos)
	}
}

func TestLoadLibraries(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "shouting.yaml")
	err := ioutil.WriteFile(filename, []byte(`name: shouting
namespace: simpsons
interpreter: goja
dispatch:
  String:
    shout: return args[0][0].toUpperCase();
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	check := func(t *testing.T, nss *core.Namespaces) {
		x, err := nss.Get("simpsons").Dispatch("homer").Call("shout")
		if err != nil {
			t.Fatal(err)
		}
		if x != "HOMER" {
			t.Fatal(x)
		}
	}

	t.Run("files", func(t *testing.T) {
		nss := core.NewNamespaces(core.NewRecorder())
		if err := loadLibraries(ctx, []string{filename}, "", "simpsons", nss, interpreters.Standard(nil)); err != nil {
			t.Fatal(err)
		}
		check(t, nss)
	})

	t.Run("db", func(t *testing.T) {
		db := filepath.Join(dir, "libs.db")
		nss := core.NewNamespaces(core.NewRecorder())
		if err := loadLibraries(ctx, []string{filename}, db, "simpsons", nss, interpreters.Standard(nil)); err != nil {
			t.Fatal(err)
		}
		check(t, nss)

		// Load again from the database without any files.
		nss = core.NewNamespaces(core.NewRecorder())
		if err := loadLibraries(ctx, nil, db, "simpsons", nss, interpreters.Standard(nil)); err != nil {
			t.Fatal(err)
		}
		check(t, nss)
	})

	t.Run("missing", func(t *testing.T) {
		nss := core.NewNamespaces(core.NewRecorder())
		err := loadLibraries(ctx, []string{filepath.Join(dir, "nope.yaml")}, "", "", nss, nil)
		if err == nil {
			t.Fatal("should have complained")
		}
	})
}

func TestWebSocketCouplings(t *testing.T) {
	var (
		upgrader = websocket.Upgrader{}
		heard    = make(chan string, 4)
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err = conn.WriteMessage(websocket.TextMessage, []byte(`{args: [homer]}`)); err != nil {
			return
		}
		for {
			_, bs, err := conn.ReadMessage()
			if err != nil {
				return
			}
			heard <- string(bs)
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _ := NewWebSocketCouplings([]string{"-url", "ws" + strings.TrimPrefix(server.URL, "http"), "-results"})
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	in, out, _, err := c.IO(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var msg interface{}
	select {
	case msg = <-in:
	case <-ctx.Done():
		t.Fatal("no message")
	}
	if got := JS(msg); got != `{"args":["homer"]}` {
		t.Fatal(got)
	}

	out <- &sio.Result{
		Id:      "r1",
		Msg:     msg,
		Methods: []string{},
		Emitted: []interface{}{map[string]interface{}{"saw": "homer"}},
	}

	for _, want := range []string{`{"saw":"homer"}`, `"id":"r1"`} {
		select {
		case got := <-heard:
			if !strings.Contains(got, want) {
				t.Fatalf("%s doesn't have %s", got, want)
			}
		case <-ctx.Done():
			t.Fatal("heard nothing")
		}
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
