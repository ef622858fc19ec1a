/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"sync"

	"github.com/Comcast/estructura/sio"
	"github.com/Comcast/estructura/util"

	"github.com/gorilla/websocket"
)

// WebSocketCouplings is an sio.Couplings for a WebSocket client.
//
// Each in-bound text message is a message to dispatch.  Emitted
// messages are written back, and so are Results if WriteResults.
type WebSocketCouplings struct {
	URL          string
	WriteResults bool

	in   chan interface{}
	out  chan *sio.Result
	done chan bool
	conn *websocket.Conn

	// wmu serializes writes, which the connection requires.
	wmu sync.Mutex
}

func NewWebSocketCouplings(args []string) (*WebSocketCouplings, *flag.FlagSet) {
	c := &WebSocketCouplings{}
	fs := flag.NewFlagSet("ws", flag.ExitOnError)
	fs.StringVar(&c.URL, "url", "ws://localhost:8080", "Target URL for WebSocket server")
	fs.BoolVar(&c.WriteResults, "results", false, "Write Results (not just emitted messages)")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return c, fs
}

// Start creates the WebSocket session and starts processing it.
func (c *WebSocketCouplings) Start(ctx context.Context) error {

	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}

	c.in = make(chan interface{})
	c.out = make(chan *sio.Result)
	c.done = make(chan bool)

	util.Logf("wsconnect %s", u)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	c.conn = conn

	go c.inLoop(ctx)
	go c.outLoop(ctx)

	return nil
}

func (c *WebSocketCouplings) inLoop(ctx context.Context) {
	defer close(c.done)
	for {
		_, bs, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("ws ReadMessage: %v", err)
			return
		}
		if len(bs) == 0 {
			continue
		}
		util.Logf("heard %s", bs)

		msg, err := sio.ParseMsg(string(bs))
		if err != nil {
			log.Printf("ws bad message %s: %v", bs, err)
			continue
		}
		if msg == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case c.in <- msg:
		}
	}
}

func (c *WebSocketCouplings) write(x interface{}) error {
	js, err := json.Marshal(&x)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, js)
}

func (c *WebSocketCouplings) outLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.out:
			if r == nil {
				return
			}
			for _, msg := range r.Emitted {
				if err := c.write(msg); err != nil {
					log.Printf("ws WriteMessage: %v", err)
					return
				}
			}
			if c.WriteResults {
				if err := c.write(r); err != nil {
					log.Printf("ws WriteMessage: %v", err)
					return
				}
			}
		}
	}
}

// IO just returns the channels that Start() initialized.
func (c *WebSocketCouplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Stop terminates the WebSocket connection.
func (c *WebSocketCouplings) Stop(ctx context.Context) error {
	util.Logf("Disconnecting")
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.wmu.Lock()
	err := c.conn.WriteMessage(websocket.CloseMessage, msg)
	c.wmu.Unlock()
	if err != nil {
		log.Printf("ws close: %v", err)
	}
	return c.conn.Close()
}
