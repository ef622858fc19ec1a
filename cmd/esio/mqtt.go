/* Copyright 2019 Comcast Cable Communications Management, LLC
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
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/estructura/sio"
	"github.com/Comcast/estructura/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTCouplings is an sio.Couplings for an MQTT client.
//
// Messages arriving on the subscribed topics are dispatched.
// Emitted messages are published to their "topic" property (or
// DefaultOutboundTopic), and Results are published to ResultTopic if
// that's not empty.
type MQTTCouplings struct {
	Client               mqtt.Client
	Quiesce              uint
	SubTopics            string
	InjectTopic          bool
	WrapWithTopic        bool
	DefaultOutboundTopic string
	ResultTopic          string

	InTimeout time.Duration

	incoming chan interface{}
	outbound chan *sio.Result
	done     chan bool
}

func NewMQTTCouplings(args []string) (*MQTTCouplings, *flag.FlagSet) {
	var (
		// Follow mosquitto_sub command line args.

		fs = flag.NewFlagSet("mq", flag.ExitOnError)

		broker      = fs.String("h", "tcp://localhost", "Broker hostname")
		clientId    = fs.String("i", "", "Client id")
		port        = fs.Int("p", 1883, "Broker port")
		keepAlive   = fs.Int("k", 10, "Keep-alive in seconds")
		userName    = fs.String("u", "", "Username")
		password    = fs.String("P", "", "Password")
		willTopic   = fs.String("will-topic", "", "Optional will topic")
		willPayload = fs.String("will-payload", "", "Optional will message")
		willQoS     = fs.Int("will-qos", 0, "Optional will QoS")
		willRetain  = fs.Bool("will-retain", false, "Optional will retention")
		reconnect   = fs.Bool("reconnect", false, "Automatically attempt to reconnect")
		clean       = fs.Bool("c", true, "Clean session")
		quiesce     = fs.Int("quiesce", 100, "Disconnection quiescence (in milliseconds)")

		certFilename = fs.String("cert", "", "Optional cert filename")
		keyFilename  = fs.String("key", "", "Optional key filename")
		insecure     = fs.Bool("insecure", false, "Skip broker cert checking")
		caFilename   = fs.String("cafile", "", "Optional CA cert filename")
		caPath       = fs.String("capath", "", "Optional directory for the CA cert file")

		subTopics = fs.String("t", "", "subscription topic(s), each optionally TOPIC:QOS")

		injectTopic          = fs.Bool("inject-topic", true, "put topic in map of incoming messages")
		wrapWithTopic        = fs.Bool("wrap-with-topic", false, "wrap non-maps in a map along with the topic")
		defaultOutboundTopic = fs.String("def-outbound-topic", "misc", "Default out-bound message topic")
		resultTopic          = fs.String("result-topic", "", "Optional topic for Results")
		inTimeout            = fs.Duration("in-timeout", time.Second, "timeout for in-bound queuing")
	)

	if args == nil {
		return nil, fs
	}

	fs.Parse(args)

	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)

	opts := mqtt.NewClientOptions()

	opts.AddBroker(fmt.Sprintf("%s:%d", *broker, *port))
	opts.SetClientID(*clientId)
	opts.SetKeepAlive(time.Second * time.Duration(*keepAlive))

	opts.Username = *userName
	opts.Password = *password
	opts.AutoReconnect = *reconnect
	opts.CleanSession = *clean

	if *willTopic != "" {
		if *willPayload == "" {
			log.Fatal("will topic without payload")
		}
		opts.WillEnabled = true
		opts.WillTopic = *willTopic
		opts.WillPayload = []byte(*willPayload)
		opts.WillRetained = *willRetain
		opts.WillQos = byte(*willQoS)
	}

	tlsConf := &tls.Config{
		InsecureSkipVerify: *insecure,
	}

	if *caFilename != "" {
		rootCAs, _ := x509.SystemCertPool()
		if rootCAs == nil {
			rootCAs = x509.NewCertPool()
		}
		filename := filepath.Join(*caPath, *caFilename)
		certs, err := ioutil.ReadFile(filename)
		if err != nil {
			log.Fatalf("couldn't read '%s': %s", filename, err)
		}
		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			log.Println("No certs appended, using system certs only")
		}
		tlsConf.RootCAs = rootCAs
	}

	if *keyFilename != "" {
		cert, err := tls.LoadX509KeyPair(*certFilename, *keyFilename)
		if err != nil {
			log.Fatal(err)
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	opts.SetTLSConfig(tlsConf)

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}

	c := &MQTTCouplings{
		Quiesce:              uint(*quiesce),
		SubTopics:            *subTopics,
		InjectTopic:          *injectTopic,
		WrapWithTopic:        *wrapWithTopic,
		DefaultOutboundTopic: *defaultOutboundTopic,
		ResultTopic:          *resultTopic,
		InTimeout:            *inTimeout,

		incoming: make(chan interface{}),
		outbound: make(chan *sio.Result),
		done:     make(chan bool),
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.inHandler(client, msg)
	}

	c.Client = mqtt.NewClient(opts)

	return c, fs
}

// inbound makes a message from an MQTT payload.
func (c *MQTTCouplings) inbound(topic string, payload []byte) interface{} {
	var x interface{}
	if err := json.Unmarshal(payload, &x); err != nil {
		util.Logf("Couldn't JSON-parse payload: %s", payload)
		x = string(payload)
	}
	if m, is := x.(map[string]interface{}); is {
		if c.InjectTopic {
			m["topic"] = topic
		}
	} else if c.WrapWithTopic {
		x = map[string]interface{}{
			"topic":   topic,
			"payload": x,
		}
	}
	return x
}

// inHandler is a Paho publish handler, which is used to handle
// messages send to us from the MQTT broker due to our subscriptions.
func (c *MQTTCouplings) inHandler(client mqtt.Client, msg mqtt.Message) {
	util.Logf("incoming: %s %s", msg.Topic(), msg.Payload())

	x := c.inbound(msg.Topic(), msg.Payload())

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case c.incoming <- x:
	case <-c.done:
		log.Printf("Not forwarding after Stop")
	case <-to.C:
		log.Printf("Not forwarding due to stall")
	}
}

// Start creates the MQTT session.
func (c *MQTTCouplings) Start(ctx context.Context) error {
	util.Logf("Attempting to connect to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	util.Logf("Connected to broker")

	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		util.Logf("Subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	go func() {
		if err := c.outLoop(ctx); err != nil {
			log.Printf("MQTT outLoop: %v", err)
		}
	}()

	return nil
}

// IO returns the channels that NewMQTTCouplings made.
func (c *MQTTCouplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// addressed returns the topic, QoS, and payload for an emitted
// message.
func (c *MQTTCouplings) addressed(x interface{}) (string, byte, []byte, error) {
	topic, qos := parseTopic(c.DefaultOutboundTopic)
	if m, is := x.(map[string]interface{}); is {
		if s, is := m["topic"].(string); is {
			topic = s
		}
		if n, have := m["qos"]; have {
			if f, is := n.(float64); is {
				qos = byte(f)
			} else {
				log.Printf("warning: ignoring qos %#v %T", n, n)
			}
		}
	}
	js, err := json.Marshal(x)
	return topic, qos, js, err
}

func (c *MQTTCouplings) publish(topic string, qos byte, payload []byte) error {
	token := c.Client.Publish(topic, qos, false, payload)
	token.Wait()
	return token.Error()
}

// outLoop forwards Results to the MQTT broker.
func (c *MQTTCouplings) outLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-c.outbound:
			if r == nil {
				return nil
			}
			for _, x := range r.Emitted {
				topic, qos, js, err := c.addressed(x)
				if err != nil {
					log.Printf("Failed to marshal %#v", x)
					continue
				}
				if err = c.publish(topic, qos, js); err != nil {
					return err
				}
			}
			if c.ResultTopic != "" {
				js, err := json.Marshal(r)
				if err != nil {
					log.Printf("Failed to marshal result %s", r.Id)
					continue
				}
				topic, qos := parseTopic(c.ResultTopic)
				if err = c.publish(topic, qos, js); err != nil {
					return err
				}
			}
		}
	}
}

// Stop terminates the MQTT session.
func (c *MQTTCouplings) Stop(ctx context.Context) error {
	util.Logf("Disconnecting")
	c.Client.Disconnect(c.Quiesce)
	close(c.done)
	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.Atoi(s[i+1:])
	if err != nil || qos < 0 || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
