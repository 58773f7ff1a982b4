/*
 * muninn queue worker daemon
 *
 * Copyright (c) 2023 Telenor Norge AS
 *
 * This library is free software; you can redistribute it and/or
 * modify it under the terms of the GNU Lesser General Public
 * License as published by the Free Software Foundation; either
 * version 2.1 of the License, or (at your option) any later version.
 *
 * This library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public
 * License along with this library; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA
 * 02110-1301  USA
 */

// muninn-ssh is the daemon flavor: it sits on a (non-durable) AMQP queue
// and executes backup/audit orders as they arrive, instead of walking
// the whole inventory once. cmd/addjob is the matching order publisher.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/telenornms/muninn"
	"github.com/telenornms/muninn/engine"
	"github.com/telenornms/muninn/inventory"
)

// Order asks for a backup/audit run of the named inventory hosts. An
// empty Hostnames list means the whole inventory. ID is not used by
// muninn at all, but echoed in the log so a caller can match order to
// outcome.
type Order struct {
	Hostnames []string
	ID        string `json:",omitempty"`
	delivery  amqp.Delivery
}

func (o Order) String() string {
	if len(o.Hostnames) == 0 {
		return "<all>"
	}
	if len(o.Hostnames) == 1 {
		return o.Hostnames[0]
	}
	return fmt.Sprintf("%s+%d", o.Hostnames[0], len(o.Hostnames)-1)
}

// Runner pairs the engine with the inventory it serves orders from.
type Runner struct {
	Engine  *engine.Engine
	Devices []muninn.Device
}

// Run executes one order: pick the devices, lock them, process and print
// the result lines. The per-host lock is what keeps two overlapping
// orders from fighting over the same session/artifact.
func (ru *Runner) Run(o Order) error {
	devices, err := ru.pick(o)
	if err != nil {
		return err
	}
	locks := make([]inventory.Host, 0, len(devices))
	defer func() {
		for i := range locks {
			locks[i].Unlock()
		}
	}()
	for _, dev := range devices {
		h, err := inventory.LockHost(dev.Hostname)
		if err != nil {
			return fmt.Errorf("unable to acquire host lock: %w", err)
		}
		locks = append(locks, h)
	}
	timestamp := time.Now().Format("20060102")
	for r := range ru.Engine.Run(devices, timestamp) {
		fmt.Println(r.String())
	}
	return nil
}

func (ru *Runner) pick(o Order) ([]muninn.Device, error) {
	if len(o.Hostnames) == 0 {
		return ru.Devices, nil
	}
	byName := make(map[string]muninn.Device, len(ru.Devices))
	for _, d := range ru.Devices {
		byName[d.Hostname] = d
	}
	devices := make([]muninn.Device, 0, len(o.Hostnames))
	for _, h := range o.Hostnames {
		d, ok := byName[h]
		if !ok {
			return nil, fmt.Errorf("host %s not in inventory", h)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Listener drains the order channel. Failed orders are requeued once:
// a redelivered order that fails again is dropped, since a third try
// won't make the device any more reachable.
func (ru *Runner) Listener(c chan Order, name string) {
	muninn.Debugf("Starting listener %s...", name)
	for order := range c {
		now := time.Now()
		err := ru.Run(order)
		since := time.Since(now).Round(time.Millisecond * 10)
		if err != nil {
			requeue := !order.delivery.Redelivered
			muninn.Logf("[%2s]: %-15s FAIL %s: %s (requeue: %v)", name, order, since.String(), err, requeue)
			if requeue {
				delayR := rand.Int() % 10
				d := time.Second*1 + time.Second*time.Duration(delayR)
				muninn.Debugf("Sleeping %v before NACK/requeue", d)
				time.Sleep(d)
			}
			if err2 := order.delivery.Nack(false, requeue); err2 != nil {
				muninn.Logf("NAck failed: %s", err2)
			}
		} else {
			muninn.Logf("[%2s]: %-15s OK %s", name, order, since.String())
			if err2 := order.delivery.Ack(false); err2 != nil {
				muninn.Logf("Ack failed: %s", err2)
			}
		}
	}
}

func main() {
	var configFile string
	flag.BoolVar(&muninn.Config.Debug, "debug", false, "enable debug")
	flag.StringVar(&configFile, "f", "/etc/muninn/muninn.toml", "config file")
	flag.Parse()
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "f" {
			explicit = true
		}
	})
	if err := muninn.ParseConfig(configFile, explicit); err != nil {
		muninn.Fatalf("Couldn't parse config: %s", err)
	}
	muninn.Init()
	muninn.Debugf("Read config file: %s", configFile)

	devices, err := inventory.Load(muninn.Config.Inventory)
	if err != nil {
		muninn.Fatalf("Couldn't load inventory: %s", err)
	}
	ru := &Runner{Engine: engine.New(), Devices: devices}

	// The engine already pools workers per order; the listeners just
	// let a couple of orders make progress side by side.
	c := make(chan Order)
	for i := 0; i < muninn.Config.Workers; i++ {
		go ru.Listener(c, fmt.Sprintf("%d", i))
		time.Sleep(time.Microsecond * 20)
	}
	muninn.Logf("Started %d listeners", muninn.Config.Workers)

	amUrl, err := url.Parse(muninn.Config.Broker)
	if err != nil {
		muninn.Fatalf("Can't parse broker url: %s", err)
	}
	muninn.Debugf("Connecting to broker: %v", amUrl.Redacted())
	conn, err := amqp.Dial(muninn.Config.Broker)
	if err != nil {
		muninn.Fatalf("can't connect to broker: %s", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		muninn.Fatalf("can't get channel: %s", err)
	}
	defer ch.Close()
	err = ch.Qos(muninn.Config.Workers+1, 0, true)
	if err != nil {
		muninn.Fatalf("can't set qos: %s", err)
	}

	q, err := ch.QueueDeclare(
		"muninn", // name
		false,    // durable
		false,    // delete when unused
		false,    // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		muninn.Fatalf("can't declare queue: %s", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		muninn.Fatalf("can't register consumer: %s", err)
	}
	muninn.Logf("Listening for orders")
	for d := range msgs {
		order := Order{}
		err = json.Unmarshal(d.Body, &order)
		if err != nil {
			muninn.Logf("order json unmarshal: %s", err)
			d.Reject(false)
			continue
		}
		order.delivery = d
		c <- order
	}
	muninn.Logf("Reached the end. Connection probably dead. Some day, we'll handle this, but not today.")
}
