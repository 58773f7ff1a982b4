/*
 * muninn order publisher
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

// addjob publishes order files to the muninn queue, once or on an
// interval. Usage: addjob [-broker url] <delay> <order.json>...
// A negative delay publishes once and exits.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/telenornms/muninn"
)

func main() {
	var broker string
	flag.StringVar(&broker, "broker", muninn.Config.Broker, "AMQP broker url")
	flag.Parse()

	conn, err := amqp.Dial(broker)
	if err != nil {
		muninn.Fatalf("failed to connect to rabbitMQ: %s", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		muninn.Fatalf("failed to open a channel: %s", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"muninn", // name
		false,    // durable
		false,    // delete when unused
		false,    // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		muninn.Fatalf("failed to declare a queue: %s", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	args := flag.Args()
	if len(args) < 2 {
		muninn.Fatalf("no order-file supplied")
	}
	sleeptime, err := time.ParseDuration(args[0])
	if err != nil {
		muninn.Fatalf("unable to parse delay-time: %s", err)
	}
	var bs [][]byte
	for i := 1; i < len(args); i++ {
		b, err := os.ReadFile(args[i])
		if err != nil {
			muninn.Fatalf("failed to read %s", args[i])
		}
		bs = append(bs, b)
	}
	for {
		for _, b := range bs {
			err = ch.PublishWithContext(ctx,
				"",     // exchange
				q.Name, // routing key
				false,  // mandatory
				false,  // immediate
				amqp.Publishing{
					ContentType: "text/json",
					Expiration:  "10000",
					Body:        []byte(b),
				})
			if err != nil {
				muninn.Fatalf("failed to publish a message: %s", err)
			}
			muninn.Logf("Sent %d bytes", len(b))
		}
		if sleeptime < 0 {
			muninn.Logf("negative sleeptime, exiting after 1 publish")
			os.Exit(0)
		}
		muninn.Logf("Sleeping %s", sleeptime)
		time.Sleep(sleeptime)
	}
}
