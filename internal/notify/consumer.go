package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to RabbitMQ, declares the appointment.notify
// queue and consumes events until the process exits. It runs a
// reconnect loop with exponential backoff so a broker restart never
// takes the server down. A failed delivery is logged and rejected
// without requeue to avoid tight redelivery loops.
func StartConsumer(mailer *Mailer) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, mailer); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, mailer *Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleEvent(d.Body, mailer); err != nil {
			log.Printf("notify-consumer: handle event failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleEvent(body []byte, mailer *Mailer) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if len(ev.Recipients) == 0 {
		return fmt.Errorf("event %s for %s has no recipients", ev.Kind, ev.AppointmentID)
	}
	if mailer == nil {
		log.Printf("notify-consumer: mail not configured; dropping %s event for %s to %v",
			ev.Kind, ev.AppointmentID, ev.Recipients)
		return nil
	}
	if err := mailer.Send(ev.Recipients, ev.Subject, ev.Body); err != nil {
		return fmt.Errorf("send %s mail for %s: %w", ev.Kind, ev.AppointmentID, err)
	}
	return nil
}
