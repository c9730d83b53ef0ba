// Command kafka-producer is a load generator for the order topic. It sends a
// mix of limit, market, stop and cancel events in the engine's wire format,
// either generated or loaded from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	orderreaderv1 "github.com/sigmatrade/matching-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
)

// generateEvents creates a realistic event mix: mostly limits, some markets,
// a few stops, and cancels aimed at IDs the engine has plausibly assigned.
func generateEvents(count int, basePrice, priceSpread float64) []orderreaderv1.OrderEventPayload {
	events := make([]orderreaderv1.OrderEventPayload, count)

	for i := 0; i < count; i++ {
		roll := rand.Float64()

		var eventType orderbookv1.OrderType
		switch {
		case roll < 0.60:
			eventType = orderbookv1.OrderTypeLimit
		case roll < 0.85:
			eventType = orderbookv1.OrderTypeMarket
		case roll < 0.95:
			eventType = orderbookv1.OrderTypeStop
		default:
			eventType = orderbookv1.OrderTypeCancel
		}

		side := orderbookv1.SideSell
		if rand.Float64() < 0.5 {
			side = orderbookv1.SideBuy
		}

		volume := int64(rand.Intn(100) + 1)

		var price float64
		switch eventType {
		case orderbookv1.OrderTypeLimit:
			if side == orderbookv1.SideBuy {
				price = basePrice - rand.Float64()*priceSpread*0.8
			} else {
				price = basePrice + rand.Float64()*priceSpread*0.8
			}
		case orderbookv1.OrderTypeMarket:
			// Markets carry no price; they take whatever the book offers
		case orderbookv1.OrderTypeStop:
			price = basePrice + (rand.Float64()-0.5)*priceSpread
		}
		price = float64(int(price*10)) / 10
		if price < 0 {
			price = basePrice
		}

		event := orderreaderv1.OrderEventPayload{
			Type:   string(eventType),
			Side:   string(side),
			Volume: volume,
			Price:  price,
			Offset: int64(i + 1),
		}

		if eventType == orderbookv1.OrderTypeCancel {
			// The engine assigns at most one ID per prior event
			event = orderreaderv1.OrderEventPayload{
				Type:     string(orderbookv1.OrderTypeCancel),
				TargetID: int64(rand.Intn(i+1) + 1),
				Offset:   int64(i + 1),
			}
		}

		events[i] = event
	}

	return events
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with order events (optional, generates events if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending events")
		count       = flag.Int("count", 1000, "Number of events to generate")
		basePrice   = flag.Float64("base-price", 3945.5, "Base price for events")
		priceSpread = flag.Float64("price-spread", 200.0, "Price spread range")
	)
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var events []orderreaderv1.OrderEventPayload
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &events); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d events from file: %s", len(events), *file)
	} else {
		log.Printf("Generating %d events...", *count)
		events = generateEvents(*count, *basePrice, *priceSpread)
	}

	log.Printf("Sending events to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between events: %v", *delay)

	for i, event := range events {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(strconv.FormatInt(event.Offset, 10)),
			Value: eventJSON,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send event %d: %v", i+1, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(events)-1 {
			if event.Type == string(orderbookv1.OrderTypeCancel) {
				log.Printf("Sent event %d/%d: cancel target %d", i+1, len(events), event.TargetID)
			} else {
				log.Printf("Sent event %d/%d: %s %s | Volume: %d @ %.1f",
					i+1, len(events), event.Type, event.Side, event.Volume, event.Price)
			}
		}

		if i < len(events)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d events!", len(events))

	typeCounts := map[string]int{}
	for _, event := range events {
		typeCounts[event.Type]++
	}
	log.Printf("Summary: %d limit, %d market, %d stop, %d cancel",
		typeCounts[string(orderbookv1.OrderTypeLimit)],
		typeCounts[string(orderbookv1.OrderTypeMarket)],
		typeCounts[string(orderbookv1.OrderTypeStop)],
		typeCounts[string(orderbookv1.OrderTypeCancel)])
}
