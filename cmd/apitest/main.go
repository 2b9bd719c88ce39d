package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
)

func main() {
	configPath := flag.String("config", "configs/logger.local.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client, err := exchange.NewClientFromConfig(cfg.Exchange, nil)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Test 1: Certificate login
	fmt.Println("=== Testing Login ===")
	if err := client.Login(ctx); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Println("Logged in")
	defer func() {
		fmt.Println("\n=== Testing Logout ===")
		if err := client.Logout(context.Background()); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		fmt.Println("Logged out")
	}()

	// Test 2: Today's events
	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	filter := exchange.MarketFilter{
		EventTypeIDs:    cfg.Catalog.EventTypeIDs,
		MarketCountries: cfg.Catalog.Countries,
		MarketTypeCodes: cfg.Catalog.MarketTypes,
		MarketStartTime: &exchange.TimeRange{From: day, To: day.Add(24 * time.Hour)},
	}

	fmt.Println("\n=== Testing ListEvents ===")
	events, err := client.ListEvents(ctx, filter)
	if err != nil {
		log.Fatalf("ListEvents failed: %v", err)
	}
	fmt.Printf("Fetched %d events\n", len(events))
	for i, e := range events {
		fmt.Printf("  %d. %s - %s (%d markets)\n", i+1, e.Event.ID, e.Event.Name, e.MarketCount)
	}

	// Test 3: First event's markets and a book
	if len(events) > 0 {
		filter.EventIDs = []string{events[0].Event.ID}
		fmt.Printf("\n=== Testing ListMarketCatalogue (%s) ===\n", events[0].Event.Name)
		markets, err := client.ListMarketCatalogue(ctx, filter, 5, []string{
			exchange.ProjectionMarketStartTime,
			exchange.ProjectionRunnerDescription,
		})
		if err != nil {
			log.Fatalf("ListMarketCatalogue failed: %v", err)
		}
		for i, m := range markets {
			fmt.Printf("  %d. %s - %s at %s (%d runners)\n", i+1, m.MarketID, m.MarketName, m.MarketStartTime.Format(time.Kitchen), len(m.Runners))
		}

		if len(markets) > 0 {
			id := markets[0].MarketID
			fmt.Printf("\n=== Testing ListMarketBook (%s) ===\n", id)
			books, err := client.ListMarketBook(ctx, []string{id}, exchange.BestOffersProjection())
			if err != nil {
				log.Fatalf("ListMarketBook failed: %v", err)
			}
			for _, b := range books {
				fmt.Printf("Status: %s, InPlay: %v, Matched: %s\n", b.Status, b.Inplay, b.TotalMatched)
			}
		}
	}

	fmt.Println("\n=== All API tests passed! ===")
}
