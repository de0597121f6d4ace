package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"storefront_pay/internal/app"
	"storefront_pay/internal/config"
	"storefront_pay/internal/services"
)

func main() {
	orderIDs := flag.String("order_ids", "", "Comma separated order ids (mandatory)")
	mark := flag.Bool("mark", false, "Record the orders as settled instead of requesting settlement")
	flag.Parse()

	ids := splitIDs(*orderIDs)
	if len(ids) == 0 {
		fmt.Println("Usage: settle -order_ids <ORDER_A,ORDER_B> [-mark]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	var results []services.SettlementItem
	if *mark {
		results, err = a.Settlements.MarkSettled(ctx, ids)
	} else {
		if verr := cfg.Validate(); verr != nil {
			log.Fatalf("Invalid configuration: %v", verr)
		}
		results, err = a.Settlements.RequestSettlement(ctx, ids)
	}
	if err != nil {
		log.Fatalf("Settlement aborted: %v", err)
	}

	failed := 0
	for _, r := range results {
		state := "ok"
		if !r.Success {
			state = "skipped"
			failed++
		}
		fmt.Printf("%-24s %-8s %s\n", r.OrderID, state, r.Message)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
