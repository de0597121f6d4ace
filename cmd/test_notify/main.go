package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"storefront_pay/internal/app"
	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

func main() {
	phone := flag.String("phone", "", "Customer phone number (e.g. 9876543210)")
	email := flag.String("email", "", "Customer email address")
	amount := flag.String("amount", "1.00", "Receipt amount")
	flag.Parse()

	if *phone == "" && *email == "" {
		log.Fatal("Please provide -phone and/or -email")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatalf("Invalid amount: %v", err)
	}

	now := time.Now().UTC()
	txn := models.Transaction{
		OrderID:       "ORDER_TEST",
		CustomerName:  "Test Customer",
		CustomerEmail: *email,
		CustomerPhone: *phone,
		Amount:        value,
		PaymentStatus: models.PaymentStatusSuccess,
		TxnID:         "TEST_TXN",
		PaymentMode:   "UPI",
		CompletedAt:   &now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Printf("Sending test receipt to phone=%q email=%q", *phone, *email)
	if err := app.BuildNotifier(config.Load()).SendReceipt(ctx, txn); err != nil {
		log.Fatalf("Failed to send receipt: %v", err)
	}
	log.Println("Receipt sent (channels without configuration are skipped)")
}
