package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/giftpay/internal/adapter/gateway"
	"github.com/rl1809/giftpay/internal/adapter/storage"
	"github.com/rl1809/giftpay/internal/app"
	"github.com/rl1809/giftpay/internal/config"
	"github.com/rl1809/giftpay/internal/core/domain"
)

const (
	defaultTarget = "http://localhost:8080/webhooks/payment"
	totalRequests = 50
	itemID        = 2
	priceMinor    = 30000
)

func main() {
	ctx := context.Background()

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("WEBHOOK_SECRET must be set to the server's secret")
	}
	target := os.Getenv("WEBHOOK_TARGET")
	if target == "" {
		target = defaultTarget
	}

	mysqlCfg, err := config.LoadMySQL()
	if err != nil {
		log.Fatalf("failed to load mysql config: %v", err)
	}
	db, err := app.OpenMySQL(mysqlCfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	// Seed a fresh pending transaction
	repo := storage.NewMySQLAdapter(db, storage.RetryConfig{Attempts: 3, Delay: 50 * time.Millisecond})
	ref, err := domain.NewOrderRef(time.Now().UnixNano()/1000, itemID, priceMinor)
	if err != nil {
		log.Fatalf("failed to build order ref: %v", err)
	}
	gross := domain.FromMinorUnits(priceMinor)
	tx := domain.NewPendingTransaction(ref, "Coffee", gross, decimal.RequireFromString("0.10"), time.Now().UTC())
	if _, _, err := repo.RecordPending(ctx, tx); err != nil {
		log.Fatalf("failed to seed transaction: %v", err)
	}

	n := domain.WebhookNotification{OrderRef: ref.Encode(), Amount: gross.StringFixed(2), Status: "paid"}
	signature := gateway.NewHMACVerifier(secret).Sign(n)
	body, _ := json.Marshal(map[string]string{
		"order_id": n.OrderRef,
		"amount":   n.Amount,
		"status":   n.Status,
	})

	// Counters
	var okCount, appliedCount, failCount atomic.Int32

	client := &http.Client{Timeout: 10 * time.Second}
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
			if err != nil {
				failCount.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Signature", signature)

			resp, err := client.Do(req)
			if err != nil {
				failCount.Add(1)
				return
			}
			defer resp.Body.Close()

			var out struct {
				Message string `json:"message"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&out)

			if resp.StatusCode != http.StatusOK {
				failCount.Add(1)
				return
			}
			okCount.Add(1)
			if out.Message == "applied" {
				appliedCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== WEBHOOK REPLAY RESULTS ==========")
	fmt.Printf("Order:            %s\n", n.OrderRef)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("HTTP 200:         %d\n", okCount.Load())
	fmt.Printf("Applied:          %d\n", appliedCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("============================================")

	if appliedCount.Load() == 1 && okCount.Load() == totalRequests {
		fmt.Println("PASS: exactly one delivery applied, the rest acknowledged")
	} else {
		fmt.Printf("FAIL: expected 1 applied and %d acknowledged, got %d/%d\n",
			totalRequests, appliedCount.Load(), okCount.Load())
	}

	stored, err := repo.GetByOrderRef(ctx, n.OrderRef)
	if err != nil || stored == nil {
		fmt.Printf("FAIL: could not read back transaction: %v\n", err)
		return
	}
	if stored.Status == domain.TransactionStatusPaid {
		fmt.Println("PASS: transaction is paid")
	} else {
		fmt.Printf("FAIL: expected status paid, got %s\n", stored.Status)
	}
}
