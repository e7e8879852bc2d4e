package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/shop-ledger/internal/adapter/storage"
	"github.com/rl1809/shop-ledger/internal/core/domain"
	"github.com/rl1809/shop-ledger/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	inventory := service.NewInventoryService(storage.NewMemoryAdapter())

	product, err := inventory.CreateProduct(ctx, &domain.Product{
		Name:      "Flash Pen",
		Category:  domain.CategoryGrocery,
		Price:     2.0,
		Available: initialStock,
		UserID:    1,
	})
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32
	orderIDs := make(chan int64, totalRequests)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			order, err := inventory.PlaceOrder(ctx, userID, product.ID, 1, domain.PaymentCard)
			if err == nil {
				successCount.Add(1)
				orderIDs <- order.ID
			} else {
				failCount.Add(1)
			}
		}(int64(i + 2))
	}

	wg.Wait()
	close(orderIDs)
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Admitted:         %d\n", success)
	fmt.Printf("Rejected:         %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders admitted, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d admitted/%d rejected, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	depleted, err := inventory.GetProduct(ctx, product.ID)
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", depleted.Available)
	if depleted.Available == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", depleted.Available)
	}

	// Cancel everything that was admitted and verify the restore path.
	for id := range orderIDs {
		if _, err := inventory.CancelOrder(ctx, id); err != nil {
			log.Fatalf("failed to cancel order %d: %v", id, err)
		}
	}

	restored, err := inventory.GetProduct(ctx, product.ID)
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	if restored.Available == initialStock {
		fmt.Printf("PASS: Stock restored to %d after cancelling all orders\n", initialStock)
	} else {
		fmt.Printf("FAIL: Expected stock %d after cancellations, got %d\n", initialStock, restored.Available)
	}
}
