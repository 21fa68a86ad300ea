// Command stress_test hammers one (business, product) key with concurrent
// stock_in transactions and checks that no update is lost: the final snapshot
// and the replayed ledger must both equal the number of committed units.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/adapter/storage"
	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/core/service"
	"github.com/nopadol/stockledger/internal/port"
)

const (
	totalRequests = 50
	quantityEach  = 1
)

func main() {
	ctx := context.Background()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/stockledger?parseTime=true"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := sqlx.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	var cache port.CacheRepository
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, running without lock: %v", err)
	} else {
		cache = storage.NewRedisAdapter(rdb)
		defer rdb.Close()
	}

	logger := zap.NewNop()
	mysqlAdapter := storage.NewMySQLAdapter(db)
	guard := service.NewAccessGuard(mysqlAdapter)
	catalog := service.NewCatalogService(guard, mysqlAdapter, logger)
	ledger := service.NewLedgerService(guard, mysqlAdapter, cache, logger)
	business := service.NewBusinessService(guard, mysqlAdapter, logger)

	// Seed: trial code, owner, business, product.
	ownerID := uuid.NewString()
	trialCode := "STRESS-" + uuid.NewString()[:8]
	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, 'Stress Tester', '', NOW(), NOW())`,
		ownerID, ownerID+"@stress.local"); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO trial_codes (code, is_used, created_at) VALUES (?, 0, NOW())`, trialCode); err != nil {
		log.Fatalf("failed to seed trial code: %v", err)
	}

	biz, err := business.CreateBusiness(ctx, ownerID, service.CreateBusinessInput{
		Name:      "stress-biz",
		TrialCode: trialCode,
	})
	if err != nil {
		log.Fatalf("failed to create business: %v", err)
	}

	product, err := catalog.CreateProduct(ctx, ownerID, service.CreateProductInput{
		BusinessID: biz.ID,
		Name:       "stress-item",
	})
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordTransaction(ctx, service.RecordTransactionInput{
				BusinessID: biz.ID,
				ProductID:  product.ID,
				UserID:     ownerID,
				Kind:       domain.KindStockIn,
				Quantity:   quantityEach,
			})
			if err == nil {
				successCount.Add(1)
			} else {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := int(successCount.Load())
	expected := success * quantityEach

	snapshot, err := mysqlAdapter.GetInventory(ctx, biz.ID, product.ID, domain.DefaultLocation)
	if err != nil || snapshot == nil {
		log.Fatalf("failed to read final snapshot: %v", err)
	}
	replayed, err := ledger.ReplayStock(ctx, biz.ID, product.ID, domain.DefaultLocation)
	if err != nil {
		log.Fatalf("failed to replay ledger: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:    %d\n", totalRequests)
	fmt.Printf("Committed:         %d\n", success)
	fmt.Printf("Conflicted:        %d\n", conflictCount.Load())
	fmt.Printf("Duration:          %v\n", elapsed)
	fmt.Printf("Snapshot Stock:    %d\n", snapshot.CurrentStock)
	fmt.Printf("Replayed Stock:    %d\n", replayed)
	fmt.Println("==========================================")

	if snapshot.CurrentStock == expected && replayed == expected {
		fmt.Println("PASS: snapshot and ledger agree, no lost updates")
	} else {
		fmt.Printf("FAIL: expected %d, snapshot %d, replayed %d\n", expected, snapshot.CurrentStock, replayed)
		os.Exit(1)
	}
}
