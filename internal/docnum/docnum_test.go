package docnum

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`CREATE TABLE document_sequences (
		kind TEXT NOT NULL,
		period TEXT NOT NULL,
		last_value INTEGER NOT NULL,
		PRIMARY KEY (kind, period)
	)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestNextAllocatesSequentially(t *testing.T) {
	db := setupDB(t)
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	first, err := Next(context.Background(), db, KindInvoice, at)
	if err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	assert.Equal(t, "INV-2026-08-00001", first)

	second, err := Next(context.Background(), db, KindInvoice, at)
	if err != nil {
		t.Fatalf("second allocation: %v", err)
	}
	assert.Equal(t, "INV-2026-08-00002", second)
}

func TestNextCountersAreIndependentPerKindAndPeriod(t *testing.T) {
	db := setupDB(t)
	august := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	september := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	inv, err := Next(context.Background(), db, KindInvoice, august)
	assert.NoError(t, err)
	assert.Equal(t, "INV-2026-08-00001", inv)

	fs, err := Next(context.Background(), db, KindStatement, august)
	assert.NoError(t, err)
	assert.Equal(t, "FS-2026-08-00001", fs)

	next, err := Next(context.Background(), db, KindInvoice, september)
	assert.NoError(t, err)
	assert.Equal(t, "INV-2026-09-00001", next)
}

func TestNextIsUniqueAcrossInterleavedAllocations(t *testing.T) {
	db := setupDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Single pooled connection; sqlite has no FOR UPDATE, so concurrent
	// transactions serialize at the pool instead of on the row lock.
	sqlDB.SetMaxOpenConns(1)

	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	const allocations = 25

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		numbers []string
		errs    []error
	)
	for i := 0; i < allocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var number string
			err := db.Transaction(func(tx *gorm.DB) error {
				var txErr error
				number, txErr = Next(context.Background(), tx, KindInvoice, at)
				return txErr
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, number)
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("allocation errors: %v", errs)
	}
	seen := make(map[string]struct{}, len(numbers))
	for _, number := range numbers {
		if _, dup := seen[number]; dup {
			t.Fatalf("number %s issued twice", number)
		}
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, allocations)
	assert.Contains(t, seen, "INV-2026-08-00001")
	assert.Contains(t, seen, "INV-2026-08-00025")
}

func TestNextUsesUTCPeriod(t *testing.T) {
	db := setupDB(t)

	// Sep 1 04:00 IST is still Aug 31 in UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 9, 1, 4, 0, 0, 0, ist)

	got, err := Next(context.Background(), db, KindInvoice, at)
	assert.NoError(t, err)
	assert.Equal(t, "INV-2026-08-00001", got)
}
