package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"membership-backend/internal/models"
)

func TestPostIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "idem@test.id")

	res, err := Post(db, "trx:1:1:TEST", user.ID, 100_000, models.FieldBalance, models.PostingCredit, "tes")
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, int64(100_000), res.BalanceAfter)

	// Key sama dikirim lagi: tidak ada efek baru, hasil lama dikembalikan
	res2, err := Post(db, "trx:1:1:TEST", user.ID, 100_000, models.FieldBalance, models.PostingCredit, "tes")
	require.NoError(t, err)
	require.False(t, res2.Applied)
	require.Equal(t, int64(100_000), res2.BalanceAfter)

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(100_000), wallet.Balance)
	require.Equal(t, int64(100_000), wallet.TotalEarnings)

	var count int64
	db.Model(&models.LedgerPosting{}).Count(&count)
	require.Equal(t, int64(1), count)
}

func TestPostInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "miskin@test.id")

	_, err := Post(db, "k1", user.ID, 50_000, models.FieldBalance, models.PostingCredit, "")
	require.NoError(t, err)

	// Tarik lebih besar dari saldo: harus ditolak, saldo tidak berubah
	_, err = Post(db, "k2", user.ID, -60_000, models.FieldBalance, models.PostingPayout, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(50_000), wallet.Balance)
	checkWalletInvariant(t, db, user.ID)
}

func TestPendingBolehMinus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "pending@test.id")

	// Pending boleh negatif sementara, cek saldo cuma berlaku di balance
	_, err := Post(db, "k1", user.ID, -25_000, models.FieldPending, models.PostingReversal, "")
	require.NoError(t, err)

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(-25_000), wallet.BalancePending)
}

func TestBatchAtomik(t *testing.T) {
	db := newTestDB(t)
	a := seedUser(t, db, 4, "a@test.id")
	b := seedUser(t, db, 4, "b@test.id")

	// Posting kedua pasti gagal (debit dari saldo kosong).
	// Posting pertama HARUS ikut batal.
	_, err := PostBatch(db, []Posting{
		{Key: "batch:1", AccountID: a.ID, Amount: 10_000, Field: models.FieldBalance, Kind: models.PostingCredit},
		{Key: "batch:2", AccountID: b.ID, Amount: -10_000, Field: models.FieldBalance, Kind: models.PostingPayout},
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	var count int64
	db.Model(&models.LedgerPosting{}).Count(&count)
	require.Zero(t, count, "rollback harus ikut membatalkan klaim idempotency key")

	// Key yang batal boleh dipakai ulang
	res, err := Post(db, "batch:1", a.ID, 10_000, models.FieldBalance, models.PostingCredit, "")
	require.NoError(t, err)
	require.True(t, res.Applied)
}

func TestCounterInvariant(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "counter@test.id")

	// Kredit ke pending (komisi LOCKED)
	_, err := Post(db, "c1", user.ID, 200_000, models.FieldPending, models.PostingCredit, "")
	require.NoError(t, err)
	checkWalletInvariant(t, db, user.ID)

	// Release pending -> balance (sepasang, counter diam)
	_, err = PostBatch(db, []Posting{
		{Key: "r1", AccountID: user.ID, Amount: -200_000, Field: models.FieldPending, Kind: models.PostingRelease},
		{Key: "r2", AccountID: user.ID, Amount: 200_000, Field: models.FieldBalance, Kind: models.PostingRelease},
	})
	require.NoError(t, err)
	checkWalletInvariant(t, db, user.ID)

	// Tarik sebagian
	_, err = Post(db, "w1", user.ID, -150_000, models.FieldBalance, models.PostingPayout, "")
	require.NoError(t, err)
	checkWalletInvariant(t, db, user.ID)

	// Refund penarikan (payout positif)
	_, err = Post(db, "w1:refund", user.ID, 150_000, models.FieldBalance, models.PostingPayout, "")
	require.NoError(t, err)
	checkWalletInvariant(t, db, user.ID)

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(200_000), wallet.Balance)
	require.Equal(t, int64(0), wallet.BalancePending)
	require.Equal(t, int64(200_000), wallet.TotalEarnings)
	require.Equal(t, int64(0), wallet.TotalPayout)
}

func TestConcurrentSameKey(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "balapan@test.id")

	const workers = 10
	var wg sync.WaitGroup
	applied := make([]bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := Post(db, "rebutan:1", user.ID, 75_000, models.FieldBalance, models.PostingCredit, "")
			if err == nil {
				applied[i] = res.Applied
			}
		}(i)
	}
	wg.Wait()

	appliedCount := 0
	for _, a := range applied {
		if a {
			appliedCount++
		}
	}
	require.Equal(t, 1, appliedCount, "cuma satu caller yang boleh menang")

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(75_000), wallet.Balance)
}

func TestConcurrentDifferentKeysSameWallet(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 4, "rame@test.id")

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Post(db, fmt.Sprintf("paralel:%d", i), user.ID, 10_000,
				models.FieldBalance, models.PostingCredit, "")
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	wallet := getWallet(t, db, user.ID)
	require.Equal(t, int64(workers*10_000), wallet.Balance)
	require.Equal(t, int64(workers), wallet.Seq)
	checkWalletInvariant(t, db, user.ID)
}
