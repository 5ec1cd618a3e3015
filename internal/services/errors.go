package services

import "errors"

// Sentinel error mesin revenue. Cek pakai errors.Is karena di lapisan atas
// biasanya sudah dibungkus fmt.Errorf("...: %w", err).
var (
	// ErrValidation input transaksi/challenge/record import tidak lengkap atau tidak masuk akal.
	// Ditolak SEBELUM ada posting apapun.
	ErrValidation = errors.New("input tidak valid")

	// ErrInsufficientFunds posting negatif yang bikin balance jadi minus.
	// Cuma berlaku untuk field balance; pending boleh minus sementara.
	ErrInsufficientFunds = errors.New("saldo tidak cukup")

	// ErrDuplicatePosting idempotency key sudah pernah dipakai.
	// Ini BUKAN kegagalan buat caller: hasil lama dikembalikan dengan applied=false.
	ErrDuplicatePosting = errors.New("posting duplikat")

	// ErrInconsistentSplit jumlah semua entry hasil split tidak sama dengan gross.
	// Fatal: seluruh batch dibatalkan, jangan sampai ledger berat sebelah.
	ErrInconsistentSplit = errors.New("hasil split tidak balance dengan gross")

	// ErrExternalRecordConflict external_id sudah ada tapi nominalnya beda.
	// Dicatat dan di-skip, tidak pernah menimpa data lama diam-diam.
	ErrExternalRecordConflict = errors.New("record import konflik dengan transaksi yang sudah ada")
)
