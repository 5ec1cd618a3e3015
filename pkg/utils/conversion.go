package utils

import (
	"fmt"
	"strconv"
)

// StringToUint64 mengubah string angka menjadi uint64
// Berguna untuk parsing ID dari URL parameter
func StringToUint64(str string) uint64 {
	val, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0 // Return 0 jika gagal parsing
	}
	return val
}

// FormatRupiah menampilkan nominal integer jadi string "Rp1.234.567"
// Khusus buat isi notifikasi, angka aslinya tetap integer di database
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	if neg {
		return fmt.Sprintf("-Rp%s", out)
	}
	return fmt.Sprintf("Rp%s", out)
}
