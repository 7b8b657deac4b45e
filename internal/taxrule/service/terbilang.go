package service

import "strings"

var satuan = []string{
	"", "Satu", "Dua", "Tiga", "Empat", "Lima",
	"Enam", "Tujuh", "Delapan", "Sembilan", "Sepuluh", "Sebelas",
}

// Terbilang spells a non-negative amount in Indonesian, used on the printed
// voucher. Negative input returns "".
func Terbilang(n int64) string {
	if n < 0 {
		return ""
	}
	if n == 0 {
		return "Nol"
	}
	return strings.Join(strings.Fields(terbilang(n)), " ")
}

// AmountInWords renders the gross amount for the printed document.
func AmountInWords(n int64) string {
	words := Terbilang(n)
	if words == "" {
		return ""
	}
	return words + " Rupiah"
}

func terbilang(n int64) string {
	switch {
	case n < 12:
		return satuan[n]
	case n < 20:
		return terbilang(n-10) + " Belas"
	case n < 100:
		return terbilang(n/10) + " Puluh " + terbilang(n%10)
	case n < 200:
		return "Seratus " + terbilang(n-100)
	case n < 1_000:
		return terbilang(n/100) + " Ratus " + terbilang(n%100)
	case n < 2_000:
		return "Seribu " + terbilang(n-1_000)
	case n < 1_000_000:
		return terbilang(n/1_000) + " Ribu " + terbilang(n%1_000)
	case n < 1_000_000_000:
		return terbilang(n/1_000_000) + " Juta " + terbilang(n%1_000_000)
	case n < 1_000_000_000_000:
		return terbilang(n/1_000_000_000) + " Miliar " + terbilang(n%1_000_000_000)
	default:
		return terbilang(n/1_000_000_000_000) + " Triliun " + terbilang(n%1_000_000_000_000)
	}
}
