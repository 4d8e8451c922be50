// Package nif valida identificadores fiscales españoles: DNI, NIE y CIF.
package nif

import (
	"regexp"
	"strings"
)

// Type tipo de identificador detectado.
type Type string

const (
	TypeDNI     Type = "DNI"
	TypeNIE     Type = "NIE"
	TypeCIF     Type = "CIF"
	TypeUnknown Type = "DESCONOCIDO"
)

// letras de control del DNI/NIE (módulo 23).
const dniLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

// letras de control del CIF cuando el control no es numérico.
const cifControlLetters = "JABCDEFGHI"

// doble de cada dígito en posición impar, ya reducido a un dígito.
var cifDoubled = [10]int{0, 2, 4, 6, 8, 1, 3, 5, 7, 9}

var (
	reDNI = regexp.MustCompile(`^\d{8}[A-Z]$`)
	reNIE = regexp.MustCompile(`^[XYZ]\d{7}[A-Z]$`)
	reCIF = regexp.MustCompile(`^[A-HJ-NP-SUVW]\d{7}[0-9A-J]$`)
)

// Normalize quita espacios y guiones y pasa a mayúsculas.
func Normalize(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

// Detect devuelve el tipo de identificador según su forma (no valida el control).
func Detect(s string) Type {
	n := Normalize(s)
	switch {
	case len(n) != 9:
		return TypeUnknown
	case reCIF.MatchString(n):
		return TypeCIF
	case reNIE.MatchString(n):
		return TypeNIE
	case reDNI.MatchString(n):
		return TypeDNI
	default:
		return TypeUnknown
	}
}

// Valid indica si s es un DNI, NIE o CIF con dígito/letra de control correcto.
func Valid(s string) bool {
	n := Normalize(s)
	switch Detect(n) {
	case TypeCIF:
		return validCIF(n)
	case TypeNIE:
		return validNIE(n)
	case TypeDNI:
		return validDNI(n)
	default:
		return false
	}
}

func validDNI(n string) bool {
	return dniLetters[atoi(n[:8])%23] == n[8]
}

func validNIE(n string) bool {
	prefix := strings.IndexByte("XYZ", n[0])
	num := prefix*10_000_000 + atoi(n[1:8])
	return dniLetters[num%23] == n[8]
}

func validCIF(n string) bool {
	var sumEven, sumOdd int
	for i := 0; i < 7; i++ {
		d := int(n[1+i] - '0')
		if i%2 == 0 {
			sumOdd += cifDoubled[d]
		} else {
			sumEven += d
		}
	}
	control := (10 - (sumEven+sumOdd)%10) % 10

	c := n[8]
	if c >= '0' && c <= '9' {
		return int(c-'0') == control
	}
	return cifControlLetters[control] == c
}

// atoi sobre dígitos ya validados por la expresión regular.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
