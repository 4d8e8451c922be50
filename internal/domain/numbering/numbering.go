// Package numbering define el formato correlativo de las facturas: SERIE-AÑO-NNNN.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSeries serie por defecto de las facturas.
const DefaultSeries = "FAC"

// Format construye el número visible, p. ej. FAC-2026-0008.
func Format(series string, year, n int) string {
	return fmt.Sprintf("%s-%d-%04d", series, year, n)
}

// YearPrefix prefijo común de todos los números de una serie y año ("FAC-2026-").
func YearPrefix(series string, year int) string {
	return fmt.Sprintf("%s-%d-", series, year)
}

// Parse extrae serie, año y correlativo de un número con formato SERIE-AÑO-NNNN.
func Parse(number string) (series string, year, n int, err error) {
	parts := strings.Split(strings.TrimSpace(number), "-")
	if len(parts) < 3 {
		return "", 0, 0, fmt.Errorf("numeración: formato inválido %q", number)
	}
	k := len(parts)
	year, err = strconv.Atoi(parts[k-2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("numeración: año inválido en %q", number)
	}
	n, err = strconv.Atoi(parts[k-1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("numeración: correlativo inválido en %q", number)
	}
	return strings.Join(parts[:k-2], "-"), year, n, nil
}

// Counter contador de facturas de un usuario.
type Counter struct {
	UserID     string
	Series     string
	Year       int
	LastNumber int
}

// Next avanza el contador para el año indicado y devuelve el número emitido.
// Si el año cambió, la secuencia vuelve a empezar en 1.
func (c *Counter) Next(year int) string {
	if c.Series == "" {
		c.Series = DefaultSeries
	}
	if c.Year != year {
		c.Year = year
		c.LastNumber = 0
	}
	c.LastNumber++
	return Format(c.Series, c.Year, c.LastNumber)
}
