package utils

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Sequential business codes (CLI-0001, SUP-001, WH-001) and daily order
// numbers (SO-20240131-0001). The max-suffix read locks the scanned rows, so
// it must run inside the caller's insert transaction; the unique column plus
// IsDuplicateKey retry covers the remaining race window.

func FormatSequential(prefix string, width int, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// NextCode returns the next code for a prefixed sequence, e.g.
// NextCode(tx, "clients", "CLI-", 4) -> "CLI-0042".
func NextCode(tx *gorm.DB, table string, prefix string, width int) (string, error) {
	var max sql.NullInt64
	query := fmt.Sprintf(
		"SELECT MAX(CAST(SUBSTRING(code, %d) AS UNSIGNED)) FROM %s FOR UPDATE",
		len(prefix)+1, table,
	)
	if err := tx.Raw(query).Scan(&max).Error; err != nil {
		return "", err
	}
	return FormatSequential(prefix, width, max.Int64+1), nil
}

// NextOrderNumber returns the next number in a per-day series, e.g.
// NextOrderNumber(tx, "sales_orders", "SO", day) -> "SO-20240131-0007".
func NextOrderNumber(tx *gorm.DB, table string, series string, day time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", series, day.Format("20060102"))
	var max sql.NullInt64
	query := fmt.Sprintf(
		"SELECT MAX(CAST(SUBSTRING(order_number, %d) AS UNSIGNED)) FROM %s WHERE order_number LIKE ? FOR UPDATE",
		len(prefix)+1, table,
	)
	if err := tx.Raw(query, prefix+"%").Scan(&max).Error; err != nil {
		return "", err
	}
	return FormatSequential(prefix, 4, max.Int64+1), nil
}

// IsDuplicateKey reports a MySQL unique constraint violation (error 1062).
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
