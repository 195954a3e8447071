package service

import (
	"math/rand"
	"strconv"
)

const OrderCodePrefix = "MEOSTORE"

// CodeGenerator returns a candidate order code. Uniqueness is enforced by
// the store, not the generator.
type CodeGenerator func() string

// RandomOrderCode returns "MEOSTORE-" followed by a number drawn uniformly
// from [100000, 999999].
func RandomOrderCode() string {
	return CanonicalOrderCode(strconv.Itoa(100000 + rand.Intn(900000)))
}

func CanonicalOrderCode(digits string) string {
	return OrderCodePrefix + "-" + digits
}
