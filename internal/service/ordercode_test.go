package service

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCodeFormat = regexp.MustCompile(`^MEOSTORE-\d{6}$`)

func TestRandomOrderCode(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := RandomOrderCode()
		require.Regexp(t, orderCodeFormat, code)

		n, err := strconv.Atoi(strings.TrimPrefix(code, "MEOSTORE-"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestCanonicalOrderCode(t *testing.T) {
	assert.Equal(t, "MEOSTORE-123456", CanonicalOrderCode("123456"))
}
