package common_test

import (
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/crypto/common"
)

func TestSha512Half(t *testing.T) {
	full := sha512.Sum512([]byte("marketd"))
	half := common.Sha512Half([]byte("marketd"))
	require.Equal(t, full[:32], half[:])
}

func TestSha512HalfConcatenates(t *testing.T) {
	joined := common.Sha512Half([]byte("list"), []byte("ing"))
	whole := common.Sha512Half([]byte("listing"))
	require.Equal(t, whole, joined)

	require.NotEqual(t, whole, common.Sha512Half([]byte("delisting")))
}
