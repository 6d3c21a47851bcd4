package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"casechain/crypto"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr common.Address) string {
	return crypto.FormatAddress(addr)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func zeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
