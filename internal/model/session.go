package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Session is an active wallet binding: the authorized account and the
// chain it was authorized on. A session is created by a successful
// connect and replaced wholesale on account change; it is never mutated
// field by field.
type Session struct {
	Account common.Address `json:"account"`
	ChainID *big.Int       `json:"chain_id"`
}

// SameChain reports whether the session was established on chainID.
func (s *Session) SameChain(chainID *big.Int) bool {
	if s == nil || s.ChainID == nil || chainID == nil {
		return false
	}
	return s.ChainID.Cmp(chainID) == 0
}
