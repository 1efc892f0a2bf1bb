package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// TxRequest describes a transaction to submit on behalf of the wallet.
type TxRequest struct {
	ChainID int64
	To      common.Address
	Data    []byte
	Value   *big.Int
}

// TxSender is the wallet's write capability: it signs and submits a
// transaction and returns its reference.
type TxSender interface {
	Submit(ctx context.Context, req TxRequest) (string, error)
}

// EthSender signs transactions with a custodial key and broadcasts them
// through the RPC client.
type EthSender struct {
	client *ethclient.Client
	key    *ecdsa.PrivateKey
	from   common.Address
}

// NewEthSender builds a sender from a hex-encoded private key.
func NewEthSender(client *ethclient.Client, hexKey string) (*EthSender, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse settlement key: %w", err)
	}
	return &EthSender{
		client: client,
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// From returns the address transactions are sent from.
func (s *EthSender) From() common.Address {
	return s.from
}

// Submit signs and broadcasts the transaction, returning its hash.
func (s *EthSender) Submit(ctx context.Context, req TxRequest) (string, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &req.To,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &req.To,
		Value:    value,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(req.ChainID)), s.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}
