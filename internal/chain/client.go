package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Reader exposes the chain reads the balance tracker depends on.
type Reader interface {
	NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, address common.Address) (*big.Int, error)
}

// EthReader reads balances through an Ethereum RPC client.
type EthReader struct {
	client *ethclient.Client
}

// NewEthReader wraps an RPC client in a Reader.
func NewEthReader(client *ethclient.Client) *EthReader {
	return &EthReader{client: client}
}

// NativeBalance returns the wei balance of the address at the latest block.
func (r *EthReader) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := r.client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("balance at: %w", err)
	}
	return balance, nil
}

// TokenBalance calls balanceOf(address) on an ERC-20 contract.
func (r *EthReader) TokenBalance(ctx context.Context, token, address common.Address) (*big.Int, error) {
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: BalanceOfData(address),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	if len(out) != 32 {
		return nil, fmt.Errorf("balanceOf returned %d bytes", len(out))
	}
	return new(big.Int).SetBytes(out), nil
}

// ERC-20 function selectors.
var (
	balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	transferSelector  = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
)

// BalanceOfData builds calldata for balanceOf(address).
func BalanceOfData(address common.Address) []byte {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(address.Bytes(), 32)...)
	return data
}

// TransferData builds calldata for transfer(to, amount).
func TransferData(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 68)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
