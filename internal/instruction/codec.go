package instruction

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// Decode parses router instruction data.
//
// Layout: [0] tag, then little-endian u64 fields in declared order.
// Trailing bytes after the last field are ignored.
func Decode(data []byte) (Instruction, error) {
	dec := bin.NewBinDecoder(data)

	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: empty instruction data", routererr.InvalidInstruction)
	}

	switch tag {
	case TagSwap:
		var ix Swap
		if ix.AmountIn, err = readU64(dec, "amount_in"); err != nil {
			return nil, err
		}
		if ix.MinimumAmountOut, err = readU64(dec, "minimum_amount_out"); err != nil {
			return nil, err
		}
		return ix, nil

	case TagDeposit:
		var ix Deposit
		if ix.MaxCoinAmount, err = readU64(dec, "max_coin_amount"); err != nil {
			return nil, err
		}
		if ix.MaxPcAmount, err = readU64(dec, "max_pc_amount"); err != nil {
			return nil, err
		}
		if ix.BaseSide, err = readU64(dec, "base_side"); err != nil {
			return nil, err
		}
		return ix, nil
	}

	return nil, fmt.Errorf("%w: unknown tag %d", routererr.InvalidInstruction, tag)
}

func readU64(dec *bin.Decoder, field string) (uint64, error) {
	v, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", routererr.InvalidInstruction, field, err)
	}
	return v, nil
}

// Encode serializes ix for the AMM program using the forward tag table
// (9 = swap, 3 = deposit). Decode(Encode(x)) therefore fails.
func Encode(ix Instruction) ([]byte, error) {
	switch v := ix.(type) {
	case Swap:
		return marshal(SwapDataLen, ForwardTagSwap, v.AmountIn, v.MinimumAmountOut)
	case *Swap:
		return marshal(SwapDataLen, ForwardTagSwap, v.AmountIn, v.MinimumAmountOut)
	case Deposit:
		return marshal(DepositDataLen, ForwardTagDeposit, v.MaxCoinAmount, v.MaxPcAmount, v.BaseSide)
	case *Deposit:
		return marshal(DepositDataLen, ForwardTagDeposit, v.MaxCoinAmount, v.MaxPcAmount, v.BaseSide)
	}
	return nil, fmt.Errorf("%w: unsupported instruction %T", routererr.InvalidInstruction, ix)
}

// EncodeRouter serializes ix with the router tag table (0 = swap, 1 = deposit),
// which is what clients send to the router.
func EncodeRouter(ix Instruction) ([]byte, error) {
	switch v := ix.(type) {
	case Swap:
		return marshal(SwapDataLen, TagSwap, v.AmountIn, v.MinimumAmountOut)
	case *Swap:
		return marshal(SwapDataLen, TagSwap, v.AmountIn, v.MinimumAmountOut)
	case Deposit:
		return marshal(DepositDataLen, TagDeposit, v.MaxCoinAmount, v.MaxPcAmount, v.BaseSide)
	case *Deposit:
		return marshal(DepositDataLen, TagDeposit, v.MaxCoinAmount, v.MaxPcAmount, v.BaseSide)
	}
	return nil, fmt.Errorf("%w: unsupported instruction %T", routererr.InvalidInstruction, ix)
}

func marshal(size int, tag uint8, fields ...uint64) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(tag); err != nil {
		return nil, fmt.Errorf("encode tag: %w", err)
	}
	for _, f := range fields {
		if err := enc.WriteUint64(f, binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("encode field: %w", err)
		}
	}
	return buf.Bytes(), nil
}
