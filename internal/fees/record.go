package fees

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// RecordLen is the packed size of a Fees record. Only the first 32 bytes carry
// fields; the remainder is reserved and written as zeros.
const RecordLen = 64

const fieldsLen = 4 * 8

// Fees is the persisted fee configuration of a pool.
type Fees struct {
	TradeFeeNumerator     uint64 `json:"trade_fee_numerator"`
	TradeFeeDenominator   uint64 `json:"trade_fee_denominator"`
	DepositFeeNumerator   uint64 `json:"deposit_fee_numerator"`
	DepositFeeDenominator uint64 `json:"deposit_fee_denominator"`
}

// TradingFee applies the trade rate to amount.
func (f *Fees) TradingFee(amount uint64) (uint64, bool) {
	return CalculateFee(amount, f.TradeFeeNumerator, f.TradeFeeDenominator)
}

// DepositFee applies the deposit rate to amount.
func (f *Fees) DepositFee(amount uint64) (uint64, bool) {
	return CalculateFee(amount, f.DepositFeeNumerator, f.DepositFeeDenominator)
}

// Validate checks both fractions.
func (f *Fees) Validate() error {
	if err := ValidateFraction(f.TradeFeeNumerator, f.TradeFeeDenominator); err != nil {
		return fmt.Errorf("trade fee: %w", err)
	}
	if err := ValidateFraction(f.DepositFeeNumerator, f.DepositFeeDenominator); err != nil {
		return fmt.Errorf("deposit fee: %w", err)
	}
	return nil
}

// Pack serializes the record into RecordLen bytes.
func (f *Fees) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, RecordLen))
	enc := bin.NewBinEncoder(buf)
	for _, v := range []uint64{
		f.TradeFeeNumerator,
		f.TradeFeeDenominator,
		f.DepositFeeNumerator,
		f.DepositFeeDenominator,
	} {
		// writes into a bytes.Buffer cannot fail
		_ = enc.WriteUint64(v, binary.LittleEndian)
	}
	buf.Write(make([]byte, RecordLen-fieldsLen))
	return buf.Bytes()
}

// UnpackFees parses a packed record. Inputs shorter than RecordLen are rejected;
// bytes beyond the four fields are not inspected.
func UnpackFees(data []byte) (*Fees, error) {
	if len(data) < RecordLen {
		return nil, fmt.Errorf("fees record: need %d bytes, got %d: %w", RecordLen, len(data), routererr.InvalidInput)
	}

	dec := bin.NewBinDecoder(data[:fieldsLen])
	var out [4]uint64
	for i := range out {
		v, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("fees record field %d: %v: %w", i, err, routererr.InvalidInput)
		}
		out[i] = v
	}

	return &Fees{
		TradeFeeNumerator:     out[0],
		TradeFeeDenominator:   out[1],
		DepositFeeNumerator:   out[2],
		DepositFeeDenominator: out[3],
	}, nil
}
