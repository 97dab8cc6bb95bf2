// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package retryables

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/util/arbmath"
)

const RetryableLifetimeSeconds = 7 * 24 * 60 * 60 // one week

const (
	ArbitrumDepositTxType         = 0x64
	ArbitrumSubmitRetryableTxType = 0x69
)

// Kinds of delayed inbox messages the bridge emits in MessageDelivered.
const (
	L1MessageType_SubmitRetryable = 9
	L1MessageType_EthDeposit      = 12
)

// SubmitRetryableParams are the user supplied parameters of a retryable ticket, as submitted
// to the inbox and replayed in the delayed message.
type SubmitRetryableParams struct {
	Destination            common.Address
	L2CallValue            *big.Int
	L1Value                *big.Int
	MaxSubmissionFee       *big.Int
	ExcessFeeRefundAddress common.Address
	CallValueRefundAddress common.Address
	GasLimit               *big.Int
	MaxFeePerGas           *big.Int
	Data                   []byte
}

// IsContractCreation is true when the ticket has no destination.
func (p *SubmitRetryableParams) IsContractCreation() bool {
	return p.Destination == (common.Address{})
}

// Equals compares two parameter sets field by field.
func (p *SubmitRetryableParams) Equals(other *SubmitRetryableParams) bool {
	return p.Destination == other.Destination &&
		arbmath.BigEquals(p.L2CallValue, other.L2CallValue) &&
		arbmath.BigEquals(p.L1Value, other.L1Value) &&
		arbmath.BigEquals(p.MaxSubmissionFee, other.MaxSubmissionFee) &&
		p.ExcessFeeRefundAddress == other.ExcessFeeRefundAddress &&
		p.CallValueRefundAddress == other.CallValueRefundAddress &&
		arbmath.BigEquals(p.GasLimit, other.GasLimit) &&
		arbmath.BigEquals(p.MaxFeePerGas, other.MaxFeePerGas) &&
		bytes.Equal(p.Data, other.Data)
}

// submitRetryableTx is the rlp layout of the L2 transaction the chain creates for a ticket.
type submitRetryableTx struct {
	ChainId          *big.Int
	RequestId        common.Hash
	From             common.Address
	L1BaseFee        *big.Int
	DepositValue     *big.Int
	GasFeeCap        *big.Int
	Gas              *big.Int
	RetryTo          *common.Address `rlp:"nil"`
	RetryValue       *big.Int
	Beneficiary      common.Address
	MaxSubmissionFee *big.Int
	FeeRefundAddr    common.Address
	RetryData        []byte
}

type depositTx struct {
	ChainId     *big.Int
	L1RequestId common.Hash
	From        common.Address
	To          common.Address
	Value       *big.Int
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return common.Big0
	}
	return x
}

func typedTxHash(txType byte, inner interface{}) common.Hash {
	var buf bytes.Buffer
	buf.WriteByte(txType)
	if err := rlp.Encode(&buf, inner); err != nil {
		// only fails on unsupported types, which these structs don't have
		panic(err)
	}
	return crypto.Keccak256Hash(buf.Bytes())
}

// CalculateSubmitRetryableId returns the hash of the submit retryable transaction the L2 chain
// creates for a delayed message, which is also the ticket id.
func CalculateSubmitRetryableId(
	chainId *big.Int,
	sender common.Address,
	messageNumber *big.Int,
	l1BaseFee *big.Int,
	params *SubmitRetryableParams,
) common.Hash {
	var retryTo *common.Address
	if !params.IsContractCreation() {
		dest := params.Destination
		retryTo = &dest
	}
	return typedTxHash(ArbitrumSubmitRetryableTxType, &submitRetryableTx{
		ChainId:          orZero(chainId),
		RequestId:        common.BigToHash(orZero(messageNumber)),
		From:             sender,
		L1BaseFee:        orZero(l1BaseFee),
		DepositValue:     orZero(params.L1Value),
		GasFeeCap:        orZero(params.MaxFeePerGas),
		Gas:              orZero(params.GasLimit),
		RetryTo:          retryTo,
		RetryValue:       orZero(params.L2CallValue),
		Beneficiary:      params.CallValueRefundAddress,
		MaxSubmissionFee: orZero(params.MaxSubmissionFee),
		FeeRefundAddr:    params.ExcessFeeRefundAddress,
		RetryData:        params.Data,
	})
}

// CalculateDepositTxId returns the hash of the L2 deposit transaction minting value to `to`.
func CalculateDepositTxId(chainId *big.Int, messageNumber *big.Int, from common.Address, to common.Address, value *big.Int) common.Hash {
	return typedTxHash(ArbitrumDepositTxType, &depositTx{
		ChainId:     orZero(chainId),
		L1RequestId: common.BigToHash(orZero(messageNumber)),
		From:        from,
		To:          to,
		Value:       orZero(value),
	})
}

// Classic ids set the top bit of the inbox sequence number so they can't collide with nitro ids.
var classicIdBit = new(big.Int).Lsh(common.Big1, 255)

// ClassicRetryableCreationId is the id of a ticket created before the nitro upgrade.
func ClassicRetryableCreationId(chainId *big.Int, messageNumber *big.Int) common.Hash {
	flagged := new(big.Int).Or(orZero(messageNumber), classicIdBit)
	return arbutil.PaddedKeccak256Hash(orZero(chainId).Bytes(), flagged.Bytes())
}

func ClassicDerivedId(creationId common.Hash, salt uint64) common.Hash {
	return arbutil.PaddedKeccak256Hash(creationId.Bytes(), new(big.Int).SetUint64(salt).Bytes())
}

func ClassicAutoRedeemId(creationId common.Hash) common.Hash {
	return ClassicDerivedId(creationId, 1)
}

func ClassicL2TxHash(creationId common.Hash) common.Hash {
	return ClassicDerivedId(creationId, 0)
}

// ClassicL2DerivedHash is where the receipt of a classic ticket's user transaction lives.
// It is derived with the same salt as ClassicL2TxHash.
func ClassicL2DerivedHash(creationId common.Hash) common.Hash {
	return ClassicDerivedId(creationId, 0)
}

// RetryableSubmissionFee is what the inbox charges for storing a ticket with the given calldata.
func RetryableSubmissionFee(calldataLengthInBytes int, l1BaseFee *big.Int) *big.Int {
	return arbmath.BigMulByUint(orZero(l1BaseFee), uint64(1400+6*calldataLengthInBytes))
}
