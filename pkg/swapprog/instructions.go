package swapprog

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Opcode is the single-byte instruction discriminator of the program.
type Opcode uint8

const (
	OpInitialize             Opcode = 0
	OpSwap                   Opcode = 1
	OpUpdateParameters       Opcode = 3
	OpBuyAndDistribute       Opcode = 4
	OpClaimWeeklyReward      Opcode = 5
	OpWithdrawContribution   Opcode = 6
	OpCreateLiquidityAccount Opcode = 7
	OpSolToYotSwapImmediate  Opcode = 8
	OpYotToSolSwapImmediate  Opcode = 9
)

// Direction names which way a swap moves value.
type Direction string

const (
	DirectionSolToYot Direction = "sol_to_yot"
	DirectionYotToSol Direction = "yot_to_sol"
)

// SwapAccounts carries every resolved address an instruction may reference.
// Builders read only the fields their opcode needs.
type SwapAccounts struct {
	User             solana.PublicKey
	SolPool          solana.PublicKey
	YotPool          solana.PublicKey
	VaultYot         solana.PublicKey
	LiquidityYot     solana.PublicKey
	CentralLiquidity solana.PublicKey
	PoolAuthority    solana.PublicKey
	UserYot          solana.PublicKey
	UserYos          solana.PublicKey
	YosMint          solana.PublicKey
	Derived          Addresses
}

type opcodeSpec struct {
	name         string
	amountFields int
	accounts     func(a SwapAccounts) solana.AccountMetaSlice
}

// opcodeTable is the single source of truth for byte layout and account order
// per opcode. Account order and mutability must match the program exactly;
// the program rejects mismatches without a useful local error, so nothing
// outside this table builds account lists.
var opcodeTable = map[Opcode]opcodeSpec{
	OpBuyAndDistribute: {
		name:         "buy_and_distribute",
		amountFields: 1,
		accounts: func(a SwapAccounts) solana.AccountMetaSlice {
			return solana.AccountMetaSlice{
				solana.NewAccountMeta(a.User, true, true),
				solana.NewAccountMeta(a.VaultYot, true, false),
				solana.NewAccountMeta(a.UserYot, true, false),
				solana.NewAccountMeta(a.LiquidityYot, true, false),
				solana.NewAccountMeta(a.YosMint, true, false),
				solana.NewAccountMeta(a.UserYos, true, false),
				solana.NewAccountMeta(a.Derived.Contribution, true, false),
				solana.NewAccountMeta(TokenProgramID, false, false),
				solana.NewAccountMeta(SystemProgramID, false, false),
				solana.NewAccountMeta(RentSysvarID, false, false),
				solana.NewAccountMeta(a.Derived.State, true, false),
				solana.NewAccountMeta(a.Derived.Authority, false, false),
				solana.NewAccountMeta(a.PoolAuthority, false, false),
			}
		},
	},
	OpSolToYotSwapImmediate: {
		name:         "sol_to_yot_swap_immediate",
		amountFields: 2,
		accounts:     swapImmediateAccounts,
	},
	OpYotToSolSwapImmediate: {
		name:         "yot_to_sol_swap_immediate",
		amountFields: 2,
		accounts:     swapImmediateAccounts,
	},
	OpCreateLiquidityAccount: {
		name:         "create_liquidity_account",
		amountFields: 0,
		accounts: func(a SwapAccounts) solana.AccountMetaSlice {
			return solana.AccountMetaSlice{
				solana.NewAccountMeta(a.User, true, true),
				solana.NewAccountMeta(a.Derived.Contribution, true, false),
				solana.NewAccountMeta(SystemProgramID, false, false),
			}
		},
	},
	OpClaimWeeklyReward: {
		name:         "claim_weekly_reward",
		amountFields: 0,
		accounts: func(a SwapAccounts) solana.AccountMetaSlice {
			return solana.AccountMetaSlice{
				solana.NewAccountMeta(a.User, false, true),
				solana.NewAccountMeta(a.User, false, false),
				solana.NewAccountMeta(a.Derived.Contribution, true, false),
				solana.NewAccountMeta(a.YosMint, true, false),
				solana.NewAccountMeta(a.UserYos, true, false),
				solana.NewAccountMeta(TokenProgramID, false, false),
			}
		},
	},
	OpWithdrawContribution: {
		name:         "withdraw_contribution",
		amountFields: 0,
		accounts: func(a SwapAccounts) solana.AccountMetaSlice {
			return solana.AccountMetaSlice{
				solana.NewAccountMeta(a.User, true, true),
				solana.NewAccountMeta(a.Derived.Contribution, true, false),
				solana.NewAccountMeta(a.LiquidityYot, true, false),
				solana.NewAccountMeta(a.UserYot, true, false),
				solana.NewAccountMeta(TokenProgramID, false, false),
			}
		},
	},
}

// Both swap-immediate directions share one account order.
func swapImmediateAccounts(a SwapAccounts) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(a.User, true, true),
		solana.NewAccountMeta(a.Derived.State, true, false),
		solana.NewAccountMeta(a.Derived.Authority, false, false),
		solana.NewAccountMeta(a.SolPool, true, false),
		solana.NewAccountMeta(a.YotPool, true, false),
		solana.NewAccountMeta(a.UserYot, true, false),
		solana.NewAccountMeta(a.CentralLiquidity, true, false),
		solana.NewAccountMeta(a.Derived.Contribution, true, false),
		solana.NewAccountMeta(a.YosMint, true, false),
		solana.NewAccountMeta(a.UserYos, true, false),
		solana.NewAccountMeta(SystemProgramID, false, false),
		solana.NewAccountMeta(TokenProgramID, false, false),
		solana.NewAccountMeta(RentSysvarID, false, false),
	}
}

// EncodeData emits the wire payload: one opcode byte followed by 8-byte
// little-endian unsigned integers for each amount field.
func EncodeData(op Opcode, amounts ...uint64) []byte {
	data := make([]byte, 1+8*len(amounts))
	data[0] = byte(op)
	for i, amount := range amounts {
		binary.LittleEndian.PutUint64(data[1+8*i:9+8*i], amount)
	}
	return data
}

// Build assembles one instruction from the opcode table.
func Build(programID solana.PublicKey, op Opcode, a SwapAccounts, amounts ...uint64) (solana.Instruction, error) {
	spec, ok := opcodeTable[op]
	if !ok {
		return nil, fmt.Errorf("no instruction spec for opcode %d", op)
	}
	if len(amounts) != spec.amountFields {
		return nil, fmt.Errorf("%s expects %d amount fields, got %d", spec.name, spec.amountFields, len(amounts))
	}
	return solana.NewInstruction(programID, spec.accounts(a), EncodeData(op, amounts...)), nil
}

// SwapImmediateOpcode maps a direction to the matching one-phase swap opcode.
func SwapImmediateOpcode(d Direction) (Opcode, error) {
	switch d {
	case DirectionSolToYot:
		return OpSolToYotSwapImmediate, nil
	case DirectionYotToSol:
		return OpYotToSolSwapImmediate, nil
	}
	return 0, fmt.Errorf("unknown swap direction %q", d)
}

// NewSwapImmediateInstruction builds the swap that assumes the contribution
// account already exists on chain.
func NewSwapImmediateInstruction(programID solana.PublicKey, d Direction, a SwapAccounts, amountIn, minOut uint64) (solana.Instruction, error) {
	op, err := SwapImmediateOpcode(d)
	if err != nil {
		return nil, err
	}
	return Build(programID, op, a, amountIn, minOut)
}

// NewBuyAndDistributeInstruction builds the combined swap-and-distribute
// instruction. When the contribution account is missing this instruction
// trips the program's double-borrow defect; callers must run
// NewCreateContributionInstruction in a prior transaction first.
func NewBuyAndDistributeInstruction(programID solana.PublicKey, a SwapAccounts, amount uint64) (solana.Instruction, error) {
	return Build(programID, OpBuyAndDistribute, a, amount)
}

// NewCreateContributionInstruction builds the minimal transaction payload
// whose sole effect is materializing the contribution PDA.
func NewCreateContributionInstruction(programID solana.PublicKey, a SwapAccounts) (solana.Instruction, error) {
	return Build(programID, OpCreateLiquidityAccount, a)
}

// NewClaimWeeklyRewardInstruction builds the weekly YOS reward claim.
func NewClaimWeeklyRewardInstruction(programID solana.PublicKey, a SwapAccounts) (solana.Instruction, error) {
	return Build(programID, OpClaimWeeklyReward, a)
}

// NewWithdrawContributionInstruction builds the contribution withdrawal.
func NewWithdrawContributionInstruction(programID solana.PublicKey, a SwapAccounts) (solana.Instruction, error) {
	return Build(programID, OpWithdrawContribution, a)
}
