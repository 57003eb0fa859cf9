package cli

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerkit/bundler/internal/engine"
	"github.com/ledgerkit/bundler/internal/record"
)

// JSON payload shapes for the --format json responses. Timestamps render as
// RFC 3339 UTC, empty when unset, so output is stable across machines.

type managerJSON struct {
	Authority      string `json:"authority"`
	BundleCapacity uint8  `json:"bundle_capacity"`
	FeeMultiplier  uint8  `json:"fee_multiplier"`
	ActiveBundles  uint16 `json:"active_bundles"`
	TotalExecuted  uint32 `json:"total_executed"`
	Paused         bool   `json:"paused"`
	NextSequence   uint32 `json:"next_sequence"`
}

type bundleJSON struct {
	BundleID             uint32            `json:"bundle_id"`
	Status               string            `json:"status"`
	Authority            string            `json:"authority"`
	PriorityFee          uint16            `json:"priority_fee"`
	CreatedAt            string            `json:"created_at,omitempty"`
	ExecutionStartedAt   string            `json:"execution_started_at,omitempty"`
	ExecutionCompletedAt string            `json:"execution_completed_at,omitempty"`
	Wallets              []walletJSON      `json:"wallets"`
	Instructions         []instructionJSON `json:"instructions"`
}

type walletJSON struct {
	Index    uint8 `json:"index"`
	Declared uint8 `json:"declared"`
	Added    int   `json:"added"`
}

type instructionJSON struct {
	WalletIndex uint8  `json:"wallet_index"`
	Seq         uint16 `json:"seq"`
	Payload     string `json:"payload"`
	Targets     int    `json:"targets"`
	Executed    bool   `json:"executed"`
}

type executeJSON struct {
	BundleID      uint32 `json:"bundle_id"`
	Status        string `json:"status"`
	Applied       int    `json:"applied"`
	EstimatedCost uint64 `json:"estimated_cost"`
	OpToken       string `json:"op_token,omitempty"`
}

func managerToJSON(m record.ManagerRecord) managerJSON {
	return managerJSON{
		Authority:      m.Authority.String(),
		BundleCapacity: m.BundleCapacity,
		FeeMultiplier:  m.FeeMultiplier,
		ActiveBundles:  m.ActiveBundles,
		TotalExecuted:  m.TotalExecuted,
		Paused:         m.Paused,
		NextSequence:   m.NextSequence,
	}
}

func bundleToJSON(b record.BundleRecord, ins []record.InstructionRecord) bundleJSON {
	out := bundleJSON{
		BundleID:             b.BundleID,
		Status:               b.Status.String(),
		Authority:            b.Authority.String(),
		PriorityFee:          b.PriorityFee,
		CreatedAt:            formatStamp(b.CreatedAt),
		ExecutionStartedAt:   formatStamp(b.ExecutionStartedAt),
		ExecutionCompletedAt: formatStamp(b.ExecutionCompletedAt),
		Wallets:              make([]walletJSON, 0, len(b.WalletIndexes)),
		Instructions:         make([]instructionJSON, 0, len(ins)),
	}
	for i, w := range b.WalletIndexes {
		out.Wallets = append(out.Wallets, walletJSON{
			Index:    w,
			Declared: b.InstructionCounts[i],
			Added:    countForWallet(ins, w),
		})
	}
	for _, in := range ins {
		out.Instructions = append(out.Instructions, instructionJSON{
			WalletIndex: in.WalletIndex,
			Seq:         in.Seq,
			Payload:     hex.EncodeToString(in.Payload),
			Targets:     len(in.Targets),
			Executed:    in.Executed,
		})
	}
	return out
}

func executeToJSON(r engine.ExecuteResult) executeJSON {
	return executeJSON{
		BundleID:      r.BundleID,
		Status:        r.Status.String(),
		Applied:       r.Applied,
		EstimatedCost: r.EstimatedCost,
		OpToken:       r.OpToken,
	}
}

// renderManagerText renders a manager record for text output.
func renderManagerText(m record.ManagerRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "manager %s\n", m.Authority)
	fmt.Fprintf(&sb, "  capacity:       %d wallet slots\n", m.BundleCapacity)
	fmt.Fprintf(&sb, "  fee multiplier: %d\n", m.FeeMultiplier)
	fmt.Fprintf(&sb, "  paused:         %t\n", m.Paused)
	fmt.Fprintf(&sb, "  active bundles: %d\n", m.ActiveBundles)
	fmt.Fprintf(&sb, "  total executed: %d\n", m.TotalExecuted)
	fmt.Fprintf(&sb, "  next sequence:  %d", m.NextSequence)
	return sb.String()
}

// renderBundleText renders a bundle and its instructions for text output.
func renderBundleText(b record.BundleRecord, ins []record.InstructionRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bundle %d (%s)\n", b.BundleID, b.Status)
	fmt.Fprintf(&sb, "  authority:    %s\n", b.Authority)
	fmt.Fprintf(&sb, "  priority fee: %d\n", b.PriorityFee)
	fmt.Fprintf(&sb, "  created:      %s\n", orDash(formatStamp(b.CreatedAt)))
	fmt.Fprintf(&sb, "  started:      %s\n", orDash(formatStamp(b.ExecutionStartedAt)))
	fmt.Fprintf(&sb, "  completed:    %s\n", orDash(formatStamp(b.ExecutionCompletedAt)))
	fmt.Fprintf(&sb, "  wallets:      %d declared, %d instructions expected\n", b.WalletCount, b.TotalDeclared())
	for i, w := range b.WalletIndexes {
		fmt.Fprintf(&sb, "    wallet %d: %d/%d instructions\n", w, countForWallet(ins, w), b.InstructionCounts[i])
	}
	fmt.Fprintf(&sb, "  accumulated:  %d", len(ins))
	for _, in := range ins {
		fmt.Fprintf(&sb, "\n    [%d] wallet %d payload %dB targets %d executed=%t",
			in.Seq, in.WalletIndex, len(in.Payload), len(in.Targets), in.Executed)
	}
	return sb.String()
}

// renderExecuteText renders an execution result for text output.
func renderExecuteText(r engine.ExecuteResult) string {
	return fmt.Sprintf("bundle %d %s: applied %d sub-operations, estimated cost %d units (op %s)",
		r.BundleID, r.Status, r.Applied, r.EstimatedCost, r.OpToken)
}

func countForWallet(ins []record.InstructionRecord, walletIndex uint8) int {
	n := 0
	for _, in := range ins {
		if in.WalletIndex == walletIndex {
			n++
		}
	}
	return n
}

func formatStamp(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
