package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// encodedEvent is the JSON line printed by the encode subcommands.
type encodedEvent struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
	Data  string `json:"data"`
}

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode an order-book event payload",
	}

	blockedCmd := &cobra.Command{
		Use:   "liquidity-removal-blocked",
		Short: "Encode a LiquidityRemovalBlocked event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := u256Flags(cmd, "tick-id", "reserved-count")
			if err != nil {
				return err
			}
			return writeEncoded(cmd.OutOrStdout(), event.NewLiquidityRemovalBlocked(values[0], values[1]))
		},
	}
	blockedCmd.Flags().String("tick-id", "", "tick id (decimal or 0x hex)")
	blockedCmd.Flags().String("reserved-count", "", "open reservation count (decimal or 0x hex)")
	_ = blockedCmd.MarkFlagRequired("tick-id")
	_ = blockedCmd.MarkFlagRequired("reserved-count")

	filledCmd := &cobra.Command{
		Use:   "tick-filled",
		Short: "Encode a TickFilled event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := u256Flags(cmd, "tick-id", "amount", "level", "remaining")
			if err != nil {
				return err
			}
			detail := model.NewTickFilledDetail(values[0], values[1], values[2], values[3])
			return writeEncoded(cmd.OutOrStdout(), event.NewTickFilled(detail))
		},
	}
	filledCmd.Flags().String("tick-id", "", "tick id (decimal or 0x hex)")
	filledCmd.Flags().String("amount", "", "filled amount (decimal or 0x hex)")
	filledCmd.Flags().String("level", "", "tick level (decimal or 0x hex)")
	filledCmd.Flags().String("remaining", "", "remaining liquidity (decimal or 0x hex)")
	for _, name := range []string{"tick-id", "amount", "level", "remaining"} {
		_ = filledCmd.MarkFlagRequired(name)
	}

	encodeCmd.AddCommand(blockedCmd, filledCmd)
	return encodeCmd
}

func u256Flags(cmd *cobra.Command, names ...string) ([]*uint256.Int, error) {
	values := make([]*uint256.Int, 0, len(names))
	for _, name := range names {
		raw, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		value, err := model.ParseU256(raw)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		values = append(values, value)
	}
	return values, nil
}

func writeEncoded(w io.Writer, ev event.Event) error {
	line := encodedEvent{
		Name:  ev.Name(),
		Topic: ev.Topic().Hex(),
		Data:  hexutil.Encode(ev.Data()),
	}
	return json.NewEncoder(w).Encode(line)
}
